package vault

import "errors"

var (
	// ErrInvalidAmount rejects zero, negative, or missing amounts.
	ErrInvalidAmount = errors.New("vault engine: amount must be positive")
	// ErrAssetNotSupported rejects operations against assets outside the
	// registry configured at construction time.
	ErrAssetNotSupported = errors.New("vault engine: collateral asset not supported")
	// ErrInsufficientBalance rejects ledger decreases that would underflow.
	ErrInsufficientBalance = errors.New("vault ledger: insufficient balance")
	// ErrHealthFactorBroken signals a position below the minimum health factor
	// after a mutation.
	ErrHealthFactorBroken = errors.New("vault engine: health factor below minimum")
	// ErrHealthFactorOK rejects liquidation of a position that is still safe.
	ErrHealthFactorOK = errors.New("vault engine: borrower not eligible for liquidation")
	// ErrHealthFactorNotImproved signals a liquidation that failed to strictly
	// improve the borrower's health factor.
	ErrHealthFactorNotImproved = errors.New("vault engine: liquidation did not improve health factor")
	// ErrTransferFailed signals a failed external asset or debt token movement.
	ErrTransferFailed = errors.New("vault engine: token transfer failed")
	// ErrStalePrice signals an oracle reading older than the staleness window.
	ErrStalePrice = errors.New("vault oracle: stale price reading")
	// ErrInvalidPrice signals a non-positive oracle answer. The feed contract
	// promises positive prices; anything else fails closed.
	ErrInvalidPrice = errors.New("vault oracle: invalid price reading")
)
