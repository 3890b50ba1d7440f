package vault

import (
	"errors"
	"fmt"
	"math/big"

	"synthvault/core/events"
	"synthvault/crypto"
	nativecommon "synthvault/native/common"
)

const moduleName = "vault"

var errNilEngine = errors.New("vault engine: not configured")

// Engine orchestrates the deposit, mint, redeem, burn, and liquidate state
// transitions against the ledger. Every state-mutating operation runs under
// the reentrancy guard and is all-or-nothing: a failed precondition, failed
// external transfer, or failed post-check leaves no partial ledger mutation
// behind.
type Engine struct {
	guard   nativecommon.ReentrancyGuard
	ledger  *Ledger
	debt    DebtToken
	address crypto.Address
	params  RiskParameters
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs the position engine. The address is the engine's own
// identity: pooled collateral is held under it and it is the debt token's
// sole minting authority.
func NewEngine(address crypto.Address, ledger *Ledger, debt DebtToken, params RiskParameters) (*Engine, error) {
	if ledger == nil {
		return nil, errNilState
	}
	if debt == nil {
		return nil, fmt.Errorf("vault engine: debt token required")
	}
	if address.IsZero() {
		return nil, fmt.Errorf("vault engine: engine address required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		ledger:  ledger,
		debt:    debt,
		address: address,
		params:  params,
		emitter: events.NoopEmitter{},
	}, nil
}

// SetEmitter wires the event sink used for deposit/redeem notifications.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetPauses wires the pause switchboard consulted before every mutation.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Address returns the engine's own account identity.
func (e *Engine) Address() crypto.Address { return e.address }

// Params returns the configured risk parameters.
func (e *Engine) Params() RiskParameters { return e.params }

// Assets returns the registered collateral symbols.
func (e *Engine) Assets() []string { return e.ledger.Assets() }

// CollateralOf returns the user's ledger balance for the asset.
func (e *Engine) CollateralOf(addr crypto.Address, symbol string) (*big.Int, error) {
	return e.ledger.CollateralOf(addr, symbol)
}

// DebtOf returns the user's outstanding debt.
func (e *Engine) DebtOf(addr crypto.Address) (*big.Int, error) {
	return e.ledger.DebtOf(addr)
}

// PositionOf assembles the full read-only view of a user's position.
func (e *Engine) PositionOf(addr crypto.Address) (Position, error) {
	position := Position{Address: addr, Collateral: make(map[string]*big.Int)}
	for _, symbol := range e.ledger.Assets() {
		balance, err := e.ledger.CollateralOf(addr, symbol)
		if err != nil {
			return Position{}, err
		}
		position.Collateral[symbol] = balance
	}
	debt, err := e.ledger.DebtOf(addr)
	if err != nil {
		return Position{}, err
	}
	position.Debt = debt
	return position, nil
}

// begin acquires the reentrancy guard and checks the pause switchboard. The
// returned release must be deferred by the caller.
func (e *Engine) begin() (func(), error) {
	if e == nil || e.ledger == nil {
		return nil, errNilEngine
	}
	release, err := e.guard.Acquire()
	if err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// Deposit locks collateral pulled from the caller. No solvency post-check is
// needed: adding collateral can only improve health.
func (e *Engine) Deposit(caller crypto.Address, symbol string, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()
	if err := e.deposit(caller, symbol, amount); err != nil {
		return err
	}
	e.emitDeposited(caller, symbol, amount)
	return nil
}

func (e *Engine) deposit(caller crypto.Address, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	cfg, ok := e.ledger.Asset(symbol)
	if !ok {
		return ErrAssetNotSupported
	}
	if err := cfg.Token.TransferFrom(e.address, caller, e.address, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.ledger.IncreaseCollateral(caller, cfg.Symbol, amount); err != nil {
		// The pull already happened; return the funds so the failure is total.
		_ = cfg.Token.Transfer(e.address, caller, amount)
		return err
	}
	return nil
}

// emitDeposited is called by the public operations after they commit, never
// from inside a step that a composition might still unwind.
func (e *Engine) emitDeposited(actor crypto.Address, symbol string, amount *big.Int) {
	e.emitter.Emit(events.CollateralDeposited{Actor: actor, Asset: normalizeSymbol(symbol), Amount: new(big.Int).Set(amount)})
}

// Mint issues debt tokens to the caller, failing when the resulting position
// would drop below the minimum health factor.
func (e *Engine) Mint(caller crypto.Address, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()
	return e.mint(caller, amount)
}

func (e *Engine) mint(caller crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.ledger.IncreaseDebt(caller, amount); err != nil {
		return err
	}
	if err := e.assertSolvent(caller); err != nil {
		_ = e.ledger.DecreaseDebt(caller, amount)
		return err
	}
	if err := e.debt.Mint(e.address, caller, amount); err != nil {
		_ = e.ledger.DecreaseDebt(caller, amount)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// Redeem releases collateral back to the caller, failing when the resulting
// position would drop below the minimum health factor.
func (e *Engine) Redeem(caller crypto.Address, symbol string, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()
	return e.redeem(caller, symbol, amount)
}

func (e *Engine) redeem(caller crypto.Address, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	cfg, ok := e.ledger.Asset(symbol)
	if !ok {
		return ErrAssetNotSupported
	}
	if err := e.ledger.DecreaseCollateral(caller, cfg.Symbol, amount); err != nil {
		return err
	}
	if err := e.assertSolvent(caller); err != nil {
		_ = e.ledger.IncreaseCollateral(caller, cfg.Symbol, amount)
		return err
	}
	if err := cfg.Token.Transfer(e.address, caller, amount); err != nil {
		_ = e.ledger.IncreaseCollateral(caller, cfg.Symbol, amount)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emitter.Emit(events.CollateralRedeemed{Actor: caller, Owner: caller, Asset: cfg.Symbol, Amount: new(big.Int).Set(amount)})
	return nil
}

// Burn pulls debt tokens from the caller, destroys them, and reduces the
// caller's ledger debt. Repaying debt can never reduce the health factor, so
// there is no solvency post-check.
func (e *Engine) Burn(caller crypto.Address, amount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()
	return e.burn(caller, caller, amount)
}

// burn retires amount debt recorded against onBehalfOf, pulling the tokens
// from payer. During liquidation the payer is the liquidator.
func (e *Engine) burn(payer, onBehalfOf crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	debt, err := e.ledger.DebtOf(onBehalfOf)
	if err != nil {
		return err
	}
	if debt.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.debt.TransferFrom(e.address, payer, e.address, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.debt.Burn(e.address, amount); err != nil {
		_ = e.debt.Transfer(e.address, payer, amount)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.ledger.DecreaseDebt(onBehalfOf, amount); err != nil {
		_ = e.debt.Mint(e.address, payer, amount)
		return err
	}
	return nil
}

// Liquidate lets a third party repay part of an unsafe borrower's debt in
// exchange for the debt-equivalent collateral quantity plus the liquidation
// bonus. The borrower's health factor must strictly improve and the
// liquidator must remain solvent.
//
// Known limitation: when aggregate collateralization falls to or below 100%,
// the seizure (debt equivalent plus bonus) can exceed the borrower's
// balance; the operation then fails with ErrInsufficientBalance and the
// incentive mechanism degrades. This is an accepted property of the bonus
// economics, not a recoverable condition.
func (e *Engine) Liquidate(liquidator, borrower crypto.Address, symbol string, debtToCover *big.Int) (*big.Int, error) {
	release, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, ok := e.ledger.Asset(symbol)
	if !ok {
		return nil, ErrAssetNotSupported
	}

	startingHealth, err := e.HealthFactor(borrower)
	if err != nil {
		return nil, err
	}
	if startingHealth.Cmp(MinHealthFactor) >= 0 {
		return nil, ErrHealthFactorOK
	}

	debtEquivalent, err := e.AssetAmountForUsd(cfg.Symbol, debtToCover)
	if err != nil {
		return nil, err
	}
	bonus := bpsShare(debtEquivalent, e.params.LiquidationBonusBps)
	seized := new(big.Int).Add(debtEquivalent, bonus)

	if err := e.ledger.DecreaseCollateral(borrower, cfg.Symbol, seized); err != nil {
		return nil, err
	}
	if err := e.ledger.DecreaseDebt(borrower, debtToCover); err != nil {
		_ = e.ledger.IncreaseCollateral(borrower, cfg.Symbol, seized)
		return nil, err
	}
	restoreLedger := func() {
		_ = e.ledger.IncreaseDebt(borrower, debtToCover)
		_ = e.ledger.IncreaseCollateral(borrower, cfg.Symbol, seized)
	}

	// Post-checks against the mutated ledger. The second valuation re-reads
	// the live feed, so it may observe a different price than the seizure
	// sizing did; that is accepted as sequential consistency over wall-clock
	// time.
	endingHealth, err := e.HealthFactor(borrower)
	if err != nil {
		restoreLedger()
		return nil, err
	}
	if endingHealth.Cmp(startingHealth) <= 0 {
		restoreLedger()
		return nil, ErrHealthFactorNotImproved
	}
	if err := e.assertSolvent(liquidator); err != nil {
		restoreLedger()
		return nil, err
	}

	// Pull and destroy the covered debt, then release the seized collateral.
	if err := e.debt.TransferFrom(e.address, liquidator, e.address, debtToCover); err != nil {
		restoreLedger()
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.debt.Burn(e.address, debtToCover); err != nil {
		_ = e.debt.Transfer(e.address, liquidator, debtToCover)
		restoreLedger()
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := cfg.Token.Transfer(e.address, liquidator, seized); err != nil {
		_ = e.debt.Mint(e.address, liquidator, debtToCover)
		restoreLedger()
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	e.emitter.Emit(events.CollateralRedeemed{Actor: liquidator, Owner: borrower, Asset: cfg.Symbol, Amount: new(big.Int).Set(seized)})
	return seized, nil
}

// DepositAndMint composes a deposit followed by a mint as a single atomic
// operation.
func (e *Engine) DepositAndMint(caller crypto.Address, symbol string, collateralAmount, mintAmount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.deposit(caller, symbol, collateralAmount); err != nil {
		return err
	}
	if err := e.mint(caller, mintAmount); err != nil {
		// Unwind the deposit so the composition fails as a whole.
		cfg, _ := e.ledger.Asset(symbol)
		_ = e.ledger.DecreaseCollateral(caller, cfg.Symbol, collateralAmount)
		_ = cfg.Token.Transfer(e.address, caller, collateralAmount)
		return err
	}
	e.emitDeposited(caller, symbol, collateralAmount)
	return nil
}

// RedeemForDebtRepayment composes a burn followed by a redeem as a single
// atomic operation, letting a user unwind a position in one call.
func (e *Engine) RedeemForDebtRepayment(caller crypto.Address, symbol string, collateralAmount, burnAmount *big.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.burn(caller, caller, burnAmount); err != nil {
		return err
	}
	if err := e.redeem(caller, symbol, collateralAmount); err != nil {
		_ = e.ledger.IncreaseDebt(caller, burnAmount)
		_ = e.debt.Mint(e.address, caller, burnAmount)
		return err
	}
	return nil
}
