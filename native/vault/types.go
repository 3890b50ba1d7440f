package vault

import (
	"math/big"
	"strings"

	"synthvault/crypto"
)

// CollateralToken is the fungible asset contract the engine pulls collateral
// from and pushes collateral to. A failure return aborts the whole operation.
type CollateralToken interface {
	Transfer(from, to crypto.Address, amount *big.Int) error
	TransferFrom(spender, owner, to crypto.Address, amount *big.Int) error
}

// DebtToken is the synthetic asset controlled exclusively by the engine. The
// engine's identity is the sole authorized minter.
type DebtToken interface {
	Mint(caller, to crypto.Address, amount *big.Int) error
	Burn(caller crypto.Address, amount *big.Int) error
	Transfer(from, to crypto.Address, amount *big.Int) error
	TransferFrom(spender, owner, to crypto.Address, amount *big.Int) error
	TotalSupply() *big.Int
}

// AssetConfig binds a registered collateral asset to its price feed adapter
// and token contract. The registry is fixed at construction time.
type AssetConfig struct {
	Symbol string
	Feed   *FeedAdapter
	Token  CollateralToken
}

// Position is a read-only view of a user's collateral balances and
// outstanding debt. A position with zero balances is indistinguishable from
// a non-existent one.
type Position struct {
	Address    crypto.Address
	Collateral map[string]*big.Int
	Debt       *big.Int
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
