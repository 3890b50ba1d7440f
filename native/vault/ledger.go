package vault

import (
	"errors"
	"fmt"
	"math/big"

	"synthvault/crypto"
)

var errNilState = errors.New("vault ledger: state not configured")

// LedgerState is the persistence layer behind the ledger. Absent entries
// read as zero.
type LedgerState interface {
	GetCollateral(addr crypto.Address, asset string) (*big.Int, error)
	PutCollateral(addr crypto.Address, asset string, amount *big.Int) error
	GetDebt(addr crypto.Address) (*big.Int, error)
	PutDebt(addr crypto.Address, amount *big.Int) error
}

// Ledger is the durable position state: per-user collateral balances per
// asset, per-user debt, and the registry of supported collateral assets with
// their oracle bindings. It carries no business rules beyond underflow
// rejection; solvency policy lives in the engine.
type Ledger struct {
	state  LedgerState
	assets []AssetConfig
	index  map[string]*AssetConfig
}

// NewLedger builds a ledger over the given state and fixed asset registry.
func NewLedger(state LedgerState, assets []AssetConfig) (*Ledger, error) {
	if state == nil {
		return nil, errNilState
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("vault ledger: at least one collateral asset required")
	}
	ledger := &Ledger{
		state: state,
		index: make(map[string]*AssetConfig, len(assets)),
	}
	for _, asset := range assets {
		symbol := normalizeSymbol(asset.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("vault ledger: asset symbol required")
		}
		if asset.Feed == nil {
			return nil, fmt.Errorf("vault ledger: asset %s has no price feed binding", symbol)
		}
		if asset.Token == nil {
			return nil, fmt.Errorf("vault ledger: asset %s has no token binding", symbol)
		}
		if _, exists := ledger.index[symbol]; exists {
			return nil, fmt.Errorf("vault ledger: duplicate asset %s", symbol)
		}
		cfg := AssetConfig{Symbol: symbol, Feed: asset.Feed, Token: asset.Token}
		ledger.assets = append(ledger.assets, cfg)
		ledger.index[symbol] = &ledger.assets[len(ledger.assets)-1]
	}
	return ledger, nil
}

// Assets returns the registered symbols in registration order.
func (l *Ledger) Assets() []string {
	symbols := make([]string, 0, len(l.assets))
	for _, asset := range l.assets {
		symbols = append(symbols, asset.Symbol)
	}
	return symbols
}

// Asset resolves the configuration for a symbol.
func (l *Ledger) Asset(symbol string) (*AssetConfig, bool) {
	cfg, ok := l.index[normalizeSymbol(symbol)]
	return cfg, ok
}

// CollateralOf returns a copy of the user's balance for the asset.
// Unregistered assets fail with ErrAssetNotSupported.
func (l *Ledger) CollateralOf(addr crypto.Address, symbol string) (*big.Int, error) {
	cfg, ok := l.Asset(symbol)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	balance, err := l.state.GetCollateral(addr, cfg.Symbol)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// DebtOf returns a copy of the user's outstanding debt.
func (l *Ledger) DebtOf(addr crypto.Address) (*big.Int, error) {
	debt, err := l.state.GetDebt(addr)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(debt), nil
}

// IncreaseCollateral credits the user's balance for a registered asset.
func (l *Ledger) IncreaseCollateral(addr crypto.Address, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.CollateralOf(addr, symbol)
	if err != nil {
		return err
	}
	return l.state.PutCollateral(addr, normalizeSymbol(symbol), balance.Add(balance, amount))
}

// DecreaseCollateral debits the user's balance, rejecting underflow.
func (l *Ledger) DecreaseCollateral(addr crypto.Address, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.CollateralOf(addr, symbol)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return l.state.PutCollateral(addr, normalizeSymbol(symbol), balance.Sub(balance, amount))
}

// IncreaseDebt credits the user's outstanding debt.
func (l *Ledger) IncreaseDebt(addr crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	debt, err := l.DebtOf(addr)
	if err != nil {
		return err
	}
	return l.state.PutDebt(addr, debt.Add(debt, amount))
}

// DecreaseDebt debits the user's outstanding debt, rejecting underflow.
func (l *Ledger) DecreaseDebt(addr crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	debt, err := l.DebtOf(addr)
	if err != nil {
		return err
	}
	if debt.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return l.state.PutDebt(addr, debt.Sub(debt, amount))
}
