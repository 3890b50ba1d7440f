package vault

import (
	"math/big"

	"synthvault/crypto"
)

// UsdValue converts an asset quantity into its 18-decimal USD value using the
// asset's live oracle price.
func (e *Engine) UsdValue(symbol string, amount *big.Int) (*big.Int, error) {
	cfg, ok := e.ledger.Asset(symbol)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price, _, err := cfg.Feed.LatestPrice()
	if err != nil {
		return nil, err
	}
	return mulDiv(price, amount, precision), nil
}

// AssetAmountForUsd is the inverse conversion: the asset quantity whose USD
// value equals usdAmount at the live price. Used to size liquidation
// seizures.
func (e *Engine) AssetAmountForUsd(symbol string, usdAmount *big.Int) (*big.Int, error) {
	cfg, ok := e.ledger.Asset(symbol)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	if usdAmount == nil || usdAmount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price, _, err := cfg.Feed.LatestPrice()
	if err != nil {
		return nil, err
	}
	return mulDiv(usdAmount, precision, price), nil
}

// TotalCollateralUsdValue sums the USD value of the user's balances across
// every registered asset.
func (e *Engine) TotalCollateralUsdValue(addr crypto.Address) (*big.Int, error) {
	total := big.NewInt(0)
	for _, symbol := range e.ledger.Assets() {
		balance, err := e.ledger.CollateralOf(addr, symbol)
		if err != nil {
			return nil, err
		}
		if balance.Sign() == 0 {
			continue
		}
		value, err := e.UsdValue(symbol, balance)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}
