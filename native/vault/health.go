package vault

import (
	"fmt"
	"math/big"

	"synthvault/crypto"
)

// HealthFactor reports how close the user's position is to liquidation in
// 18-decimal fixed point. Values below MinHealthFactor mark the position as
// liquidatable. A debt-free position is maximally healthy by definition
// rather than a division error.
func (e *Engine) HealthFactor(addr crypto.Address) (*big.Int, error) {
	debt, err := e.ledger.DebtOf(addr)
	if err != nil {
		return nil, err
	}
	if debt.Sign() == 0 {
		return new(big.Int).Set(MaxHealthFactor), nil
	}
	collateralUsd, err := e.TotalCollateralUsdValue(addr)
	if err != nil {
		return nil, err
	}
	return e.healthFactorFrom(collateralUsd, debt), nil
}

// healthFactorFrom computes the ratio of threshold-adjusted collateral value
// to debt: (collateralUsd * thresholdBps / 10000) * 1e18 / debt.
func (e *Engine) healthFactorFrom(collateralUsd, debt *big.Int) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(MaxHealthFactor)
	}
	adjusted := bpsShare(collateralUsd, e.params.LiquidationThresholdBps)
	return mulDiv(adjusted, precision, debt)
}

// assertSolvent fails with ErrHealthFactorBroken when the user's health
// factor is below the minimum.
func (e *Engine) assertSolvent(addr crypto.Address) error {
	healthFactor, err := e.HealthFactor(addr)
	if err != nil {
		return err
	}
	if healthFactor.Cmp(MinHealthFactor) < 0 {
		return fmt.Errorf("%w: %s", ErrHealthFactorBroken, healthFactor)
	}
	return nil
}
