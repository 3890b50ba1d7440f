package vault

import "fmt"

const (
	// DefaultLiquidationThresholdBps requires 200% collateralization at the
	// margin (50% of collateral value counts toward debt coverage).
	DefaultLiquidationThresholdBps uint64 = 5_000
	// DefaultLiquidationBonusBps grants liquidators a 10% collateral bonus.
	DefaultLiquidationBonusBps uint64 = 1_000
)

// RiskParameters groups the safety limits enforced by the engine, expressed
// in basis points.
type RiskParameters struct {
	LiquidationThresholdBps uint64
	LiquidationBonusBps     uint64
}

// DefaultRiskParameters returns the canonical 200% / 10% configuration.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		LiquidationThresholdBps: DefaultLiquidationThresholdBps,
		LiquidationBonusBps:     DefaultLiquidationBonusBps,
	}
}

// Validate checks the parameters are inside sane bounds.
func (p RiskParameters) Validate() error {
	if p.LiquidationThresholdBps == 0 || p.LiquidationThresholdBps > 10_000 {
		return fmt.Errorf("vault params: liquidation threshold %d bps out of range (0, 10000]", p.LiquidationThresholdBps)
	}
	if p.LiquidationBonusBps >= 10_000 {
		return fmt.Errorf("vault params: liquidation bonus %d bps must be below 10000", p.LiquidationBonusBps)
	}
	return nil
}
