package events

import (
	"math/big"
	"strings"

	"synthvault/core/types"
	"synthvault/crypto"
)

const (
	// TypeCollateralDeposited is emitted when collateral is locked in the engine.
	TypeCollateralDeposited = "collateral.deposited"
	// TypeCollateralRedeemed is emitted when collateral leaves the engine,
	// either through a redeem or a liquidation seizure.
	TypeCollateralRedeemed = "collateral.redeemed"
)

// CollateralDeposited records a collateral lock performed by an actor.
type CollateralDeposited struct {
	Actor  crypto.Address
	Asset  string
	Amount *big.Int
}

func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

func (e CollateralDeposited) Event() *types.Event {
	return &types.Event{Type: TypeCollateralDeposited, Attributes: map[string]string{
		"actor":  e.Actor.String(),
		"asset":  normalizeAsset(e.Asset),
		"amount": formatAmount(e.Amount),
	}}
}

// CollateralRedeemed records collateral released to a recipient. During a
// liquidation the actor is the liquidator while the position owner is the
// account whose collateral was seized.
type CollateralRedeemed struct {
	Actor  crypto.Address
	Owner  crypto.Address
	Asset  string
	Amount *big.Int
}

func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

func (e CollateralRedeemed) Event() *types.Event {
	return &types.Event{Type: TypeCollateralRedeemed, Attributes: map[string]string{
		"actor":  e.Actor.String(),
		"owner":  e.Owner.String(),
		"asset":  normalizeAsset(e.Asset),
		"amount": formatAmount(e.Amount),
	}}
}

func normalizeAsset(asset string) string {
	trimmed := strings.TrimSpace(asset)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed)
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
