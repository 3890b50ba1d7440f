package vault

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"synthvault/crypto"
)

// setupUnsafePosition opens a borderline position at $2,000 and returns the
// borrower and a funded liquidator. Dropping the price afterwards makes the
// position liquidatable.
func setupUnsafePosition(t *testing.T, env *testEnv) (borrower, liquidator crypto.Address) {
	t.Helper()
	borrower = makeAddress(0x01)
	liquidator = makeAddress(0x02)

	env.setPrice(2_000)
	env.fund(t, borrower, units(1))
	if err := env.engine.DepositAndMint(borrower, "WETH", units(1), units(1_000)); err != nil {
		t.Fatalf("open position: %v", err)
	}

	// The liquidator holds debt tokens without a ledger position of its own.
	if err := env.debt.Mint(env.engineAddr, liquidator, units(1_000)); err != nil {
		t.Fatalf("fund liquidator: %v", err)
	}
	env.debt.Approve(liquidator, env.engineAddr, units(1_000))
	return borrower, liquidator
}

func TestLiquidateSeizesCollateralWithBonus(t *testing.T) {
	env := newTestEnv(t)
	borrower, liquidator := setupUnsafePosition(t, env)

	env.setPrice(1_800)
	startingHealth, err := env.engine.HealthFactor(borrower)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if startingHealth.Cmp(MinHealthFactor) >= 0 {
		t.Fatalf("position should be unsafe, health factor %s", startingHealth)
	}

	debtToCover := units(500)
	seized, err := env.engine.Liquidate(liquidator, borrower, "WETH", debtToCover)
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// Seizure is the debt-equivalent asset quantity plus the 10% bonus.
	debtEquivalent := mulDiv(debtToCover, precision, units(1_800))
	want := new(big.Int).Add(debtEquivalent, bpsShare(debtEquivalent, DefaultLiquidationBonusBps))
	if seized.Cmp(want) != 0 {
		t.Fatalf("unexpected seizure: got %s want %s", seized, want)
	}
	if held := env.weth.BalanceOf(liquidator); held.Cmp(want) != 0 {
		t.Fatalf("liquidator should receive the seized collateral, got %s", held)
	}

	debt, err := env.engine.DebtOf(borrower)
	if err != nil {
		t.Fatalf("debt of: %v", err)
	}
	if debt.Cmp(units(500)) != 0 {
		t.Fatalf("unexpected remaining debt: %s", debt)
	}
	balance, err := env.engine.CollateralOf(borrower, "WETH")
	if err != nil {
		t.Fatalf("collateral of: %v", err)
	}
	if want := new(big.Int).Sub(units(1), seized); balance.Cmp(want) != 0 {
		t.Fatalf("unexpected remaining collateral: got %s want %s", balance, want)
	}

	endingHealth, err := env.engine.HealthFactor(borrower)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if endingHealth.Cmp(startingHealth) <= 0 {
		t.Fatalf("liquidation must improve health: %s -> %s", startingHealth, endingHealth)
	}
	if supply := env.debt.TotalSupply(); supply.Cmp(units(1_500)) != 0 {
		t.Fatalf("covered debt must be burned, supply %s", supply)
	}
}

func TestLiquidateRejectsHealthyPosition(t *testing.T) {
	env := newTestEnv(t)
	borrower, liquidator := setupUnsafePosition(t, env)

	// Price never dropped; the position is still exactly at the floor.
	if _, err := env.engine.Liquidate(liquidator, borrower, "WETH", units(100)); !errors.Is(err, ErrHealthFactorOK) {
		t.Fatalf("expected ErrHealthFactorOK, got %v", err)
	}
}

func TestLiquidateRequiresImprovement(t *testing.T) {
	env := newTestEnv(t)
	borrower, liquidator := setupUnsafePosition(t, env)

	// Deep underwater: a small cover burns more collateral value than debt
	// and makes the position worse, so the engine must refuse and roll back.
	env.setPrice(1_000)
	liquidatorTokens := env.debt.BalanceOf(liquidator)

	if _, err := env.engine.Liquidate(liquidator, borrower, "WETH", units(100)); !errors.Is(err, ErrHealthFactorNotImproved) {
		t.Fatalf("expected ErrHealthFactorNotImproved, got %v", err)
	}

	balance, err := env.engine.CollateralOf(borrower, "WETH")
	if err != nil {
		t.Fatalf("collateral of: %v", err)
	}
	if balance.Cmp(units(1)) != 0 {
		t.Fatalf("failed liquidation must restore collateral, got %s", balance)
	}
	debt, err := env.engine.DebtOf(borrower)
	if err != nil {
		t.Fatalf("debt of: %v", err)
	}
	if debt.Cmp(units(1_000)) != 0 {
		t.Fatalf("failed liquidation must restore debt, got %s", debt)
	}
	if held := env.debt.BalanceOf(liquidator); held.Cmp(liquidatorTokens) != 0 {
		t.Fatalf("failed liquidation must not move liquidator tokens, got %s", held)
	}
	if held := env.weth.BalanceOf(liquidator); held.Sign() != 0 {
		t.Fatalf("failed liquidation must not release collateral, got %s", held)
	}
}

func TestLiquidateRequiresSolventLiquidator(t *testing.T) {
	env := newTestEnv(t)
	borrower := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	// Both accounts open borderline positions at $2,000.
	env.setPrice(2_000)
	env.fund(t, borrower, units(1))
	if err := env.engine.DepositAndMint(borrower, "WETH", units(1), units(1_000)); err != nil {
		t.Fatalf("open borrower position: %v", err)
	}
	env.fund(t, liquidator, units(1))
	if err := env.engine.DepositAndMint(liquidator, "WETH", units(1), units(1_000)); err != nil {
		t.Fatalf("open liquidator position: %v", err)
	}
	env.debt.Approve(liquidator, env.engineAddr, units(1_000))

	// The drop makes both positions unsafe; an underwater liquidator may not
	// collect even though the borrower's health would improve.
	env.setPrice(1_800)
	if _, err := env.engine.Liquidate(liquidator, borrower, "WETH", units(500)); !errors.Is(err, ErrHealthFactorBroken) {
		t.Fatalf("expected ErrHealthFactorBroken, got %v", err)
	}

	balance, err := env.engine.CollateralOf(borrower, "WETH")
	if err != nil {
		t.Fatalf("collateral of: %v", err)
	}
	if balance.Cmp(units(1)) != 0 {
		t.Fatalf("refused liquidation must restore collateral, got %s", balance)
	}
	debt, err := env.engine.DebtOf(borrower)
	if err != nil {
		t.Fatalf("debt of: %v", err)
	}
	if debt.Cmp(units(1_000)) != 0 {
		t.Fatalf("refused liquidation must restore debt, got %s", debt)
	}
	if held := env.debt.BalanceOf(liquidator); held.Cmp(units(1_000)) != 0 {
		t.Fatalf("refused liquidation must not move debt tokens, got %s", held)
	}
	if held := env.weth.BalanceOf(liquidator); held.Sign() != 0 {
		t.Fatalf("refused liquidation must not release collateral, got %s", held)
	}
	if supply := env.debt.TotalSupply(); supply.Cmp(units(2_000)) != 0 {
		t.Fatalf("refused liquidation must not burn supply, got %s", supply)
	}
}

func TestLiquidateValidation(t *testing.T) {
	env := newTestEnv(t)
	borrower, liquidator := setupUnsafePosition(t, env)
	env.setPrice(1_800)

	if _, err := env.engine.Liquidate(liquidator, borrower, "WETH", big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := env.engine.Liquidate(liquidator, borrower, "DOGE", units(100)); !errors.Is(err, ErrAssetNotSupported) {
		t.Fatalf("expected ErrAssetNotSupported, got %v", err)
	}
}

func TestLiquidateFailsOnStaleFeed(t *testing.T) {
	env := newTestEnv(t)
	borrower, liquidator := setupUnsafePosition(t, env)

	// An observation older than the one-hour window freezes valuation.
	env.wethFeed.Set(big.NewInt(1_800_00000000), time.Now().Add(-2*time.Hour))
	if _, err := env.engine.Liquidate(liquidator, borrower, "WETH", units(100)); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
}
