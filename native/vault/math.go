package vault

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	// precision is the engine's internal 18-decimal fixed-point scale. All
	// USD values and health factors are expressed against it.
	precision = mustBigInt("1000000000000000000")

	// MinHealthFactor is the safety floor: 1.0 in 18-decimal fixed point.
	MinHealthFactor = mustBigInt("1000000000000000000")
	// MaxHealthFactor is the sentinel health factor reported for positions
	// with zero debt.
	MaxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// mulDiv computes a*b/den with the multiplication performed first. Multiply
// before divide keeps truncation to a single final step.
func mulDiv(a, b, den *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, den)
}

// bpsShare computes amount*bps/10000.
func bpsShare(amount *big.Int, bps uint64) *big.Int {
	return mulDiv(amount, new(big.Int).SetUint64(bps), basisPoints)
}
