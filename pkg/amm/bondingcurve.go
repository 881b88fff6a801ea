package amm

import "math/big"

// BondingCurveQuote prices a buy against a virtual-reserve primary-issuance
// curve: k = virtualBase*virtualQuote; newBase = virtualBase - amountIn;
// cost = k/newBase - virtualQuote (spec §4.1). Returns 0 when the curve has
// graduated (complete) or the requested amount would exhaust/overrun the
// virtual base reserve (spec §8 boundary: "fails" on a >= V_base).
func BondingCurveQuote(amountIn, virtualBase, virtualQuote uint64, complete bool) uint64 {
	if complete || amountIn == 0 || amountIn >= virtualBase {
		return 0
	}
	vBase := new(big.Int).SetUint64(virtualBase)
	vQuote := new(big.Int).SetUint64(virtualQuote)
	k := new(big.Int).Mul(vBase, vQuote)

	newBase := virtualBase - amountIn
	if newBase == 0 {
		return 0
	}
	cost := new(big.Int).Div(k, new(big.Int).SetUint64(newBase))
	cost.Sub(cost, vQuote)
	return saturateU64(cost)
}
