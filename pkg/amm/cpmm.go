// Package amm implements the pure pricing kernels for the four AMM
// invariant families the engine trades against: constant-product (CPMM),
// concentrated-liquidity (CLMM), discrete-bin (DLMM), and bonding-curve
// primary issuance.
//
// Every kernel is a total, deterministic, allocation-light function of its
// inputs: no network calls, no panics, saturating arithmetic wherever an
// overflow is reachable. They are the ground truth used by both the graph's
// quote dispatch and the opportunity validator.
package amm

import "math/big"

const (
	// BpsDenominator is the basis-point scale (1/10_000ths).
	BpsDenominator = 10_000

	maxU64 = ^uint64(0)
)

var bigMaxU64 = new(big.Int).SetUint64(maxU64)

// CPMMQuote prices a constant-product swap: out = (in*(1-fee)*resOut) /
// (resIn*10_000 + in*(1-fee)). Returns 0 if any reserve or the input amount
// is zero (spec §4.1, §8 boundary behavior). The result saturates at
// u64::MAX rather than overflow.
func CPMMQuote(amountIn, reserveIn, reserveOut uint64, feeBps uint16) uint64 {
	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0
	}
	if feeBps > BpsDenominator {
		feeBps = BpsDenominator
	}
	feeMul := new(big.Int).SetUint64(uint64(BpsDenominator - feeBps))

	inAdj := new(big.Int).SetUint64(amountIn)
	inAdj.Mul(inAdj, feeMul)

	numerator := new(big.Int).Mul(inAdj, new(big.Int).SetUint64(reserveOut))

	denom := new(big.Int).SetUint64(reserveIn)
	denom.Mul(denom, big.NewInt(BpsDenominator))
	denom.Add(denom, inAdj)
	if denom.Sign() == 0 {
		return 0
	}

	out := numerator.Div(numerator, denom)
	return saturateU64(out)
}

// CPMMReverseImpact is the single-hop price impact of a swap on the input
// side of a CPMM pool: amountIn / (reserveIn + amountIn). Returns 1.0 when
// reserveIn is zero (spec §4.1).
func CPMMReverseImpact(amountIn, reserveIn uint64) float64 {
	return PriceImpact(amountIn, reserveIn)
}

// PriceImpact is shared across variants for the "approximate reserve_in"
// impact check the cycle finder performs at every hop (spec §4.1, §4.3).
func PriceImpact(amountIn, reserveIn uint64) float64 {
	if reserveIn == 0 {
		return 1.0
	}
	in := float64(amountIn)
	return in / (float64(reserveIn) + in)
}

// saturateU64 clamps a non-negative big.Int to the u64 range.
func saturateU64(v *big.Int) uint64 {
	if v.Sign() <= 0 {
		return 0
	}
	if v.Cmp(bigMaxU64) >= 0 {
		return maxU64
	}
	return v.Uint64()
}
