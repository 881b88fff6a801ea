package amm

import "math/big"

// Numeric constants from the protocol's tick-math (spec §6). A CLMM swap
// built with sqrtPriceLimit == 0 substitutes MinSqrtPrice+1 for an A->B
// swap and MaxSqrtPrice-1 for B->A, so price moves as far as the pool
// allows without hitting either boundary.
var (
	MinSqrtPrice = mustBig("4295048016")
	MaxSqrtPrice = mustBig("79226673515401241271192636570")
)

// TicksPerArray is the number of ticks covered by one on-chain tick array.
const TicksPerArray = 88

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("amm: invalid constant " + s)
	}
	return v
}

// q64Shift is 2^64, the Q64.64 fixed-point scale for sqrt-price values.
var q64Shift = new(big.Int).Lsh(big.NewInt(1), 64)

// SqrtPriceLimitForDirection returns the default sqrt-price limit to use
// when a caller passes 0, oriented by swap direction (spec §6).
func SqrtPriceLimitForDirection(aToB bool) *big.Int {
	if aToB {
		return new(big.Int).Add(MinSqrtPrice, big.NewInt(1))
	}
	return new(big.Int).Sub(MaxSqrtPrice, big.NewInt(1))
}

// TickArrayStart returns the start index of the tick array covering tick T
// at the given tick spacing: floor(T / (88*s)) * (88*s) (spec §6, §8).
func TickArrayStart(tick int32, spacing uint16) int32 {
	span := int32(TicksPerArray) * int32(spacing)
	if span == 0 {
		return 0
	}
	q := tick / span
	if tick%span != 0 && (tick < 0) != (span < 0) {
		// Go's / truncates toward zero; floor-divide negative ticks down.
		q--
	}
	return q * span
}

// CLMMQuote prices a single-tick-range swap using the simplified model in
// spec §4.1: price p = (sqrtPriceQ64 / 2^64)^2. For A->B the fee-adjusted
// input amount is scaled by p; for B->A it is divided by p. Returns 0 when
// liquidity is zero (spec §8 boundary) or any input is zero. Monotonic
// non-decreasing in amountIn and non-increasing in feeBps, as required by
// spec §4.1 (the contract implementations may replace this with a
// tick-walking variant so long as that contract holds).
func CLMMQuote(amountIn uint64, sqrtPriceQ64, liquidity *big.Int, feeBps uint16, aToB bool) uint64 {
	if amountIn == 0 || liquidity == nil || liquidity.Sign() == 0 || sqrtPriceQ64 == nil || sqrtPriceQ64.Sign() <= 0 {
		return 0
	}
	if feeBps > BpsDenominator {
		feeBps = BpsDenominator
	}

	// price = (sqrtPrice/2^64)^2, computed as a rational p_num/p_den to
	// avoid floating point on the hot path.
	pNum := new(big.Int).Mul(sqrtPriceQ64, sqrtPriceQ64)
	pDen := new(big.Int).Mul(q64Shift, q64Shift)

	feeAdjIn := new(big.Int).SetUint64(amountIn)
	feeAdjIn.Mul(feeAdjIn, big.NewInt(int64(BpsDenominator-feeBps)))
	// feeAdjIn is now amountIn * (10000 - feeBps); divide by 10000 below
	// fused into the final division to retain precision.

	var num, den *big.Int
	if aToB {
		num = new(big.Int).Mul(feeAdjIn, pNum)
		den = new(big.Int).Mul(pDen, big.NewInt(BpsDenominator))
	} else {
		num = new(big.Int).Mul(feeAdjIn, pDen)
		den = new(big.Int).Mul(pNum, big.NewInt(BpsDenominator))
	}
	if den.Sign() == 0 {
		return 0
	}
	out := new(big.Int).Div(num, den)
	return saturateU64(out)
}

// SqrtPriceToFloat returns (sqrtPriceQ64/2^64)^2 as a float64, for
// volatility/impact estimates that don't need exact integer arithmetic.
func SqrtPriceToFloat(sqrtPriceQ64 *big.Int) float64 {
	if sqrtPriceQ64 == nil {
		return 0
	}
	ratio := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceQ64), new(big.Float).SetInt(q64Shift))
	f, _ := ratio.Float64()
	return f * f
}
