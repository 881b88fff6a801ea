package amm

import "math"

// DLMMQuote prices a swap against the active bin of a discrete-bin pool.
// Active price = (1 + binStepBps/10_000)^activeBinID; the fee-adjusted
// input is multiplied by price for an A->B swap and divided by price for
// B->A (spec §4.1). Full bin-traversal across liquidity boundaries is an
// allowed refinement the spec leaves open; this single-bin model keeps the
// monotonicity contract spec §4.1 requires.
func DLMMQuote(amountIn uint64, activeBinID int32, binStepBps, baseFeeBps uint16, aToB bool) uint64 {
	if amountIn == 0 {
		return 0
	}
	if baseFeeBps > BpsDenominator {
		baseFeeBps = BpsDenominator
	}
	price := binPrice(activeBinID, binStepBps)
	if price <= 0 {
		return 0
	}

	feeAdj := float64(amountIn) * float64(BpsDenominator-baseFeeBps) / BpsDenominator
	var out float64
	if aToB {
		out = feeAdj * price
	} else {
		out = feeAdj / price
	}
	if out <= 0 || math.IsInf(out, 0) || math.IsNaN(out) {
		return 0
	}
	return floatToSaturatedU64(out)
}

// binPrice computes (1 + binStepBps/10_000)^activeBinID.
func binPrice(activeBinID int32, binStepBps uint16) float64 {
	step := 1.0 + float64(binStepBps)/BpsDenominator
	return math.Pow(step, float64(activeBinID))
}

func floatToSaturatedU64(f float64) uint64 {
	if f <= 0 {
		return 0
	}
	if f >= float64(maxU64) {
		return maxU64
	}
	return uint64(f)
}
