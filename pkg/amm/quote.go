package amm

import (
	"math/big"

	"github.com/arqnet/solarb/pkg/types"
)

// Quote dispatches a swap to the kernel matching the pool variant's tag,
// honoring directionality: aToB is true when the swap direction matches
// how the variant's reserves/price were oriented when stored on the edge
// (spec §4.2: "only the matching kernel is invoked").
func Quote(v types.PoolVariant, amountIn uint64, aToB bool) uint64 {
	switch v.Kind {
	case types.VariantCPMM:
		if v.CPMM == nil {
			return 0
		}
		resIn, resOut := v.CPMM.ReserveA, v.CPMM.ReserveB
		if !aToB {
			resIn, resOut = resOut, resIn
		}
		return CPMMQuote(amountIn, bigToU64(resIn), bigToU64(resOut), v.CPMM.FeeBps)
	case types.VariantCLMM:
		if v.CLMM == nil {
			return 0
		}
		return CLMMQuote(amountIn, v.CLMM.SqrtPriceQ64, v.CLMM.Liquidity, v.CLMM.FeeBps, aToB)
	case types.VariantDLMM:
		if v.DLMM == nil {
			return 0
		}
		return DLMMQuote(amountIn, v.DLMM.ActiveBinID, v.DLMM.BinStepBps, v.DLMM.BaseFeeBps, aToB)
	case types.VariantBondingCurve:
		if v.BondingCurve == nil || !aToB {
			// Bonding curves graduate into a CPMM pool; quoting the sell
			// side (token -> base) against virtual reserves is out of
			// scope for the core (spec §4.1 defines only the buy quote).
			return 0
		}
		return BondingCurveQuote(amountIn, v.BondingCurve.VirtualBase, v.BondingCurve.VirtualQuote, v.BondingCurve.Complete)
	default:
		return 0
	}
}

// ApproxReserveIn returns the reserve figure the cycle finder uses for its
// approximate price-impact check at this hop (spec §4.3). CLMM pools
// don't expose a literal reserve, so their active liquidity stands in for
// it; DLMM pools carry no reserve figure at all and report maxU64, which
// makes their hops read as zero impact.
func ApproxReserveIn(v types.PoolVariant, aToB bool) uint64 {
	switch v.Kind {
	case types.VariantCPMM:
		if v.CPMM == nil {
			return 0
		}
		if aToB {
			return bigToU64(v.CPMM.ReserveA)
		}
		return bigToU64(v.CPMM.ReserveB)
	case types.VariantCLMM:
		if v.CLMM == nil {
			return 0
		}
		return bigToU64(v.CLMM.Liquidity)
	case types.VariantDLMM:
		// No reserve figure is carried on a DLMM bin snapshot; treat it as
		// unbounded so the impact check defers to the CPMM/CLMM legs of a
		// mixed path. Returning 0 would make every DLMM hop read as 100%
		// impact, which is wrong for a deep bin.
		return maxU64
	case types.VariantBondingCurve:
		if v.BondingCurve == nil {
			return 0
		}
		return v.BondingCurve.VirtualBase
	default:
		return 0
	}
}

// FeeBps returns the fee rate charged by a pool variant, for per-path fee
// accumulation in the cycle finder (spec §4.3: "total_fees_bps = Σ
// pool.fee_bps"). Bonding-curve pools charge no explicit fee; the virtual
// reserves already embed the curve's spread.
func FeeBps(v types.PoolVariant) uint32 {
	switch v.Kind {
	case types.VariantCPMM:
		if v.CPMM == nil {
			return 0
		}
		return uint32(v.CPMM.FeeBps)
	case types.VariantCLMM:
		if v.CLMM == nil {
			return 0
		}
		return uint32(v.CLMM.FeeBps)
	case types.VariantDLMM:
		if v.DLMM == nil {
			return 0
		}
		return uint32(v.DLMM.BaseFeeBps)
	default:
		return 0
	}
}

// ReferencePrice returns a pool's current quote-per-base price as a
// float64, for consumers that need a comparable price series rather than a
// swap quote (e.g. a volatility tracker). ok is false for variants with no
// well-defined instantaneous price (an incomplete bonding curve's price
// moves with trade size, not a stored field).
func ReferencePrice(v types.PoolVariant) (price float64, ok bool) {
	switch v.Kind {
	case types.VariantCPMM:
		if v.CPMM == nil || v.CPMM.ReserveA.Sign() == 0 {
			return 0, false
		}
		ratio := new(big.Float).Quo(new(big.Float).SetInt(v.CPMM.ReserveB), new(big.Float).SetInt(v.CPMM.ReserveA))
		f, _ := ratio.Float64()
		return f, true
	case types.VariantCLMM:
		if v.CLMM == nil {
			return 0, false
		}
		return SqrtPriceToFloat(v.CLMM.SqrtPriceQ64), true
	case types.VariantDLMM:
		if v.DLMM == nil {
			return 0, false
		}
		return binPrice(v.DLMM.ActiveBinID, v.DLMM.BinStepBps), true
	default:
		return 0, false
	}
}

func bigToU64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	return saturateU64(v)
}
