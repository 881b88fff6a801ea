package volatility

import (
	"math/big"
	"testing"

	"github.com/arqnet/solarb/pkg/types"
)

func cpmmVariant(reserveA, reserveB int64) types.PoolVariant {
	return types.PoolVariant{
		Kind: types.VariantCPMM,
		CPMM: &types.CPMMState{
			ReserveA: big.NewInt(reserveA),
			ReserveB: big.NewInt(reserveB),
			FeeBps:   30,
		},
	}
}

func TestTrackerZeroUntilTwoReturns(t *testing.T) {
	tr := New()
	pool := types.PoolID("pool-1")

	tr.Observe(pool, cpmmVariant(1000, 2000))
	if got := tr.Volatility(pool); got != 0 {
		t.Fatalf("expected 0 volatility after first observation, got %v", got)
	}

	tr.Observe(pool, cpmmVariant(1000, 2100))
	if got := tr.Volatility(pool); got != 0 {
		t.Fatalf("expected 0 volatility after a single return, got %v", got)
	}
}

func TestTrackerReportsNonzeroVolatilityAfterMovement(t *testing.T) {
	tr := New()
	pool := types.PoolID("pool-2")

	prices := []int64{2000, 2100, 1900, 2200, 1800}
	for _, p := range prices {
		tr.Observe(pool, cpmmVariant(1000, p))
	}

	got := tr.Volatility(pool)
	if got <= 0 {
		t.Fatalf("expected positive volatility for a swinging price series, got %v", got)
	}
}

func TestTrackerStableSeriesHasLowVolatility(t *testing.T) {
	tr := New()
	pool := types.PoolID("pool-3")

	for i := 0; i < 10; i++ {
		tr.Observe(pool, cpmmVariant(1000, 2000))
	}

	if got := tr.Volatility(pool); got != 0 {
		t.Fatalf("expected 0 volatility for a perfectly stable price, got %v", got)
	}
}

func TestTrackerUnknownPoolReturnsZero(t *testing.T) {
	tr := New()
	if got := tr.Volatility(types.PoolID("pool-unknown")); got != 0 {
		t.Fatalf("expected 0 volatility for unobserved pool, got %v", got)
	}
}

func TestTrackerIgnoresVariantsWithoutReferencePrice(t *testing.T) {
	tr := New()
	pool := types.PoolID("pool-4")

	tr.Observe(pool, types.PoolVariant{Kind: types.VariantBondingCurve, BondingCurve: &types.BondingCurveState{VirtualBase: 1, VirtualQuote: 1}})
	tr.Observe(pool, types.PoolVariant{Kind: types.VariantBondingCurve, BondingCurve: &types.BondingCurveState{VirtualBase: 1, VirtualQuote: 1}})

	if got := tr.Volatility(pool); got != 0 {
		t.Fatalf("expected 0 volatility when no reference price is derivable, got %v", got)
	}
}

func TestTrackerWindowCapsHistory(t *testing.T) {
	tr := NewWithWindow(3)
	pool := types.PoolID("pool-5")

	for i := int64(0); i < 50; i++ {
		tr.Observe(pool, cpmmVariant(1000, 2000+i*100))
	}

	s := tr.series[pool]
	if len(s.returns) > 3 {
		t.Fatalf("expected window to cap returns at 3, got %d", len(s.returns))
	}
}
