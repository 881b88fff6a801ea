package confidence

import (
	"context"
	"math/rand"
	"testing"

	"github.com/arqnet/solarb/pkg/types"
)

func opp(profit, input uint64, hops int, feeBps, impactBps uint32) types.ArbitrageOpportunity {
	steps := make([]types.SwapStep, hops)
	return types.ArbitrageOpportunity{
		Steps:             steps,
		InputAmount:       input,
		ExpectedProfit:    profit,
		TotalFeesBps:      feeBps,
		MaxPriceImpactBps: impactBps,
	}
}

func TestModelPredictReturnsValidProbability(t *testing.T) {
	m := New(rand.New(rand.NewSource(42)))
	score, err := m.Confidence(context.Background(), opp(1000, 100000, 3, 90, 50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score < 0 || score > 1 {
		t.Fatalf("expected probability in [0,1], got %v", score)
	}
}

func TestModelDeterministicGivenSameSeed(t *testing.T) {
	o := opp(2000, 50000, 2, 60, 30)
	a := New(rand.New(rand.NewSource(7)))
	b := New(rand.New(rand.NewSource(7)))

	sa, _ := a.Confidence(context.Background(), o)
	sb, _ := b.Confidence(context.Background(), o)
	if sa != sb {
		t.Fatalf("expected identical seeds to produce identical scores, got %v vs %v", sa, sb)
	}
}

func TestModelFitMovesTowardLabels(t *testing.T) {
	m := New(rand.New(rand.NewSource(1)))

	positive := opp(5000, 100000, 2, 40, 20)
	negative := opp(10, 100000, 5, 300, 400)
	samples := []types.ArbitrageOpportunity{positive, negative}
	labels := []float64{1.0, 0.0}

	before, _ := m.Confidence(context.Background(), positive)
	m.Fit(samples, labels, 0.5, 500)
	after, _ := m.Confidence(context.Background(), positive)

	if after <= before {
		t.Fatalf("expected fitting toward label=1 to raise confidence on the positive sample: before=%v after=%v", before, after)
	}

	negScore, _ := m.Confidence(context.Background(), negative)
	if negScore >= after {
		t.Fatalf("expected the fitted model to separate positive/negative samples: negative=%v positive=%v", negScore, after)
	}
}

func TestModelPredictMismatchedFeatureLengthIsNeutral(t *testing.T) {
	m := &Model{W: []float64{1, 2}, B: 0}
	got := m.predict([]float64{1, 2, 3, 4})
	if got != 0.5 {
		t.Fatalf("expected neutral 0.5 for mismatched feature length, got %v", got)
	}
}

func TestModelFitIgnoresMismatchedLengths(t *testing.T) {
	m := New(rand.New(rand.NewSource(3)))
	before := append([]float64{}, m.W...)
	m.Fit([]types.ArbitrageOpportunity{opp(1, 1, 1, 1, 1)}, []float64{1, 0}, 0.1, 10)
	for i := range before {
		if before[i] != m.W[i] {
			t.Fatalf("expected Fit to no-op on mismatched sample/label lengths")
		}
	}
}
