// Package confidence implements the optional AI confidence gate the
// pipeline consults before dispatching an opportunity (spec §4.4 step 4,
// §9). It carries over the teacher's micro logistic-regression model
// (model.go's AIMicroModel) unchanged in structure, re-targeted at
// arbitrage-opportunity features instead of candle-derived technical
// indicators.
package confidence

import (
	"context"
	"math"
	"math/rand"

	"github.com/arqnet/solarb/pkg/types"
)

const featureCount = 4

// Model is a tiny logistic-regression classifier scoring an opportunity's
// likelihood of executing as quoted. Mirrors the teacher's AIMicroModel:
// a weight vector, a bias, sigmoid output.
type Model struct {
	W []float64 // weights, aligned with extractFeatures' order
	B float64   // bias
}

// New returns a Model with small random weights, matching the teacher's
// newModel() initialization (rand.NormFloat64 scaled to keep the initial
// decision boundary close to linear-neutral).
func New(rng *rand.Rand) *Model {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	w := make([]float64, featureCount)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.01
	}
	return &Model{W: w}
}

// sigmoid returns 1/(1+e^-x), clamped for numerical stability.
func sigmoid(x float64) float64 {
	if x > 20 {
		return 1
	}
	if x < -20 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

// predict expects exactly len(W) features; a mismatched length (a model
// trained on a different feature set) returns the neutral 0.5.
func (m *Model) predict(features []float64) float64 {
	if len(features) != len(m.W) {
		return 0.5
	}
	z := m.B
	for i := range features {
		z += m.W[i] * features[i]
	}
	return sigmoid(z)
}

// Fit performs gradient-descent steps on cross-entropy loss over a labeled
// batch of opportunities. label is 1.0 when the opportunity is known to
// have executed profitably, 0.0 otherwise.
func (m *Model) Fit(samples []types.ArbitrageOpportunity, labels []float64, lr float64, epochs int) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return
	}
	feats := make([][]float64, len(samples))
	for i, s := range samples {
		feats[i] = extractFeatures(s)
	}
	for e := 0; e < epochs; e++ {
		for i := range feats {
			p := m.predict(feats[i])
			grad := p - labels[i]
			for j := range m.W {
				m.W[j] -= lr * grad * feats[i][j]
			}
			m.B -= lr * grad
		}
	}
}

// extractFeatures derives a fixed feature vector from an opportunity:
// profit ratio, hop count, total fee rate, and price impact, each scaled
// to a roughly comparable range. This replaces the teacher's
// candle-derived ret1/ret5/rsi/zscore feature set (buildDataset in
// model.go) with the signals the arbitrage pipeline actually has at
// decision time.
func extractFeatures(opp types.ArbitrageOpportunity) []float64 {
	var profitRatio float64
	if opp.InputAmount > 0 {
		profitRatio = float64(opp.ExpectedProfit) / float64(opp.InputAmount)
	}
	hops := float64(opp.HopCount())
	feeRate := float64(opp.TotalFeesBps) / 10_000
	impact := float64(opp.MaxPriceImpactBps) / 10_000
	return []float64{profitRatio, hops, feeRate, impact}
}

// Confidence implements pipeline.ConfidencePort.
func (m *Model) Confidence(_ context.Context, opp types.ArbitrageOpportunity) (float64, error) {
	return m.predict(extractFeatures(opp)), nil
}
