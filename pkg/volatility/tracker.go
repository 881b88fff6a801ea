// Package volatility tracks per-pool price volatility from successive
// on-chain snapshots, for the opportunity pipeline's dynamic slippage gate
// (spec §4.4 step 6). It reuses the teacher's rolling-variance technique
// from its ZScore indicator, applied to a pool's reference price instead of
// a candle close.
package volatility

import (
	"math"
	"sync"

	"github.com/arqnet/solarb/pkg/amm"
	"github.com/arqnet/solarb/pkg/types"
)

const defaultWindow = 20

// Tracker maintains a rolling standard deviation of returns per pool. It
// implements pipeline.VolatilityPort.
type Tracker struct {
	mu     sync.Mutex
	window int
	series map[types.PoolID]*series
}

type series struct {
	lastPrice float64
	hasLast   bool
	returns   []float64
	sum       float64
	sumSq     float64
}

// New returns a Tracker using the default rolling window.
func New() *Tracker { return NewWithWindow(defaultWindow) }

// NewWithWindow returns a Tracker with the given rolling window size
// (number of returns retained per pool). Windows smaller than 2 fall back
// to the default.
func NewWithWindow(window int) *Tracker {
	if window < 2 {
		window = defaultWindow
	}
	return &Tracker{window: window, series: make(map[types.PoolID]*series)}
}

// Observe derives poolID's current reference price from variant and folds
// it into the rolling return series. Variants with no well-defined
// instantaneous price (amm.ReferencePrice's ok==false) are ignored.
func (t *Tracker) Observe(poolID types.PoolID, variant types.PoolVariant) {
	price, ok := amm.ReferencePrice(variant)
	if !ok || price <= 0 {
		return
	}
	t.observePrice(poolID, price)
}

func (t *Tracker) observePrice(poolID types.PoolID, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, found := t.series[poolID]
	if !found {
		s = &series{}
		t.series[poolID] = s
	}
	if !s.hasLast {
		s.lastPrice = price
		s.hasLast = true
		return
	}
	if s.lastPrice == 0 {
		s.lastPrice = price
		return
	}

	ret := (price - s.lastPrice) / s.lastPrice
	s.lastPrice = price

	s.sum += ret
	s.sumSq += ret * ret
	s.returns = append(s.returns, ret)
	if len(s.returns) > t.window {
		old := s.returns[0]
		s.returns = s.returns[1:]
		s.sum -= old
		s.sumSq -= old * old
	}
}

// Volatility returns the rolling standard deviation of poolID's recent
// returns — e.g. 0.01 means the tracked price has been moving about 1% per
// update — or 0 if fewer than two returns have been observed yet.
func (t *Tracker) Volatility(poolID types.PoolID) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.series[poolID]
	if !ok || len(s.returns) < 2 {
		return 0
	}
	n := float64(len(s.returns))
	mean := s.sum / n
	variance := math.Max(s.sumSq/n-mean*mean, 0)
	return math.Sqrt(variance)
}
