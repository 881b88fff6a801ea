// Package risk implements the capital scaler's tiered position sizing and
// the risk-gate counters that guard dispatch (spec §4.8).
package risk

import "sync/atomic"

// Tier is one of the four capital-scaler tiers.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
)

// TierLimits bundles a tier's max position size and daily target, both in
// lamports.
type TierLimits struct {
	MaxPositionLamports uint64
	DailyTargetLamports uint64
}

// tierTable is the fixed tier ladder from spec §4.8 (0.01/0.05/0.10/0.50
// SOL max position; 0.005/0.025/0.050/0.250 SOL daily target, at
// 1e9 lamports per SOL).
var tierTable = map[Tier]TierLimits{
	Tier1: {MaxPositionLamports: 10_000_000, DailyTargetLamports: 5_000_000},
	Tier2: {MaxPositionLamports: 50_000_000, DailyTargetLamports: 25_000_000},
	Tier3: {MaxPositionLamports: 100_000_000, DailyTargetLamports: 50_000_000},
	Tier4: {MaxPositionLamports: 500_000_000, DailyTargetLamports: 250_000_000},
}

// Limits returns the max-position/daily-target pair for t.
func Limits(t Tier) TierLimits { return tierTable[t] }

// promotionRule names the trade-count floor and win-rate bar a tier must
// clear to promote to the next tier.
type promotionRule struct {
	minTrades  uint64
	minWinRate float64
}

var promotionRules = map[Tier]promotionRule{
	Tier1: {minTrades: 100, minWinRate: 0.70},
	Tier2: {minTrades: 200, minWinRate: 0.70},
	Tier3: {minTrades: 500, minWinRate: 0.75},
}

const demotionWinRateFloor = 0.50
const maxConsecutiveLosses = 5

// Scaler tracks the active tier and the rolling win-rate counters that
// drive promotion/demotion hysteresis. All counters are lock-free atomics
// (spec §5).
type Scaler struct {
	tier         atomic.Int64
	wins         atomic.Uint64
	losses       atomic.Uint64
	consecLosses atomic.Uint64
	tripped      atomic.Bool
	dayTrades    atomic.Uint64
	dayVolume    atomic.Uint64
	dayLoss      atomic.Uint64
}

// NewScaler starts a scaler at Tier1 with clean counters.
func NewScaler() *Scaler {
	s := &Scaler{}
	s.tier.Store(int64(Tier1))
	return s
}

// Tier returns the currently active tier.
func (s *Scaler) Tier() Tier { return Tier(s.tier.Load()) }

// totalTrades is wins+losses, the sample size promotion/demotion rules key
// off of.
func (s *Scaler) totalTrades() uint64 { return s.wins.Load() + s.losses.Load() }

func (s *Scaler) winRate() float64 {
	total := s.totalTrades()
	if total == 0 {
		return 0
	}
	return float64(s.wins.Load()) / float64(total)
}

// RecordTrade updates the win/loss counters and the circuit breaker's
// consecutive-loss count, then re-evaluates tier hysteresis. The tier is
// re-evaluated after every trade, including one that trips the breaker
// (5 consecutive losses).
func (s *Scaler) RecordTrade(won bool) {
	if won {
		s.wins.Add(1)
		s.consecLosses.Store(0)
	} else {
		s.losses.Add(1)
		if s.consecLosses.Add(1) >= maxConsecutiveLosses {
			s.tripped.Store(true)
		}
	}
	s.reevaluateTier()
}

func (s *Scaler) reevaluateTier() {
	current := s.Tier()
	rate := s.winRate()
	total := s.totalTrades()

	if current > Tier1 && rate < demotionWinRateFloor {
		s.tier.Store(int64(Tier1))
		return
	}
	if current == Tier4 {
		return
	}
	rule, ok := promotionRules[current]
	if !ok {
		return
	}
	if total >= rule.minTrades && rate >= rule.minWinRate {
		s.tier.Store(int64(current + 1))
	}
}

// CircuitBreakerTripped reports whether the breaker is currently open.
func (s *Scaler) CircuitBreakerTripped() bool { return s.tripped.Load() }

// ResetDaily clears the circuit breaker and the per-day gate counters. It
// does not reset win/loss history, which drives the rolling tier
// hysteresis rather than a daily window (spec §4.8).
func (s *Scaler) ResetDaily() {
	s.tripped.Store(false)
	s.consecLosses.Store(0)
	s.dayTrades.Store(0)
	s.dayVolume.Store(0)
	s.dayLoss.Store(0)
}

// DailyLimits bounds the per-day gates a dispatch must clear.
type DailyLimits struct {
	MaxTrades uint64
	MaxVolume uint64
	MaxLoss   uint64
}

// AllowDispatch applies the risk gates from spec §5 (per-day trade count,
// daily volume, daily loss, per-trade position) ahead of a dispatch of
// positionLamports. It does not mutate counters; callers record the
// dispatch via RecordDispatch and the resolved outcome via RecordTrade.
func (s *Scaler) AllowDispatch(positionLamports uint64, limits DailyLimits) bool {
	if s.tripped.Load() {
		return false
	}
	if positionLamports > Limits(s.Tier()).MaxPositionLamports {
		return false
	}
	if limits.MaxTrades != 0 && s.dayTrades.Load() >= limits.MaxTrades {
		return false
	}
	if limits.MaxVolume != 0 && s.dayVolume.Load()+positionLamports > limits.MaxVolume {
		return false
	}
	if limits.MaxLoss != 0 && s.dayLoss.Load() >= limits.MaxLoss {
		return false
	}
	return true
}

// RecordDispatch tracks a dispatched trade's contribution to the daily
// volume and trade-count gates.
func (s *Scaler) RecordDispatch(positionLamports uint64) {
	s.dayTrades.Add(1)
	s.dayVolume.Add(positionLamports)
}

// RecordLoss tracks a realized loss's contribution to the daily loss gate.
func (s *Scaler) RecordLoss(lamports uint64) {
	s.dayLoss.Add(lamports)
}
