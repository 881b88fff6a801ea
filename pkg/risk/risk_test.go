package risk

import "testing"

func recordWins(s *Scaler, wins, losses int) {
	for i := 0; i < wins; i++ {
		s.RecordTrade(true)
	}
	for i := 0; i < losses; i++ {
		s.RecordTrade(false)
	}
}

func TestStartsAtTier1(t *testing.T) {
	s := NewScaler()
	if s.Tier() != Tier1 {
		t.Fatalf("want Tier1, got %v", s.Tier())
	}
}

func TestPromotesTier1ToTier2At70PercentOver100Trades(t *testing.T) {
	s := NewScaler()
	recordWins(s, 70, 30) // exactly 100 trades, 70% win rate
	if s.Tier() != Tier2 {
		t.Fatalf("want promotion to Tier2, got %v", s.Tier())
	}
}

func TestDoesNotPromoteBelowTradeFloor(t *testing.T) {
	s := NewScaler()
	recordWins(s, 69, 10) // 79 trades, 87% win rate, still under the 100-trade floor
	if s.Tier() != Tier1 {
		t.Fatalf("want to stay at Tier1 until 100 trades, got %v", s.Tier())
	}
}

func TestDemotesToTier1BelowWinRateFloor(t *testing.T) {
	s := NewScaler()
	recordWins(s, 70, 30) // promotes to Tier2
	if s.Tier() != Tier2 {
		t.Fatalf("setup: expected Tier2, got %v", s.Tier())
	}
	recordWins(s, 0, 200) // crushes win rate well under 50%
	if s.Tier() != Tier1 {
		t.Fatalf("want demotion to Tier1, got %v", s.Tier())
	}
}

func TestCircuitBreakerTripsAfterFiveConsecutiveLosses(t *testing.T) {
	s := NewScaler()
	for i := 0; i < 4; i++ {
		s.RecordTrade(false)
	}
	if s.CircuitBreakerTripped() {
		t.Fatalf("breaker should not trip before 5 consecutive losses")
	}
	s.RecordTrade(false)
	if !s.CircuitBreakerTripped() {
		t.Fatalf("breaker should trip on the 5th consecutive loss")
	}
}

func TestWinResetsConsecutiveLossCounter(t *testing.T) {
	s := NewScaler()
	for i := 0; i < 4; i++ {
		s.RecordTrade(false)
	}
	s.RecordTrade(true)
	for i := 0; i < 4; i++ {
		s.RecordTrade(false)
	}
	if s.CircuitBreakerTripped() {
		t.Fatalf("a win should reset the consecutive-loss streak")
	}
}

func TestResetDailyClearsBreakerAndGates(t *testing.T) {
	s := NewScaler()
	for i := 0; i < 5; i++ {
		s.RecordTrade(false)
	}
	s.RecordDispatch(1000)
	s.ResetDaily()
	if s.CircuitBreakerTripped() {
		t.Fatalf("daily reset should clear the tripped breaker")
	}
	if !s.AllowDispatch(1, DailyLimits{MaxTrades: 1}) {
		t.Fatalf("daily reset should clear the trade count gate")
	}
}

func TestAllowDispatchRejectsOverMaxPosition(t *testing.T) {
	s := NewScaler()
	limit := Limits(Tier1).MaxPositionLamports
	if !s.AllowDispatch(limit, DailyLimits{}) {
		t.Fatalf("a position exactly at the tier max should be allowed")
	}
	if s.AllowDispatch(limit+1, DailyLimits{}) {
		t.Fatalf("a position over the tier max should be rejected")
	}
}

func TestAllowDispatchRejectsWhileBreakerTripped(t *testing.T) {
	s := NewScaler()
	for i := 0; i < 5; i++ {
		s.RecordTrade(false)
	}
	if s.AllowDispatch(1, DailyLimits{}) {
		t.Fatalf("dispatch should be blocked while the circuit breaker is tripped")
	}
}
