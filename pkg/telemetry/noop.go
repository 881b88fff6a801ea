package telemetry

// Noop discards every observation. Used by tests and by embedders that
// don't want a metrics backend.
type Noop struct{}

var _ Port = Noop{}

func (Noop) RejectOpportunity(string)               {}
func (Noop) RecordCycleSearch(float64, bool)        {}
func (Noop) RecordQuoteLatency(string, float64)     {}
func (Noop) SetPoolCount(int)                       {}
func (Noop) SetRiskTier(int)                        {}
func (Noop) RecordExecutionOutcome(string, float64) {}
