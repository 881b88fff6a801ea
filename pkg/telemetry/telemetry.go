// Package telemetry defines the engine's observability port and a
// Prometheus-backed implementation. Components depend on the interface,
// never on Prometheus directly, so tests can wire a no-op and multiple
// engines in the same process can each own a private registry.
package telemetry

// Port is the observability surface every core component is wired against.
// Implementations must be safe for concurrent use.
type Port interface {
	// RejectOpportunity increments the rejection counter for a reason
	// surfaced by the pipeline (sanity, impact, safety, slippage, rug).
	RejectOpportunity(reason string)

	// RecordCycleSearch observes a cycle-search duration, in seconds, and
	// whether it found a candidate.
	RecordCycleSearch(seconds float64, found bool)

	// RecordQuoteLatency observes one kernel dispatch's duration in seconds.
	RecordQuoteLatency(variant string, seconds float64)

	// SetPoolCount reports the current number of tracked pools.
	SetPoolCount(n int)

	// SetRiskTier reports the active capital-scaler tier (1-4).
	SetRiskTier(tier int)

	// RecordExecutionOutcome increments the execution outcome counter
	// (confirmed, landed_failed, timeout, fallback_used, failed) and observes the
	// end-to-end submission-to-confirmation latency in seconds.
	RecordExecutionOutcome(outcome string, seconds float64)
}
