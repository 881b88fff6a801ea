package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Prom is a Port backed by client_golang. Unlike the teacher's package-level
// init()-registered metrics, every collector here is created and registered
// by NewProm against a caller-supplied registry, so more than one engine (e.g.
// in tests) can run in the same process without colliding on the default
// registry.
type Prom struct {
	rejections    *prometheus.CounterVec
	cycleSearches *prometheus.HistogramVec
	quoteLatency  *prometheus.HistogramVec
	poolCount     prometheus.Gauge
	riskTier      prometheus.Gauge
	execOutcomes  *prometheus.CounterVec
	execLatency   *prometheus.HistogramVec
}

var _ Port = (*Prom)(nil)

// NewProm builds and registers the engine's Prometheus collectors against
// reg. Pass prometheus.NewRegistry() in tests to avoid touching the global
// default registry.
func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arb_opportunities_rejected_total",
			Help: "Opportunities rejected by the pipeline, by reason.",
		}, []string{"reason"}),
		cycleSearches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arb_cycle_search_seconds",
			Help:    "Duration of one bounded-DFS cycle search.",
			Buckets: prometheus.DefBuckets,
		}, []string{"found"}),
		quoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arb_quote_seconds",
			Help:    "Duration of one AMM kernel dispatch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"variant"}),
		poolCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_pools_tracked",
			Help: "Number of pools currently tracked by the market graph.",
		}),
		riskTier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_risk_tier",
			Help: "Active capital-scaler tier (1-4).",
		}),
		execOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arb_execution_outcomes_total",
			Help: "Execution outcomes, by result.",
		}, []string{"outcome"}),
		execLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arb_execution_seconds",
			Help:    "Submission-to-confirmation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		p.rejections,
		p.cycleSearches,
		p.quoteLatency,
		p.poolCount,
		p.riskTier,
		p.execOutcomes,
		p.execLatency,
	)
	return p
}

func (p *Prom) RejectOpportunity(reason string) {
	p.rejections.WithLabelValues(reason).Inc()
}

func (p *Prom) RecordCycleSearch(seconds float64, found bool) {
	p.cycleSearches.WithLabelValues(boolLabel(found)).Observe(seconds)
}

func (p *Prom) RecordQuoteLatency(variant string, seconds float64) {
	p.quoteLatency.WithLabelValues(variant).Observe(seconds)
}

func (p *Prom) SetPoolCount(n int) {
	p.poolCount.Set(float64(n))
}

func (p *Prom) SetRiskTier(tier int) {
	p.riskTier.Set(float64(tier))
}

func (p *Prom) RecordExecutionOutcome(outcome string, seconds float64) {
	p.execOutcomes.WithLabelValues(outcome).Inc()
	p.execLatency.WithLabelValues(outcome).Observe(seconds)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
