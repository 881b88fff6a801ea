package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromRejectOpportunityIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	p.RejectOpportunity("sanity")
	p.RejectOpportunity("sanity")
	p.RejectOpportunity("impact")

	if got := testutil.ToFloat64(p.rejections.WithLabelValues("sanity")); got != 2 {
		t.Errorf("want 2 sanity rejections, got %v", got)
	}
	if got := testutil.ToFloat64(p.rejections.WithLabelValues("impact")); got != 1 {
		t.Errorf("want 1 impact rejection, got %v", got)
	}
}

func TestPromTwoInstancesDoNotCollide(t *testing.T) {
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()
	_ = NewProm(regA)
	_ = NewProm(regB)
	// Two engines registering against independent registries must not panic
	// on duplicate collector registration.
}

func TestNoopSatisfiesPort(t *testing.T) {
	var p Port = Noop{}
	p.RejectOpportunity("x")
	p.RecordCycleSearch(0.01, true)
	p.RecordQuoteLatency("cpmm", 0.001)
	p.SetPoolCount(10)
	p.SetRiskTier(2)
	p.RecordExecutionOutcome("confirmed", 1.2)
}
