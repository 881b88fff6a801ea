package exec

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arqnet/solarb/pkg/telemetry"
	"github.com/arqnet/solarb/pkg/types"
)

type stubBuilder struct{}

func (stubBuilder) BuildSwap(step types.SwapStep, amountIn, minAmountOut uint64) (Instruction, error) {
	return Instruction{ProgramID: step.ProgramID, Data: []byte{byte(amountIn), byte(minAmountOut)}}, nil
}

type stubSigner struct{}

func (stubSigner) SignTransaction(ctx context.Context, ixs []Instruction) ([]byte, error) {
	return []byte{byte(len(ixs))}, nil
}

type flakyEndpoint struct {
	failTimes int
	calls     atomic.Int64
}

func (f *flakyEndpoint) SubmitBundle(ctx context.Context, txs [][]byte) (string, error) {
	n := f.calls.Add(1)
	if int(n) <= f.failTimes {
		return "", errors.New("unavailable")
	}
	return "bundle-ok", nil
}

type alwaysFailEndpoint struct{ calls atomic.Int64 }

func (a *alwaysFailEndpoint) SubmitBundle(ctx context.Context, txs [][]byte) (string, error) {
	a.calls.Add(1)
	return "", errors.New("down")
}

type stubFallback struct{ called atomic.Bool }

func (s *stubFallback) SubmitTransaction(ctx context.Context, tx []byte) (string, error) {
	s.called.Store(true)
	return "fallback-sig", nil
}

func opportunity() types.ArbitrageOpportunity {
	var a, b types.TokenID
	a[0], b[0] = 1, 2
	return types.ArbitrageOpportunity{
		Steps: []types.SwapStep{
			{PoolID: "p1", ProgramID: "raydium", InputMint: a, OutputMint: b, ExpectedOutput: 100},
			{PoolID: "p2", ProgramID: "raydium", InputMint: b, OutputMint: a, ExpectedOutput: 110},
		},
		InputAmount:    100,
		ExpectedProfit: 10,
	}
}

func newAssembler() *Assembler {
	return NewAssembler(BuilderRegistry{"raydium": stubBuilder{}}, nil, nil)
}

func TestDispatchSucceedsOnFirstEndpoint(t *testing.T) {
	ep := &flakyEndpoint{}
	e := NewEngine(newAssembler(), stubSigner{}, []BundleEndpoint{ep}, nil, nil, telemetry.Noop{})
	res, rej := e.Dispatch(context.Background(), opportunity(), 5, 95)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if res.UsedFallback {
		t.Fatal("should not have used fallback")
	}
}

func TestDispatchRetriesThenFallback(t *testing.T) {
	ep := &alwaysFailEndpoint{}
	fb := &stubFallback{}
	e := NewEngine(newAssembler(), stubSigner{}, []BundleEndpoint{ep}, fb, nil, telemetry.Noop{})
	e.retryDelay = func(int) time.Duration { return time.Millisecond }

	res, rej := e.Dispatch(context.Background(), opportunity(), 5, 95)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if !res.UsedFallback {
		t.Fatal("expected fallback to be used")
	}
	if !fb.called.Load() {
		t.Fatal("fallback was not invoked")
	}
	if ep.calls.Load() != maxRetries {
		t.Fatalf("endpoint called %d times, want %d", ep.calls.Load(), maxRetries)
	}
}

func TestRoundRobinDistribution(t *testing.T) {
	eps := make([]BundleEndpoint, 3)
	counters := make([]*flakyEndpoint, 3)
	for i := range eps {
		fe := &flakyEndpoint{}
		counters[i] = fe
		eps[i] = fe
	}
	e := NewEngine(newAssembler(), stubSigner{}, eps, nil, nil, telemetry.Noop{})

	// k*N dispatches should select each endpoint exactly k times (spec §8).
	const k = 4
	for i := 0; i < k*len(eps); i++ {
		if _, rej := e.Dispatch(context.Background(), opportunity(), 5, 95); rej != nil {
			t.Fatalf("dispatch %d: %v", i, rej)
		}
	}
	for i, c := range counters {
		if got := c.calls.Load(); got != k {
			t.Errorf("endpoint %d called %d times, want %d", i, got, k)
		}
	}
}

func TestAssembleRejectsOutOfRangeHopCount(t *testing.T) {
	a := newAssembler()
	opp := opportunity()
	opp.Steps = opp.Steps[:1]
	if _, err := a.Assemble(context.Background(), opp, 0); err == nil {
		t.Fatal("expected error for single-hop opportunity")
	}
}

func TestEndpointFailuresTracked(t *testing.T) {
	ep := &alwaysFailEndpoint{}
	fb := &stubFallback{}
	e := NewEngine(newAssembler(), stubSigner{}, []BundleEndpoint{ep}, fb, nil, telemetry.Noop{})
	if _, rej := e.Dispatch(context.Background(), opportunity(), 5, 95); rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if e.EndpointFailures(0) != 1 {
		t.Fatalf("EndpointFailures(0) = %d, want 1", e.EndpointFailures(0))
	}
}
