package exec

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arqnet/solarb/internal/backoff"
	"github.com/arqnet/solarb/pkg/telemetry"
	"github.com/arqnet/solarb/pkg/types"
)

const maxRetries = 3

// BundleEndpoint submits a set of signed, serialized transactions to one
// bundle-priority lane (spec §4.5, §6).
type BundleEndpoint interface {
	SubmitBundle(ctx context.Context, txs [][]byte) (bundleID string, err error)
}

// FallbackSubmitter submits a single non-bundled transaction when every
// bundle endpoint has been exhausted (spec §4.5).
type FallbackSubmitter interface {
	SubmitTransaction(ctx context.Context, tx []byte) (signature string, err error)
}

// SignatureStatus is the terminal or pending state of a submitted
// transaction (spec §4.5, §6).
type SignatureStatus int

const (
	StatusUnknown SignatureStatus = iota
	StatusConfirmed
	StatusFinalized
	StatusFailed
)

// ConfirmationClient queries a submitted transaction's on-chain status.
type ConfirmationClient interface {
	SignatureStatus(ctx context.Context, signature string) (SignatureStatus, error)
}

// RiskRecorder receives the win/loss outcome of a confirmed dispatch so the
// capital scaler's rolling win rate and daily loss gate (spec §4.8) reflect
// real executions rather than only the opportunities the pipeline chose to
// attempt. Matches *risk.Scaler's RecordTrade/RecordLoss methods.
type RiskRecorder interface {
	RecordTrade(won bool)
	RecordLoss(lamports uint64)
}

// TransactionSigner serializes and signs one atomic instruction set into a
// wire-ready transaction. Signing/serialization is external to the core's
// contracts (spec §1): the engine only needs the resulting bytes.
type TransactionSigner interface {
	SignTransaction(ctx context.Context, ixs []Instruction) ([]byte, error)
}

// Outcome is the terminal result of one dispatch, reported to telemetry.
type Outcome string

const (
	OutcomeConfirmed    Outcome = "confirmed"
	OutcomeLandedFailed Outcome = "landed_failed"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeFallbackUsed Outcome = "fallback_used"
	OutcomeFailed       Outcome = "failed"
)

// confirmPollBudget and confirmPollInterval are vars (not consts) so tests
// can shrink them instead of sleeping through the real 60s/3s schedule.
var (
	confirmPollBudget   = 60 * time.Second
	confirmPollInterval = 3 * time.Second
)

// Engine is the execution engine: instruction assembly, round-robin bundle
// submission with per-endpoint retry and exponential backoff, fallback to
// direct submission, and detached confirmation polling (spec §4.5).
type Engine struct {
	assembler        *Assembler
	signer           TransactionSigner
	endpoints        []BundleEndpoint
	fallback         FallbackSubmitter
	confirmer        ConfirmationClient
	telemetry        telemetry.Port
	risk             RiskRecorder // optional
	cursor           atomic.Uint64
	dedupe           *lru.Cache[string, struct{}]
	endpointFailures []atomic.Uint64
	retryDelay       func(attempt int) time.Duration
}

// NewEngine wires an Engine. endpoints must contain at least one
// BundleEndpoint; fallback and confirmer may be nil only in tests that
// don't exercise those paths.
func NewEngine(assembler *Assembler, signer TransactionSigner, endpoints []BundleEndpoint, fallback FallbackSubmitter, confirmer ConfirmationClient, tel telemetry.Port) *Engine {
	dedupe, _ := lru.New[string, struct{}](1024)
	return &Engine{
		assembler:        assembler,
		signer:           signer,
		endpoints:        endpoints,
		fallback:         fallback,
		confirmer:        confirmer,
		telemetry:        tel,
		dedupe:           dedupe,
		endpointFailures: make([]atomic.Uint64, len(endpoints)),
		retryDelay:       backoff.DispatchRetryPolicy.Delay,
	}
}

// SetRiskRecorder installs the capital scaler (or a stub) that pollConfirmation
// reports win/loss outcomes to. Optional; a nil recorder (the default) means
// confirmation outcomes are reported to telemetry only.
func (e *Engine) SetRiskRecorder(r RiskRecorder) { e.risk = r }

// DispatchResult is what a successful (or fallback) submission returns
// before confirmation is known.
type DispatchResult struct {
	CorrelationID string
	Signature     string
	UsedFallback  bool
}

// Dispatch assembles, submits, and — on success — spawns a detached
// confirmation task for opp. It never blocks on confirmation (spec §9
// Design Notes: "the pipeline never blocks on confirmation").
func (e *Engine) Dispatch(ctx context.Context, opp types.ArbitrageOpportunity, tipLamports, minAmountOutFinal uint64) (*DispatchResult, *types.EngineError) {
	start := time.Now()
	correlationID := uuid.NewString()

	ixs, err := e.assembler.Assemble(ctx, opp, minAmountOutFinal)
	if err != nil {
		if ee, ok := err.(*types.EngineError); ok {
			return nil, ee
		}
		return nil, types.NewError(types.KindInfra, "exec.Dispatch", err)
	}

	tx, err := e.signer.SignTransaction(ctx, ixs)
	if err != nil {
		return nil, types.NewError(types.KindInfra, "exec.Dispatch", err)
	}

	sig, usedFallback, dispatchErr := e.submit(ctx, [][]byte{tx})
	if dispatchErr != nil {
		e.recordOutcome(OutcomeFailed, start)
		return nil, types.NewError(types.KindTerminal, "exec.Dispatch", dispatchErr)
	}
	if usedFallback {
		e.recordOutcome(OutcomeFallbackUsed, start)
	}

	result := &DispatchResult{CorrelationID: correlationID, Signature: sig, UsedFallback: usedFallback}

	if e.confirmer != nil {
		go e.pollConfirmation(sig, start, tipLamports)
	}
	return result, nil
}

// submit implements the bundle round-robin + retry + fallback state
// machine from spec §4.5's transition table. Rate-limit errors (matched by
// substring per spec §4.5) never short-circuit the retry schedule; they
// are retried like any other error and are not logged or counted
// separately.
func (e *Engine) submit(ctx context.Context, txs [][]byte) (signature string, usedFallback bool, err error) {
	n := len(e.endpoints)
	if n == 0 {
		return e.submitFallback(ctx, txs)
	}

	start := e.cursor.Add(1) - 1
	var lastErr error
	for attempt := 0; attempt < n; attempt++ {
		idx := int((start + uint64(attempt)) % uint64(n))
		endpoint := e.endpoints[idx]

		for k := 1; k <= maxRetries; k++ {
			bundleID, err := endpoint.SubmitBundle(ctx, txs)
			if err == nil {
				return bundleID, false, nil
			}
			lastErr = err
			isRateLimited(err) // result unused: nothing records rate-limited attempts
			if k < maxRetries {
				select {
				case <-ctx.Done():
					return "", false, ctx.Err()
				case <-time.After(e.retryDelay(k)):
				}
			}
		}
		e.endpointFailures[idx].Add(1)
	}

	sig, err := e.submitFallback(ctx, txs)
	if err != nil {
		if lastErr != nil {
			return "", false, lastErr
		}
		return "", false, err
	}
	return sig, true, nil
}

func (e *Engine) submitFallback(ctx context.Context, txs [][]byte) (string, error) {
	if e.fallback == nil || len(txs) == 0 {
		return "", types.ErrTerminal
	}
	return e.fallback.SubmitTransaction(ctx, txs[0])
}

// isRateLimited reports whether err's message matches the two
// rate-limiting markers spec §4.5 identifies by string.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "ResourceExhausted") || strings.Contains(msg, "rate limit")
}

// EndpointFailures reports the cumulative failure count for endpoint idx,
// for downstream health monitors (spec §4.5: "repeated endpoint failures
// trigger an endpoint-health counter").
func (e *Engine) EndpointFailures(idx int) uint64 {
	if idx < 0 || idx >= len(e.endpointFailures) {
		return 0
	}
	return e.endpointFailures[idx].Load()
}

// pollConfirmation polls signature status for up to 60s at 3s intervals
// and reports the terminal outcome to telemetry (spec §4.5). tipLamports is
// the fee paid regardless of outcome; it is attributed to the daily loss
// gate if the transaction lands failed.
func (e *Engine) pollConfirmation(signature string, start time.Time, tipLamports uint64) {
	if !e.claimConfirmation(signature) {
		return
	}
	deadline := time.Now().Add(confirmPollBudget)
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), confirmPollBudget)
	defer cancel()

	for {
		status, err := e.confirmer.SignatureStatus(ctx, signature)
		if err == nil {
			switch status {
			case StatusConfirmed, StatusFinalized:
				e.recordOutcome(OutcomeConfirmed, start)
				e.recordRisk(true)
				return
			case StatusFailed:
				// An on-chain failure after a successful submission is
				// recorded but never retried (spec §4.5: "the opportunity
				// is stale"); the tip is spent either way, so it's the
				// realized loss charged against the daily loss gate.
				e.recordOutcome(OutcomeLandedFailed, start)
				e.recordRisk(false)
				if e.risk != nil {
					e.risk.RecordLoss(tipLamports)
				}
				return
			}
		}
		if time.Now().After(deadline) {
			e.recordOutcome(OutcomeTimeout, start)
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			e.recordOutcome(OutcomeTimeout, start)
			return
		}
	}
}

// claimConfirmation dedupes concurrent confirmation tasks for the same
// signature (spec §9: confirmation dedupe set), returning false if this
// signature is already being polled.
func (e *Engine) claimConfirmation(signature string) bool {
	if e.dedupe == nil {
		return true
	}
	if e.dedupe.Contains(signature) {
		return false
	}
	e.dedupe.Add(signature, struct{}{})
	return true
}

func (e *Engine) recordRisk(won bool) {
	if e.risk != nil {
		e.risk.RecordTrade(won)
	}
}

func (e *Engine) recordOutcome(outcome Outcome, start time.Time) {
	if e.telemetry == nil {
		return
	}
	e.telemetry.RecordExecutionOutcome(string(outcome), time.Since(start).Seconds())
}
