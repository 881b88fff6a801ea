// Package pipeline composes the opportunity validation steps described in
// spec §4.4: profit sanity, tip sizing against a tip-floor oracle, optional
// AI confidence gating, per-hop safety checks, dynamic slippage, and
// priority-fee sizing. It is wired from small single-method ports so every
// external collaborator is trivially stubbable in tests, mirroring the
// narrow-interface style of pkg/safety's Check chain.
package pipeline

import (
	"context"

	"github.com/arqnet/solarb/pkg/oracle"
	"github.com/arqnet/solarb/pkg/risk"
	"github.com/arqnet/solarb/pkg/telemetry"
	"github.com/arqnet/solarb/pkg/types"
)

// ConfidencePort is the optional AI/ML confidence gate (spec §4.4 step 4,
// §9: "the DNA / success-library subsystem... influences tipping and
// safety only through a confidence port").
type ConfidencePort interface {
	Confidence(ctx context.Context, opp types.ArbitrageOpportunity) (float64, error)
}

// VolatilityPort reports a pool's recent volatility factor, used to widen
// slippage tolerance on jumpy pools (spec §4.4 step 6).
type VolatilityPort interface {
	Volatility(poolID types.PoolID) float64
}

// SafetyPort is the per-hop safety gate (spec §4.4 step 5). Matches
// *safety.Validator's Evaluate method.
type SafetyPort interface {
	Evaluate(ctx context.Context, mint types.TokenID, poolID types.PoolID) types.SafetyVerdict
}

const confidenceThreshold = 0.8

// Config bundles a Pipeline's tunable parameters (spec §4.4).
type Config struct {
	TipPercentage         float64
	TipFloorLamports      uint64
	TipCeilingLamports    uint64
	MinNetProfitThreshold uint64

	BaseSlippageBps       uint32
	SlippageCeilingBps    uint32
	VolatilitySensitivity float64
	FallbackPriorityFee   oracle.PriorityFeeLevel

	DailyLimits risk.DailyLimits
}

// Dispatch is what a Pipeline hands to the Execution Engine once an
// opportunity clears every gate (spec §4.4 step 8).
type Dispatch struct {
	Opportunity          types.ArbitrageOpportunity
	TipLamports          uint64
	PriorityFee          oracle.PriorityFeeLevel
	EffectiveSlippageBps uint32
	MinAmountOutFinal    uint64
}

// Pipeline wires the capital scaler, optional confidence/volatility/oracle
// ports, the safety validator, and telemetry into the ordered gate chain
// spec §4.4 specifies.
type Pipeline struct {
	scaler    *risk.Scaler
	safety    SafetyPort
	telemetry telemetry.Port
	cfg       Config

	confidence  ConfidencePort // optional
	volatility  VolatilityPort // optional
	tipFloor    oracle.TipFloorOracle
	priorityFee oracle.PriorityFeeOracle
}

// New builds a Pipeline. confidence, volatility, tipFloor, and priorityFee
// may be nil; a nil confidence port means the confidence gate in step 4 is
// skipped (heuristic mode), a nil tip/priority-fee oracle falls back to the
// pipeline's own floor/ceiling and Config.FallbackPriorityFee.
func New(scaler *risk.Scaler, safety SafetyPort, tel telemetry.Port, cfg Config, confidence ConfidencePort, volatility VolatilityPort, tipFloor oracle.TipFloorOracle, priorityFee oracle.PriorityFeeOracle) *Pipeline {
	return &Pipeline{
		scaler:      scaler,
		safety:      safety,
		telemetry:   tel,
		cfg:         cfg,
		confidence:  confidence,
		volatility:  volatility,
		tipFloor:    tipFloor,
		priorityFee: priorityFee,
	}
}

// Process runs opp through every gate in spec §4.4 order and returns a
// Dispatch ready for the Execution Engine, or a *types.EngineError with
// Kind==KindReject describing which gate failed. Every rejection increments
// its named telemetry counter before returning.
func (p *Pipeline) Process(ctx context.Context, opp types.ArbitrageOpportunity) (*Dispatch, *types.EngineError) {
	// 1. Hard safety gate: position size vs the active capital-scaler tier,
	// the circuit breaker, and the per-day trade/volume/loss gates (spec
	// §4.8, §5). AllowDispatch is a pure check; it does not mutate counters.
	if !p.scaler.AllowDispatch(opp.InputAmount, p.cfg.DailyLimits) {
		return nil, p.reject("pipeline.Process", types.RejectRisk)
	}

	// 2. Profit sanity: >10% of input is treated as a stale-reserve
	// artifact, not a real opportunity (spec §4.3, §4.4 step 2, §8
	// scenario 6).
	if opp.ExpectedProfit > opp.InputAmount/10 {
		return nil, p.reject("pipeline.Process", types.RejectSanity)
	}

	// 3. Tip sizing.
	tip := clampU64(uint64(float64(opp.ExpectedProfit)*p.cfg.TipPercentage), p.cfg.TipFloorLamports, p.cfg.TipCeilingLamports)
	if p.tipFloor != nil {
		if floor, err := p.tipFloor.TipFloor(ctx); err == nil && floor > tip {
			tip = floor
		}
		// An oracle failure is Infra per spec §7, downgraded silently here:
		// the locally configured floor/ceiling still apply.
	}
	if tip >= opp.ExpectedProfit {
		return nil, p.reject("pipeline.Process", types.RejectSanity)
	}
	netProfit := opp.ExpectedProfit - tip
	if netProfit < p.cfg.MinNetProfitThreshold {
		return nil, p.reject("pipeline.Process", types.RejectSanity)
	}

	// 4. AI confidence (optional).
	if p.confidence != nil {
		score, err := p.confidence.Confidence(ctx, opp)
		if err != nil || score < confidenceThreshold {
			return nil, p.reject("pipeline.Process", types.RejectSanity)
		}
	}

	// 5. Per-hop safety: every non-anchor output mint must clear the
	// validator.
	anchor := opp.Anchor()
	for _, step := range opp.Steps {
		if step.OutputMint == anchor {
			continue
		}
		verdict := p.safety.Evaluate(ctx, step.OutputMint, step.PoolID)
		if !verdict.Safe {
			return nil, p.reject("pipeline.Process", types.RejectSafety)
		}
	}

	// 6. Dynamic slippage: widen tolerance by the worst volatility among
	// this path's pools, capped at the configured ceiling.
	effectiveSlippage := p.cfg.BaseSlippageBps
	if p.volatility != nil {
		var maxVol float64
		for _, step := range opp.Steps {
			if v := p.volatility.Volatility(step.PoolID); v > maxVol {
				maxVol = v
			}
		}
		if maxVol > 0 {
			adjusted := float64(p.cfg.BaseSlippageBps) * (1 + maxVol*p.cfg.VolatilitySensitivity)
			effectiveSlippage = uint32(adjusted)
			if effectiveSlippage > p.cfg.SlippageCeilingBps {
				effectiveSlippage = p.cfg.SlippageCeilingBps
			}
		}
	}
	minOut := uint64(float64(opp.InputAmount) * (1 - float64(effectiveSlippage)/10_000))

	// 7. Priority-fee sizing.
	level := p.cfg.FallbackPriorityFee
	if p.priorityFee != nil {
		if lvl, err := p.priorityFee.PriorityFee(ctx); err == nil {
			level = lvl
		}
	}

	// Daily trade-count/volume accrue at dispatch time, not at confirmation,
	// since AllowDispatch's gates are meant to bound *attempted* exposure
	// (spec §4.8); win/loss bookkeeping happens separately once the
	// execution engine learns the on-chain outcome (see pkg/exec.RiskRecorder).
	p.scaler.RecordDispatch(opp.InputAmount)

	return &Dispatch{
		Opportunity:          opp,
		TipLamports:          tip,
		PriorityFee:          level,
		EffectiveSlippageBps: effectiveSlippage,
		MinAmountOutFinal:    minOut,
	}, nil
}

func (p *Pipeline) reject(op string, reason types.RejectReason) *types.EngineError {
	if p.telemetry != nil {
		p.telemetry.RejectOpportunity(reason.String())
	}
	return types.NewReject(op, reason, nil)
}

func clampU64(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if hi != 0 && v > hi {
		return hi
	}
	return v
}
