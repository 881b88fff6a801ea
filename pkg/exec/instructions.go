// Package exec assembles the atomic multi-hop instruction set for a
// dispatched opportunity and submits it through the bundle-priority path
// with a round-robin/retry schedule, falling back to direct submission,
// then polls for confirmation (spec §4.5).
package exec

import (
	"context"
	"fmt"

	"github.com/arqnet/solarb/pkg/types"
)

// Instruction is the engine's abstract view of one on-chain instruction.
// The core never encodes a DEX's actual wire format; that is the
// SwapInstructionBuilder boundary's job (spec §1: "the core consumes an
// abstract SwapInstructionBuilder capability").
type Instruction struct {
	ProgramID types.ProgramID
	Accounts  []string
	Data      []byte
}

// SwapInstructionBuilder builds the native swap instruction for one hop of
// one DEX family. amountIn is the running current_amount tracked across
// steps; minAmountOut is nonzero only on the final leg (spec §4.5).
type SwapInstructionBuilder interface {
	BuildSwap(step types.SwapStep, amountIn, minAmountOut uint64) (Instruction, error)
}

// BuilderRegistry resolves a step's ProgramID to the builder for that DEX
// family.
type BuilderRegistry map[types.ProgramID]SwapInstructionBuilder

// TokenAccountOpener ensures an ephemeral token account exists for a mint
// the wallet doesn't already hold, idempotently (spec §4.5).
type TokenAccountOpener interface {
	EnsureAccount(ctx context.Context, mint types.TokenID) (ix Instruction, created bool, err error)
}

// FlashLoanWrapper optionally wraps an assembled instruction set in a
// borrow/repay pair so a cycle can be financed beyond wallet capital. Off
// by default; installing one never changes behavior for callers that don't
// (SPEC_FULL §6.5, grounded on executor/src/flash_loan.rs).
type FlashLoanWrapper interface {
	Wrap(ixs []Instruction, opp types.ArbitrageOpportunity) ([]Instruction, error)
}

// Assembler builds the full atomic instruction set for one opportunity.
type Assembler struct {
	Builders  BuilderRegistry
	Opener    TokenAccountOpener // optional
	FlashLoan FlashLoanWrapper   // optional
}

// NewAssembler wires a builder registry with optional account-opener and
// flash-loan decorator ports.
func NewAssembler(builders BuilderRegistry, opener TokenAccountOpener, flashLoan FlashLoanWrapper) *Assembler {
	return &Assembler{Builders: builders, Opener: opener, FlashLoan: flashLoan}
}

// Assemble builds one instruction per hop plus any ephemeral account-open
// instructions, in order, ready for signing into a single atomic
// transaction/bundle. current_amount starts at opp.InputAmount and is
// updated to each hop's expected_output before building the next
// instruction, per spec §4.5. minAmountOutFinal applies only to the last
// hop; every other hop passes zero so the bundle doesn't self-abort on
// pass-through values (spec §4.4 step 6).
func (a *Assembler) Assemble(ctx context.Context, opp types.ArbitrageOpportunity, minAmountOutFinal uint64) ([]Instruction, error) {
	if len(opp.Steps) < 2 || len(opp.Steps) > 5 {
		return nil, types.NewError(types.KindArithmetic, "exec.Assemble", fmt.Errorf("invalid hop count %d", len(opp.Steps)))
	}

	var out []Instruction
	opened := make(map[types.TokenID]bool)

	if a.Opener != nil {
		for _, step := range opp.Steps {
			if opened[step.OutputMint] {
				continue
			}
			ix, created, err := a.Opener.EnsureAccount(ctx, step.OutputMint)
			if err != nil {
				return nil, types.NewError(types.KindInfra, "exec.Assemble", err)
			}
			opened[step.OutputMint] = true
			if created {
				out = append(out, ix)
			}
		}
	}

	currentAmount := opp.InputAmount
	for i, step := range opp.Steps {
		builder, ok := a.Builders[step.ProgramID]
		if !ok {
			return nil, types.NewError(types.KindConfig, "exec.Assemble", fmt.Errorf("no instruction builder registered for program %s", step.ProgramID))
		}
		minOut := uint64(0)
		if i == len(opp.Steps)-1 {
			minOut = minAmountOutFinal
		}
		ix, err := builder.BuildSwap(step, currentAmount, minOut)
		if err != nil {
			return nil, types.NewError(types.KindInfra, "exec.Assemble", err)
		}
		out = append(out, ix)
		currentAmount = step.ExpectedOutput
	}

	if a.FlashLoan != nil {
		wrapped, err := a.FlashLoan.Wrap(out, opp)
		if err != nil {
			return nil, types.NewError(types.KindInfra, "exec.Assemble", err)
		}
		return wrapped, nil
	}
	return out, nil
}
