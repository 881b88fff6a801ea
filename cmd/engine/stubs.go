package main

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/arqnet/solarb/pkg/exec"
	"github.com/arqnet/solarb/pkg/types"
)

// loggingSigner stands in for the wallet-custody signer spec §1 places
// outside the core's contracts: it never touches a real key, it just
// assigns an opaque signature so the dispatch state machine and
// confirmation path can be exercised end to end (mirrors the teacher's
// PaperBroker, which simulates fills instead of touching an exchange).
type loggingSigner struct{}

func (loggingSigner) SignTransaction(ctx context.Context, ixs []exec.Instruction) ([]byte, error) {
	log.Printf("engine: would sign %d instructions (no wallet wired)", len(ixs))
	return []byte(uuid.NewString()), nil
}

// loggingBundleEndpoint simulates a bundle-priority submission lane. It
// always fails, so a default boot sends every dispatch to loggingFallback,
// whose placeholder signature loggingConfirmer then reports as confirmed:
// simulated trades are recorded as confirmed outcomes. An operator wires a
// real BundleEndpoint (Jito, etc.) in its place.
type loggingBundleEndpoint struct{ name string }

func (e loggingBundleEndpoint) SubmitBundle(ctx context.Context, txs [][]byte) (string, error) {
	log.Printf("engine: bundle endpoint %q received %d tx(s) (no real submitter wired)", e.name, len(txs))
	return "", errors.New("no bundle endpoint configured")
}

// loggingFallback simulates the direct-RPC fallback path.
type loggingFallback struct{}

func (loggingFallback) SubmitTransaction(ctx context.Context, tx []byte) (string, error) {
	log.Printf("engine: fallback submission received %d bytes (no real RPC wired)", len(tx))
	return uuid.NewString(), nil
}

// loggingConfirmer always reports a transaction confirmed on the first
// poll, so the detached confirmation task exercises its full state machine
// without needing a live RPC connection.
type loggingConfirmer struct{}

func (loggingConfirmer) SignatureStatus(ctx context.Context, signature string) (exec.SignatureStatus, error) {
	return exec.StatusConfirmed, nil
}

// loggingBuilder stands in for SwapInstructionBuilder: the core never
// encodes a DEX's real wire format (spec §1), so this adapter produces an
// opaque placeholder instruction an operator replaces per-program.
type loggingBuilder struct{}

func (loggingBuilder) BuildSwap(step types.SwapStep, amountIn, minAmountOut uint64) (exec.Instruction, error) {
	return exec.Instruction{
		ProgramID: step.ProgramID,
		Accounts:  []string{step.InputMint.String(), step.OutputMint.String()},
		Data:      []byte{},
	}, nil
}
