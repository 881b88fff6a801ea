package types

// SwapStep is one hop of a candidate or executing arbitrage path (spec §3).
type SwapStep struct {
	PoolID         PoolID
	ProgramID      ProgramID
	InputMint      TokenID
	OutputMint     TokenID
	ExpectedOutput uint64
}

// ArbitrageOpportunity is an ordered 2-5 hop cycle that returns the anchor
// token to itself with net gain (spec §3, §4.3). Invariants enforced by the
// cycle finder that produces these: Steps[0].InputMint ==
// Steps[len-1].OutputMint, every pool distinct, no intermediate token
// revisited.
type ArbitrageOpportunity struct {
	Steps             []SwapStep
	InputAmount       uint64
	ExpectedProfit    uint64
	TotalFeesBps      uint32
	MaxPriceImpactBps uint32
	MinLiquidity      uint64
	DetectedAt        int64
}

// Anchor returns the start/end token of the cycle.
func (o ArbitrageOpportunity) Anchor() TokenID {
	if len(o.Steps) == 0 {
		return TokenID{}
	}
	return o.Steps[0].InputMint
}

// HopCount is the number of swaps in the cycle.
func (o ArbitrageOpportunity) HopCount() int { return len(o.Steps) }

// PoolWeight tracks a pool's attention-budget score (spec §3, §4.6).
type PoolWeight struct {
	PoolID      PoolID
	Weight      float64
	LastUpdate  int64 // unix seconds
	UpdateCount uint64
	DNAScore    float64
}

// SafetyVerdict is the cached outcome of a per-(mint,pool) safety
// evaluation (spec §3, §4.7).
type SafetyVerdict struct {
	PoolID      PoolID
	Safe        bool
	Reason      string // populated when !Safe
	EvaluatedAt int64
}
