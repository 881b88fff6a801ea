package graph

import (
	"github.com/arqnet/solarb/pkg/amm"
	"github.com/arqnet/solarb/pkg/types"
)

// CycleFinderParams bounds one invocation of the bounded DFS search.
type CycleFinderParams struct {
	Anchor            types.TokenID
	InitialAmount     uint64
	MaxHops           int // clamped to [2,5]
	MaxPriceImpactBps uint32
}

// CycleFinder runs a bounded depth-first search over a MarketGraph snapshot
// looking for the most profitable directed cycle back to the anchor token.
// A search never mutates the graph: it only calls EdgesFrom, which takes the
// graph's read lock internally and returns a detached snapshot, so multiple
// searches may run concurrently against a live graph (spec §4.3).
type CycleFinder struct {
	graph *MarketGraph
}

// NewCycleFinder binds a finder to a graph.
func NewCycleFinder(g *MarketGraph) *CycleFinder {
	return &CycleFinder{graph: g}
}

type pathStep struct {
	step   types.SwapStep
	feeBps uint32
	impact uint32
	resIn  uint64
}

// Find runs the bounded DFS described in spec §4.3 and returns the single
// best opportunity, or ok=false if none clears the bar.
func (f *CycleFinder) Find(p CycleFinderParams) (types.ArbitrageOpportunity, bool) {
	hops := p.MaxHops
	if hops < 2 {
		hops = 2
	}
	if hops > 5 {
		hops = 5
	}
	maxImpact := p.MaxPriceImpactBps
	if maxImpact == 0 {
		maxImpact = 100
	}

	s := &searchState{
		graph:     f.graph,
		anchor:    p.Anchor,
		initial:   p.InitialAmount,
		maxHops:   hops,
		maxImpact: maxImpact,
		visited:   map[types.TokenID]bool{p.Anchor: true},
	}
	s.dfs(p.Anchor, p.InitialAmount, hops, nil)
	if s.best == nil {
		return types.ArbitrageOpportunity{}, false
	}
	return *s.best, true
}

type searchState struct {
	graph     *MarketGraph
	anchor    types.TokenID
	initial   uint64
	maxHops   int
	maxImpact uint32
	visited   map[types.TokenID]bool

	best       *types.ArbitrageOpportunity
	bestHops   int
	bestInsert int // insertion index of the best path's closing pool within its edge; lower wins a profit+hop tie (earlier hops' pools are not compared)
}

func (s *searchState) dfs(at types.TokenID, amount uint64, hopsLeft int, path []pathStep) {
	if hopsLeft == 0 {
		return
	}
	for _, edge := range s.graph.EdgesFrom(at) {
		for seq, ref := range edge.Pools {
			reused := false
			for _, ps := range path {
				if ps.step.PoolID == ref.PoolID {
					reused = true
					break
				}
			}
			if reused {
				continue // every pool on a path is distinct
			}
			out := amm.Quote(ref.VariantRef, amount, ref.AToB)
			if out == 0 {
				continue
			}
			resIn := amm.ApproxReserveIn(ref.VariantRef, ref.AToB)
			impactBps := uint32(amm.PriceImpact(amount, resIn) * 10_000)
			if impactBps > s.maxImpact {
				continue
			}

			step := pathStep{
				step: types.SwapStep{
					PoolID:         ref.PoolID,
					ProgramID:      ref.ProgramID,
					InputMint:      at,
					OutputMint:     edge.To,
					ExpectedOutput: out,
				},
				feeBps: amm.FeeBps(ref.VariantRef),
				impact: impactBps,
				resIn:  resIn,
			}

			if edge.To == s.anchor && len(path) >= 1 {
				if out > s.initial {
					s.considerCandidate(append(append([]pathStep(nil), path...), step), out, seq)
				}
				continue
			}

			if edge.To == s.anchor {
				// a single hop can never close a cycle; spec requires 2-5 hops
				continue
			}

			if s.visited[edge.To] {
				continue
			}
			s.visited[edge.To] = true
			s.dfs(edge.To, out, hopsLeft-1, append(path, step))
			delete(s.visited, edge.To)
		}
	}
}

func (s *searchState) considerCandidate(full []pathStep, finalAmount uint64, lastSeq int) {
	profit := finalAmount - s.initial
	hopCount := len(full)

	cand := buildOpportunity(full, s.initial, profit)

	if s.best == nil {
		s.best = &cand
		s.bestHops = hopCount
		s.bestInsert = lastSeq
		return
	}
	if profit > s.best.ExpectedProfit {
		s.best = &cand
		s.bestHops = hopCount
		s.bestInsert = lastSeq
		return
	}
	if profit == s.best.ExpectedProfit {
		if hopCount < s.bestHops {
			s.best = &cand
			s.bestHops = hopCount
			s.bestInsert = lastSeq
			return
		}
		if hopCount == s.bestHops && lastSeq < s.bestInsert {
			s.best = &cand
			s.bestHops = hopCount
			s.bestInsert = lastSeq
		}
	}
}

func buildOpportunity(full []pathStep, initial, profit uint64) types.ArbitrageOpportunity {
	steps := make([]types.SwapStep, len(full))
	var totalFees uint32
	var maxImpact uint32
	minLiquidity := uint64(1<<64 - 1)
	for i, st := range full {
		steps[i] = st.step
		totalFees += st.feeBps
		if st.impact > maxImpact {
			maxImpact = st.impact
		}
		if st.resIn < minLiquidity {
			minLiquidity = st.resIn
		}
	}
	return types.ArbitrageOpportunity{
		Steps:             steps,
		InputAmount:       initial,
		ExpectedProfit:    profit,
		TotalFeesBps:      totalFees,
		MaxPriceImpactBps: maxImpact,
		MinLiquidity:      minLiquidity,
	}
}
