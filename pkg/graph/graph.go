// Package graph maintains the in-memory multigraph of tokens and pools and
// runs the bounded cycle search over it. The graph is a many-reader/
// single-writer structure: each EdgesFrom call takes the read lock only
// for the copy it returns, while apply_update takes a brief exclusive lock
// to mutate it (spec §4.2, §5). A cycle search does not hold the lock
// across its traversal, so updates applied between two EdgesFrom calls of
// one search are visible to its later hops.
package graph

import (
	"sync"

	"github.com/arqnet/solarb/pkg/types"
)

// poolLocation is the secondary index entry letting apply_update find and
// update a pool in O(1) without scanning every edge (spec §4.2, §9).
type poolLocation struct {
	from types.TokenID
	to   types.TokenID
}

// MarketGraph is the directed multigraph token -> []Edge described in spec
// §3/§4.2. Every apply_update keeps both the A->B and B->A edges for a pool
// in sync; removing a pool that empties an edge removes the edge itself so
// the graph never holds a token with no incident edges.
type MarketGraph struct {
	mu        sync.RWMutex
	edges     map[types.TokenID]map[types.TokenID]*types.Edge // from -> to -> edge
	poolIndex map[types.PoolID][]poolLocation                 // a pool may appear on >1 directional pair only once each
}

// New returns an empty market graph.
func New() *MarketGraph {
	return &MarketGraph{
		edges:     make(map[types.TokenID]map[types.TokenID]*types.Edge),
		poolIndex: make(map[types.PoolID][]poolLocation),
	}
}

// ApplyUpdate upserts a pool into both directional edges for its token
// pair, creating the adjacency entries if the pair is new (spec §4.2).
// Idempotent on equal payloads: re-applying the same snapshot replaces the
// existing ref in place rather than duplicating it (spec §8).
func (g *MarketGraph) ApplyUpdate(u types.PoolUpdate) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fwd, rev, revAToB := orientedVariants(u.Variant)

	g.upsertDirectional(u.MintA, u.MintB, types.PoolRef{PoolID: u.PoolID, ProgramID: u.ProgramID, VariantRef: fwd, AToB: true})
	g.upsertDirectional(u.MintB, u.MintA, types.PoolRef{PoolID: u.PoolID, ProgramID: u.ProgramID, VariantRef: rev, AToB: revAToB})

	g.poolIndex[u.PoolID] = []poolLocation{
		{from: u.MintA, to: u.MintB},
		{from: u.MintB, to: u.MintA},
	}
}

// orientedVariants returns the same invariant state oriented for A->B and
// for B->A quoting, plus the AToB flag the B->A edge should carry. CPMM
// reserves are directional by which token sits on which side, so the
// reverse orientation swaps the two reserve fields and keeps quoting as
// AToB=true against the swapped state. CLMM/DLMM/bonding-curve state is
// never reoriented; their kernels take direction as an explicit flag
// instead, so the reverse edge keeps the same state but flips the flag.
func orientedVariants(v types.PoolVariant) (fwd, rev types.PoolVariant, revAToB bool) {
	fwd = v
	rev = v
	if v.Kind == types.VariantCPMM && v.CPMM != nil {
		swapped := *v.CPMM
		swapped.ReserveA, swapped.ReserveB = v.CPMM.ReserveB, v.CPMM.ReserveA
		rev.CPMM = &swapped
		return fwd, rev, true
	}
	return fwd, rev, false
}

func (g *MarketGraph) upsertDirectional(from, to types.TokenID, ref types.PoolRef) {
	byTo, ok := g.edges[from]
	if !ok {
		byTo = make(map[types.TokenID]*types.Edge)
		g.edges[from] = byTo
	}
	e, ok := byTo[to]
	if !ok {
		e = types.NewEdge(from, to)
		byTo[to] = e
	}
	e.Upsert(ref)
}

// RemovePool removes a pool from both directional edges atomically,
// deleting an edge entirely if it becomes empty (spec §4.2 invariant iii).
func (g *MarketGraph) RemovePool(id types.PoolID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	locs, ok := g.poolIndex[id]
	if !ok {
		return
	}
	for _, loc := range locs {
		byTo, ok := g.edges[loc.from]
		if !ok {
			continue
		}
		e, ok := byTo[loc.to]
		if !ok {
			continue
		}
		e.Remove(id)
		if e.Len() == 0 {
			delete(byTo, loc.to)
			if len(byTo) == 0 {
				delete(g.edges, loc.from)
			}
		}
	}
	delete(g.poolIndex, id)
}

// EdgeSnapshot is a read-only view of one directional edge, safe to use
// after the graph's read lock is released: EdgesFrom copies the edge's
// pool slice into it, and Edge.Upsert/Edge.Remove modify the edge's own
// slice in place without touching that copy.
type EdgeSnapshot struct {
	To    types.TokenID
	Pools []types.PoolRef
}

// EdgesFrom returns a read-only snapshot of every edge leaving token,
// taken under a shared read lock (spec §4.2).
func (g *MarketGraph) EdgesFrom(token types.TokenID) []EdgeSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	byTo, ok := g.edges[token]
	if !ok {
		return nil
	}
	out := make([]EdgeSnapshot, 0, len(byTo))
	for to, e := range byTo {
		out = append(out, EdgeSnapshot{To: to, Pools: append([]types.PoolRef(nil), e.Pools()...)})
	}
	return out
}

// HasToken reports whether the graph currently has any incident edge for
// token. It takes only the read lock, so a caller can use it as a
// read-first probe before a write (spec §4.2).
func (g *MarketGraph) HasToken(token types.TokenID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[token]
	return ok
}

// PoolCount reports how many distinct pools are tracked, for telemetry
// gauges.
func (g *MarketGraph) PoolCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.poolIndex)
}
