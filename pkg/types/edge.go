package types

// Edge is a directed from_token -> to_token adjacency carrying an
// insertion-order-preserving set of pools (spec §3). Pools are keyed by
// PoolID for in-place update; multiple pools per token pair are allowed.
type Edge struct {
	From  TokenID
	To    TokenID
	pools []PoolRef
	index map[PoolID]int // pool id -> position in pools
}

// NewEdge returns an empty directed edge.
func NewEdge(from, to TokenID) *Edge {
	return &Edge{From: from, To: to, index: make(map[PoolID]int)}
}

// Upsert inserts a new pool at the end of insertion order, or replaces an
// existing pool's ref in place without disturbing order (spec §4.2
// invariant i: never overwrite a different pool on the same edge).
func (e *Edge) Upsert(ref PoolRef) {
	if i, ok := e.index[ref.PoolID]; ok {
		e.pools[i] = ref
		return
	}
	e.index[ref.PoolID] = len(e.pools)
	e.pools = append(e.pools, ref)
}

// Remove deletes a pool from the edge, if present, preserving the relative
// order of the remaining pools and keeping the index consistent.
func (e *Edge) Remove(id PoolID) (removed bool) {
	i, ok := e.index[id]
	if !ok {
		return false
	}
	e.pools = append(e.pools[:i], e.pools[i+1:]...)
	delete(e.index, id)
	for pid, pos := range e.index {
		if pos > i {
			e.index[pid] = pos - 1
		}
	}
	return true
}

// Pools returns the edge's pool refs in insertion order. Callers must not
// mutate the returned slice.
func (e *Edge) Pools() []PoolRef { return e.pools }

// Len reports how many pools are on this edge.
func (e *Edge) Len() int { return len(e.pools) }

// Get looks up a pool ref by id in O(1).
func (e *Edge) Get(id PoolID) (PoolRef, bool) {
	i, ok := e.index[id]
	if !ok {
		return PoolRef{}, false
	}
	return e.pools[i], true
}
