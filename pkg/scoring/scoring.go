// Package scoring maintains the per-pool attention-budget weight table
// described in spec §4.6: an activity bonus on every touch, an optional
// DNA-score bonus consulted from an external port, periodic time decay,
// and top-N selection by weight.
package scoring

import "sync"

const (
	// MaxWeight bounds the activity bonus; DNA bonuses and decay can still
	// move weight above or below this via other paths.
	MaxWeight = 1000.0

	activityBonus  = 5.0
	decayPerTick   = 0.1 // applied once per 60s tick, scaled by elapsed/60 for partial ticks
	tickSeconds    = 60.0
	idlePrune      = 3600 // seconds
	pruneThreshold = 1.0
)

// DNAScorer is consulted for a pool's success-library bonus input. The
// scoring table never computes this score itself; it only applies the
// number a caller supplies (spec §4.6, §9: the DNA subsystem is external).
type DNAScorer interface {
	Score(poolID string) float64
}

type entry struct {
	mu          sync.Mutex
	weight      float64
	lastUpdate  int64
	updateCount uint64
	dnaScore    float64
}

// Table is the concurrent pool-weight table. The top-level lock guards only
// the map's shape (insert/delete); per-entry mutation locks a single entry,
// so concurrent writers to different pools never contend with each other
// (spec §5).
type Table struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty scoring table.
func New() *Table {
	return &Table{entries: make(map[string]*entry)}
}

func (t *Table) getOrCreate(poolID string) *entry {
	t.mu.RLock()
	e, ok := t.entries[poolID]
	t.mu.RUnlock()
	if ok {
		return e
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[poolID]; ok {
		return e
	}
	e = &entry{}
	t.entries[poolID] = e
	return e
}

// RecordActivity applies the activity bonus for a pool touched at time now
// (unix seconds), bounded by MaxWeight.
func (t *Table) RecordActivity(poolID string, now int64) {
	e := t.getOrCreate(poolID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.weight += activityBonus
	if e.weight > MaxWeight {
		e.weight = MaxWeight
	}
	e.lastUpdate = now
	e.updateCount++
}

// ApplyDNABonus adds dnaScore*k to a pool's weight, as reported by an
// external DNAScorer.
func (t *Table) ApplyDNABonus(poolID string, dnaScore, k float64, now int64) {
	e := t.getOrCreate(poolID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.weight += dnaScore * k
	e.dnaScore = dnaScore
	e.lastUpdate = now
}

// Decay subtracts decay proportional to elapsed seconds from every pool and
// prunes entries whose weight has fallen to pruneThreshold or below and
// that have been idle for at least an hour (spec §4.6: "removes entries
// with weight <= 1 that are also idle >= 1 hour").
func (t *Table) Decay(now int64, elapsedSeconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delta := decayPerTick * (elapsedSeconds / tickSeconds)
	for id, e := range t.entries {
		e.mu.Lock()
		e.weight -= delta
		idle := now - e.lastUpdate
		prune := e.weight <= pruneThreshold && idle >= idlePrune
		e.mu.Unlock()
		if prune {
			delete(t.entries, id)
		}
	}
}

// Weighted is a read-only snapshot of one pool's score, for TopN results
// and telemetry.
type Weighted struct {
	PoolID     string
	Weight     float64
	LastUpdate int64
}

// TopN returns the k highest-weight pools, ties broken by most recent
// activity (spec §4.6).
func (t *Table) TopN(k int) []Weighted {
	t.mu.RLock()
	defer t.mu.RUnlock()

	all := make([]Weighted, 0, len(t.entries))
	for id, e := range t.entries {
		e.mu.Lock()
		all = append(all, Weighted{PoolID: id, Weight: e.weight, LastUpdate: e.lastUpdate})
		e.mu.Unlock()
	}
	sortDescending(all)
	if k < len(all) {
		all = all[:k]
	}
	return all
}

func sortDescending(w []Weighted) {
	for i := 1; i < len(w); i++ {
		for j := i; j > 0 && less(w[j], w[j-1]); j-- {
			w[j], w[j-1] = w[j-1], w[j]
		}
	}
}

// less reports whether a ranks ahead of b: higher weight first, then more
// recent activity.
func less(a, b Weighted) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return a.LastUpdate > b.LastUpdate
}

// Len reports how many pools are currently tracked.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
