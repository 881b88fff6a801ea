// Package backoff implements the exponential backoff with jitter shared by
// the execution engine's bundle-retry schedule and the stream ingestor's
// reconnect loop (spec §4.5, §5).
package backoff

import (
	"math/rand"
	"time"
)

// Policy computes a backoff duration for attempt k (1-indexed).
type Policy struct {
	// Base is the unit delay; attempt k waits roughly Base * 2^(k-1).
	Base time.Duration
	// Cap bounds the computed delay before jitter is applied. Zero means
	// uncapped.
	Cap time.Duration
	// Jitter is the fraction of the computed delay (0.0-1.0) randomized
	// away, to avoid thundering-herd reconnects. Zero disables jitter.
	Jitter float64
}

// Delay returns the backoff duration for the k'th attempt (k >= 1).
func (p Policy) Delay(k int) time.Duration {
	if k < 1 {
		k = 1
	}
	d := p.Base << uint(k-1)
	if p.Cap > 0 && d > p.Cap {
		d = p.Cap
	}
	if p.Jitter <= 0 {
		return d
	}
	spread := float64(d) * p.Jitter
	offset := (rand.Float64()*2 - 1) * spread // +/- spread
	jittered := time.Duration(float64(d) + offset)
	if jittered < 0 {
		jittered = 0
	}
	if p.Cap > 0 && jittered > p.Cap {
		jittered = p.Cap
	}
	return jittered
}

// DispatchRetryPolicy is the execution engine's per-endpoint retry
// schedule: 2^(k-1) seconds, matching spec §4.5's state-machine table
// exactly (k=1 -> 1s, k=2 -> 2s, k=3 -> 4s).
var DispatchRetryPolicy = Policy{Base: time.Second}

// ReconnectPolicy is the stream ingestor's reconnect schedule: exponential
// backoff with jitter, capped at 60s (spec §5).
var ReconnectPolicy = Policy{Base: time.Second, Cap: 60 * time.Second, Jitter: 0.2}
