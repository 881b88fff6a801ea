// Package types holds the data model shared by every engine component:
// token identifiers, pool snapshots, graph edges, arbitrage opportunities,
// and the error taxonomy used to classify failures across package
// boundaries.
package types

import (
	"encoding/hex"
	"fmt"
)

// TokenID is an opaque 32-byte on-chain mint address. It is comparable and
// usable as a map key, and orders total-ly by byte value.
type TokenID [32]byte

// String renders the token as a hex string for logging.
func (t TokenID) String() string {
	return hex.EncodeToString(t[:])
}

// Less gives TokenID a total order, used to canonicalize unordered token
// pairs (e.g. when deduplicating AllPairs-style listings).
func (t TokenID) Less(other TokenID) bool {
	for i := range t {
		if t[i] != other[i] {
			return t[i] < other[i]
		}
	}
	return false
}

// TokenFromHex parses a hex-encoded 32-byte address.
func TokenFromHex(s string) (TokenID, error) {
	var t TokenID
	b, err := hex.DecodeString(s)
	if err != nil {
		return t, fmt.Errorf("token: decode hex: %w", err)
	}
	if len(b) != len(t) {
		return t, fmt.Errorf("token: want %d bytes, got %d", len(t), len(b))
	}
	copy(t[:], b)
	return t, nil
}

// PoolID identifies an on-chain pool account. Pools are keyed by this
// value for O(1) lookup in both the graph's edge index and the pool
// scoring table.
type PoolID string

// ProgramID identifies the on-chain program (DEX) that owns a pool.
type ProgramID string
