package types

import "testing"

func tok(b byte) TokenID {
	var t TokenID
	t[31] = b
	return t
}

func TestEdgeUpsertPreservesInsertionOrder(t *testing.T) {
	e := NewEdge(tok(1), tok(2))
	e.Upsert(PoolRef{PoolID: "a"})
	e.Upsert(PoolRef{PoolID: "b"})
	e.Upsert(PoolRef{PoolID: "c"})

	got := e.Pools()
	if len(got) != 3 {
		t.Fatalf("want 3 pools, got %d", len(got))
	}
	want := []PoolID{"a", "b", "c"}
	for i, p := range got {
		if p.PoolID != want[i] {
			t.Errorf("position %d: want %s, got %s", i, want[i], p.PoolID)
		}
	}
}

func TestEdgeUpsertReplacesInPlace(t *testing.T) {
	e := NewEdge(tok(1), tok(2))
	e.Upsert(PoolRef{PoolID: "a", ProgramID: "p1"})
	e.Upsert(PoolRef{PoolID: "b"})
	e.Upsert(PoolRef{PoolID: "a", ProgramID: "p2"}) // update, not duplicate

	got := e.Pools()
	if len(got) != 2 {
		t.Fatalf("want 2 pools after update, got %d", len(got))
	}
	if got[0].PoolID != "a" || got[0].ProgramID != "p2" {
		t.Errorf("pool a was not updated in place: %+v", got[0])
	}
	if got[1].PoolID != "b" {
		t.Errorf("pool b displaced: %+v", got[1])
	}
}

func TestEdgeRemoveKeepsIndexConsistent(t *testing.T) {
	e := NewEdge(tok(1), tok(2))
	e.Upsert(PoolRef{PoolID: "a"})
	e.Upsert(PoolRef{PoolID: "b"})
	e.Upsert(PoolRef{PoolID: "c"})

	if !e.Remove("b") {
		t.Fatalf("expected removal of b to succeed")
	}
	if e.Remove("b") {
		t.Fatalf("expected second removal of b to report false")
	}
	if e.Len() != 2 {
		t.Fatalf("want 2 pools remaining, got %d", e.Len())
	}
	if _, ok := e.Get("c"); !ok {
		t.Fatalf("pool c should still be reachable by id after removing b")
	}
	got := e.Pools()
	if got[0].PoolID != "a" || got[1].PoolID != "c" {
		t.Errorf("unexpected order after removal: %+v", got)
	}
}

func TestTokenIDOrdering(t *testing.T) {
	a, b := tok(1), tok(2)
	if !a.Less(b) {
		t.Errorf("expected %s < %s", a, b)
	}
	if b.Less(a) == false && a.Less(b) == false {
		// both false only valid when equal
	}
}

func TestTokenFromHexRoundTrip(t *testing.T) {
	original := tok(42)
	parsed, err := TokenFromHex(original.String())
	if err != nil {
		t.Fatalf("TokenFromHex: %v", err)
	}
	if parsed != original {
		t.Errorf("round trip mismatch: want %s, got %s", original, parsed)
	}
}

func TestTokenFromHexRejectsWrongLength(t *testing.T) {
	if _, err := TokenFromHex("abcd"); err == nil {
		t.Fatalf("expected error for short hex input")
	}
}
