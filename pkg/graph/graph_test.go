package graph

import (
	"math/big"
	"testing"

	"github.com/arqnet/solarb/pkg/types"
)

func tok(b byte) types.TokenID {
	var t types.TokenID
	t[31] = b
	return t
}

func cpmmUpdate(id types.PoolID, mintA, mintB types.TokenID, resA, resB int64, feeBps uint16) types.PoolUpdate {
	return types.PoolUpdate{
		PoolID: id,
		MintA:  mintA,
		MintB:  mintB,
		Variant: types.PoolVariant{
			Kind: types.VariantCPMM,
			CPMM: &types.CPMMState{
				ReserveA: big.NewInt(resA),
				ReserveB: big.NewInt(resB),
				FeeBps:   feeBps,
			},
		},
	}
}

func TestApplyUpdateCreatesBothDirections(t *testing.T) {
	g := New()
	a, b := tok(1), tok(2)
	g.ApplyUpdate(cpmmUpdate("p1", a, b, 100, 200, 0))

	fwd := g.EdgesFrom(a)
	if len(fwd) != 1 || fwd[0].To != b || len(fwd[0].Pools) != 1 {
		t.Fatalf("expected one forward edge a->b with one pool, got %+v", fwd)
	}
	rev := g.EdgesFrom(b)
	if len(rev) != 1 || rev[0].To != a || len(rev[0].Pools) != 1 {
		t.Fatalf("expected one reverse edge b->a with one pool, got %+v", rev)
	}
}

func TestApplyUpdateSameIDReplacesInPlace(t *testing.T) {
	g := New()
	a, b := tok(1), tok(2)
	g.ApplyUpdate(cpmmUpdate("p1", a, b, 100, 200, 0))
	g.ApplyUpdate(cpmmUpdate("p1", a, b, 500, 600, 30))

	fwd := g.EdgesFrom(a)
	if len(fwd[0].Pools) != 1 {
		t.Fatalf("re-applying the same pool id should update in place, not duplicate: %+v", fwd[0].Pools)
	}
	if fwd[0].Pools[0].VariantRef.CPMM.ReserveA.Int64() != 500 {
		t.Errorf("expected updated reserve, got %+v", fwd[0].Pools[0].VariantRef.CPMM)
	}
}

func TestRemovePoolDropsEmptyEdge(t *testing.T) {
	g := New()
	a, b := tok(1), tok(2)
	g.ApplyUpdate(cpmmUpdate("p1", a, b, 100, 200, 0))
	g.RemovePool("p1")

	if g.HasToken(a) || g.HasToken(b) {
		t.Fatalf("removing the only pool on an edge should drop the token entirely")
	}
	if g.PoolCount() != 0 {
		t.Errorf("want 0 pools tracked, got %d", g.PoolCount())
	}
}

func TestRemovePoolKeepsOtherPoolsOnEdge(t *testing.T) {
	g := New()
	a, b := tok(1), tok(2)
	g.ApplyUpdate(cpmmUpdate("p1", a, b, 100, 200, 0))
	g.ApplyUpdate(cpmmUpdate("p2", a, b, 300, 400, 0))
	g.RemovePool("p1")

	fwd := g.EdgesFrom(a)
	if len(fwd) != 1 || len(fwd[0].Pools) != 1 || fwd[0].Pools[0].PoolID != "p2" {
		t.Fatalf("expected only p2 to remain on the edge, got %+v", fwd)
	}
}

func TestCPMMReverseEdgeHasSwappedReserves(t *testing.T) {
	g := New()
	a, b := tok(1), tok(2)
	g.ApplyUpdate(cpmmUpdate("p1", a, b, 100, 200, 0))

	fwdRef := g.EdgesFrom(a)[0].Pools[0]
	revRef := g.EdgesFrom(b)[0].Pools[0]

	if fwdRef.VariantRef.CPMM.ReserveA.Int64() != 100 || fwdRef.VariantRef.CPMM.ReserveB.Int64() != 200 {
		t.Errorf("forward ref should keep native orientation: %+v", fwdRef.VariantRef.CPMM)
	}
	if revRef.VariantRef.CPMM.ReserveA.Int64() != 200 || revRef.VariantRef.CPMM.ReserveB.Int64() != 100 {
		t.Errorf("reverse ref should have swapped reserves: %+v", revRef.VariantRef.CPMM)
	}
	if !fwdRef.AToB || !revRef.AToB {
		t.Errorf("CPMM refs are always quoted AToB=true since reserves are pre-oriented")
	}
}
