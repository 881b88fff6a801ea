package types

import "math/big"

// VariantKind tags a PoolVariant. Dispatch on this tag rather than an
// interface keeps the quote hot path branch-predictable and free of vtable
// indirection (spec §9 Design Notes).
type VariantKind uint8

const (
	VariantUnknown VariantKind = iota
	VariantCPMM
	VariantCLMM
	VariantDLMM
	VariantBondingCurve
)

func (k VariantKind) String() string {
	switch k {
	case VariantCPMM:
		return "cpmm"
	case VariantCLMM:
		return "clmm"
	case VariantDLMM:
		return "dlmm"
	case VariantBondingCurve:
		return "bonding_curve"
	default:
		return "unknown"
	}
}

// CPMMState is the constant-product invariant state of one pool, oriented
// with reserve_a backing mint_a and reserve_b backing mint_b.
type CPMMState struct {
	ReserveA *big.Int
	ReserveB *big.Int
	FeeBps   uint16
}

// CLMMState is the concentrated-liquidity invariant state, price carried as
// a Q64.64 fixed-point square root per spec §4.1/§6.
type CLMMState struct {
	SqrtPriceQ64 *big.Int
	Liquidity    *big.Int
	FeeBps       uint16
}

// DLMMState is the discrete-bin invariant state.
type DLMMState struct {
	ActiveBinID int32
	BinStepBps  uint16
	BaseFeeBps  uint16
}

// BondingCurveState is the virtual-reserve primary-issuance pricing state.
type BondingCurveState struct {
	VirtualBase  uint64
	VirtualQuote uint64
	Complete     bool
}

// PoolVariant is a tagged union over the four AMM invariant families. Only
// one of the pointer fields matching Kind is populated.
type PoolVariant struct {
	Kind         VariantKind
	CPMM         *CPMMState
	CLMM         *CLMMState
	DLMM         *DLMMState
	BondingCurve *BondingCurveState
}

// PoolUpdate is an atomic snapshot of one pool's state (spec §3).
type PoolUpdate struct {
	PoolID    PoolID
	ProgramID ProgramID
	MintA     TokenID
	MintB     TokenID
	Variant   PoolVariant
	Timestamp int64 // monotonic seconds
}

// PoolRef is the lightweight reference to a pool stored on a directional
// graph edge. For CPMM pools, VariantRef's reserves are pre-swapped so
// ReserveA/ReserveB already mean "reserve of the edge's from-token" /
// "reserve of the edge's to-token" and AToB is always true. CLMM/DLMM/
// bonding-curve state is never reoriented (their kernels take direction as
// an explicit flag instead of swapping fields), so AToB records whether
// this edge runs with or against the pool's native mint_a -> mint_b
// ordering; the edge's from-token is mint_a exactly when AToB is true.
type PoolRef struct {
	PoolID     PoolID
	ProgramID  ProgramID
	VariantRef PoolVariant
	AToB       bool
}
