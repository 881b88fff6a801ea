// Package stream ingests pool state over a websocket JSON-RPC subscription
// (logs + account updates + slot heartbeat), decodes the four pool account
// binary layouts by fixed offset with explicit bounds checks, dedupes, and
// feeds PoolUpdates to the market graph (spec §4, §6, §9).
//
// The source open question on `unsafe`/transmute-style casts is resolved
// here: every decoder below bounds-checks the buffer and returns
// types.ErrParse on a short read rather than reinterpreting raw memory.
package stream

import (
	"encoding/binary"
	"fmt"

	"github.com/arqnet/solarb/pkg/types"
)

const (
	cpmmAccountLen = 752
	clmmAccountLen = 653
)

func parseErr(op string, err error) *types.EngineError {
	return types.NewError(types.KindParse, op, err)
}

// cpmmOffsets are this package's own fixed placement of the CPMM fields
// inside the 752-byte pool account. base_reserve/quote_reserve are carried on-chain as u64
// counters the core treats as the pool's live reserves.
const (
	cpmmMintAOffset     = 400
	cpmmMintBOffset     = 432
	cpmmBaseReserveOff  = 464
	cpmmQuoteReserveOff = 472
)

// DecodeCPMMAccount parses a 752-byte CPMM pool account into a PoolUpdate
// (spec §6). feeBps is not carried in the raw account on most CPMM
// programs and is supplied by the caller (it is a per-program constant or
// configuration value, not a per-account field).
func DecodeCPMMAccount(poolID types.PoolID, programID types.ProgramID, data []byte, feeBps uint16, timestamp int64) (types.PoolUpdate, error) {
	if len(data) < cpmmAccountLen {
		return types.PoolUpdate{}, parseErr("stream.DecodeCPMMAccount", fmt.Errorf("short buffer: got %d bytes, want >= %d", len(data), cpmmAccountLen))
	}
	var mintA, mintB types.TokenID
	copy(mintA[:], data[cpmmMintAOffset:cpmmMintAOffset+32])
	copy(mintB[:], data[cpmmMintBOffset:cpmmMintBOffset+32])
	baseReserve := binary.LittleEndian.Uint64(data[cpmmBaseReserveOff : cpmmBaseReserveOff+8])
	quoteReserve := binary.LittleEndian.Uint64(data[cpmmQuoteReserveOff : cpmmQuoteReserveOff+8])

	return types.PoolUpdate{
		PoolID:    poolID,
		ProgramID: programID,
		MintA:     mintA,
		MintB:     mintB,
		Variant: types.PoolVariant{
			Kind: types.VariantCPMM,
			CPMM: &types.CPMMState{
				ReserveA: u64ToBig(baseReserve),
				ReserveB: u64ToBig(quoteReserve),
				FeeBps:   feeBps,
			},
		},
		Timestamp: timestamp,
	}, nil
}

// CLMM account field offsets, verbatim from spec §6.
const (
	clmmTickSpacingOff = 41
	clmmFeeRateOff     = 45
	clmmLiquidityOff   = 49
	clmmSqrtPriceOff   = 65
	clmmTickCurrentOff = 81
	clmmMintAOff       = 101
	clmmMintBOff       = 181
)

// DecodeCLMMAccount parses a 653-byte CLMM pool account into a PoolUpdate
// (spec §6).
func DecodeCLMMAccount(poolID types.PoolID, programID types.ProgramID, data []byte, timestamp int64) (types.PoolUpdate, error) {
	if len(data) < clmmAccountLen {
		return types.PoolUpdate{}, parseErr("stream.DecodeCLMMAccount", fmt.Errorf("short buffer: got %d bytes, want >= %d", len(data), clmmAccountLen))
	}
	feeRate := binary.LittleEndian.Uint16(data[clmmFeeRateOff : clmmFeeRateOff+2])
	liquidity := u128LE(data[clmmLiquidityOff : clmmLiquidityOff+16])
	sqrtPrice := u128LE(data[clmmSqrtPriceOff : clmmSqrtPriceOff+16])

	var mintA, mintB types.TokenID
	copy(mintA[:], data[clmmMintAOff:clmmMintAOff+32])
	copy(mintB[:], data[clmmMintBOff:clmmMintBOff+32])

	return types.PoolUpdate{
		PoolID:    poolID,
		ProgramID: programID,
		MintA:     mintA,
		MintB:     mintB,
		Variant: types.PoolVariant{
			Kind: types.VariantCLMM,
			CLMM: &types.CLMMState{
				SqrtPriceQ64: sqrtPrice,
				Liquidity:    liquidity,
				FeeBps:       feeRate,
			},
		},
		Timestamp: timestamp,
	}, nil
}

// DLMM account field offsets, verbatim from spec §6.
const (
	dlmmMintXOff      = 8
	dlmmMintYOff      = 40
	dlmmActiveBinOff  = 72
	dlmmBinStepOff    = 76
	dlmmBaseFeeOff    = 78
	dlmmAccountMinLen = 80
)

// DecodeDLMMAccount parses a DLMM pool account into a PoolUpdate (spec §6).
func DecodeDLMMAccount(poolID types.PoolID, programID types.ProgramID, data []byte, timestamp int64) (types.PoolUpdate, error) {
	if len(data) < dlmmAccountMinLen {
		return types.PoolUpdate{}, parseErr("stream.DecodeDLMMAccount", fmt.Errorf("short buffer: got %d bytes, want >= %d", len(data), dlmmAccountMinLen))
	}
	var mintX, mintY types.TokenID
	copy(mintX[:], data[dlmmMintXOff:dlmmMintXOff+32])
	copy(mintY[:], data[dlmmMintYOff:dlmmMintYOff+32])
	activeBin := int32(binary.LittleEndian.Uint32(data[dlmmActiveBinOff : dlmmActiveBinOff+4]))
	binStep := binary.LittleEndian.Uint16(data[dlmmBinStepOff : dlmmBinStepOff+2])
	baseFee := binary.LittleEndian.Uint16(data[dlmmBaseFeeOff : dlmmBaseFeeOff+2])

	return types.PoolUpdate{
		PoolID:    poolID,
		ProgramID: programID,
		MintA:     mintX,
		MintB:     mintY,
		Variant: types.PoolVariant{
			Kind: types.VariantDLMM,
			DLMM: &types.DLMMState{
				ActiveBinID: activeBin,
				BinStepBps:  binStep,
				BaseFeeBps:  baseFee,
			},
		},
		Timestamp: timestamp,
	}, nil
}

// bondingCurveMinLen is the borsh-encoded size of
// {v_tok,v_sol,r_tok,r_sol,supply: u64 x5, complete: bool} (spec §6).
const bondingCurveMinLen = 8*5 + 1

// DecodeBondingCurveAccount parses a borsh-encoded bonding-curve account
// into a PoolUpdate (spec §6). quoteMint is supplied by the caller since
// the account itself only carries the token's own virtual reserves, not
// the quote-side mint address.
func DecodeBondingCurveAccount(poolID types.PoolID, programID types.ProgramID, tokenMint, quoteMint types.TokenID, data []byte, timestamp int64) (types.PoolUpdate, error) {
	if len(data) < bondingCurveMinLen {
		return types.PoolUpdate{}, parseErr("stream.DecodeBondingCurveAccount", fmt.Errorf("short buffer: got %d bytes, want >= %d", len(data), bondingCurveMinLen))
	}
	vTok := binary.LittleEndian.Uint64(data[0:8])
	vSol := binary.LittleEndian.Uint64(data[8:16])
	// r_tok, r_sol (data[16:24], data[24:32]) and supply (data[32:40]) are
	// part of the on-chain layout but unused by the core's buy-quote
	// kernel, which operates on virtual reserves only (spec §4.1).
	complete := data[40] != 0

	return types.PoolUpdate{
		PoolID:    poolID,
		ProgramID: programID,
		MintA:     tokenMint,
		MintB:     quoteMint,
		Variant: types.PoolVariant{
			Kind: types.VariantBondingCurve,
			BondingCurve: &types.BondingCurveState{
				VirtualBase:  vTok,
				VirtualQuote: vSol,
				Complete:     complete,
			},
		},
		Timestamp: timestamp,
	}, nil
}
