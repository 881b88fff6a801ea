package safety

import (
	"context"
	"fmt"
)

// DepthSource reports a pool's two vault balances.
type DepthSource interface {
	VaultBalances(ctx context.Context, poolID string) (a, b uint64, err error)
}

// DepthCheck rejects a pool where neither vault meets the minimum liquidity
// floor (spec §4.7 check 4).
func DepthCheck(src DepthSource) Check {
	return func(ctx context.Context, cc CheckContext) CheckResult {
		a, b, err := src.VaultBalances(ctx, string(cc.PoolID))
		if err != nil {
			return CheckResult{Err: fmt.Errorf("depth: %w", err)}
		}
		if a < cc.MinLiquidityLamports && b < cc.MinLiquidityLamports {
			return CheckResult{Rejected: true, Reason: "neither vault meets the minimum liquidity floor"}
		}
		return CheckResult{}
	}
}
