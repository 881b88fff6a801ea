package safety

import (
	"context"
	"fmt"
)

const minLPBurnedFraction = 0.90

// LPBurnSource reports the fraction of a pool's LP-token supply held in
// designated burn addresses.
type LPBurnSource interface {
	LPBurnedFraction(ctx context.Context, poolID string) (float64, error)
}

// LPBurnCheck rejects a pool whose LP supply is less than 90% burned
// (spec §4.7 check 3).
func LPBurnCheck(src LPBurnSource) Check {
	return func(ctx context.Context, cc CheckContext) CheckResult {
		burned, err := src.LPBurnedFraction(ctx, string(cc.PoolID))
		if err != nil {
			return CheckResult{Err: fmt.Errorf("lp_burn: %w", err)}
		}
		if burned < minLPBurnedFraction {
			return CheckResult{Rejected: true, Reason: "less than 90% of LP supply is burned"}
		}
		return CheckResult{}
	}
}
