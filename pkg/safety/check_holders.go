package safety

import (
	"context"
	"fmt"
)

const maxLargestHolderShare = 0.80

// HolderSource reports the fraction of total supply held by the single
// largest holder.
type HolderSource interface {
	LargestHolderShare(ctx context.Context, mint string) (float64, error)
}

// HolderConcentrationCheck rejects a mint whose largest holder controls
// more than 80% of supply (spec §4.7 check 2).
func HolderConcentrationCheck(src HolderSource) Check {
	return func(ctx context.Context, cc CheckContext) CheckResult {
		share, err := src.LargestHolderShare(ctx, cc.Mint.String())
		if err != nil {
			return CheckResult{Err: fmt.Errorf("holders: %w", err)}
		}
		if share > maxLargestHolderShare {
			return CheckResult{Rejected: true, Reason: "largest holder exceeds 80% of supply"}
		}
		return CheckResult{}
	}
}
