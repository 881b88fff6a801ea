package safety

import (
	"context"
	"fmt"
)

// AuthoritySource reports whether a mint's mint and freeze authorities
// have both been renounced.
type AuthoritySource interface {
	AuthoritiesRenounced(ctx context.Context, mint string) (bool, error)
}

// AuthoritiesCheck rejects any mint whose authorities are not renounced
// (spec §4.7 check 1).
func AuthoritiesCheck(src AuthoritySource) Check {
	return func(ctx context.Context, cc CheckContext) CheckResult {
		renounced, err := src.AuthoritiesRenounced(ctx, cc.Mint.String())
		if err != nil {
			return CheckResult{Err: fmt.Errorf("authorities: %w", err)}
		}
		if !renounced {
			return CheckResult{Rejected: true, Reason: "mint or freeze authority not renounced"}
		}
		return CheckResult{}
	}
}
