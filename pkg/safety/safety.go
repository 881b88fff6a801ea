// Package safety implements the per-(mint,pool) safety validator: a
// whitelist bypass, then a sequential, fail-safe chain of checks
// (authorities, holder concentration, LP burn, liquidity depth), with
// verdicts cached under separate TTLs for positive and negative results
// (spec §4.7).
package safety

import (
	"context"
	"time"

	"github.com/arqnet/solarb/pkg/types"
)

// CheckContext carries the inputs one check needs: the mint and pool being
// evaluated, and the minimum liquidity threshold used by the depth check.
type CheckContext struct {
	Mint                 types.TokenID
	PoolID               types.PoolID
	MinLiquidityLamports uint64
}

// CheckResult is what one check in the chain reports. Err set means the
// check's external data source failed; per spec §4.7 that always yields a
// Rejected(infrastructure) verdict, never a silent pass.
type CheckResult struct {
	Rejected bool
	Reason   string
	Err      error
}

// Check is one safety test in the sequential chain.
type Check func(ctx context.Context, cc CheckContext) CheckResult

// Validator evaluates (mint, pool) pairs against a whitelist and an
// ordered chain of checks, caching results with separate TTLs.
type Validator struct {
	whitelist   map[types.TokenID]bool
	checks      []Check
	cache       *ttlCache
	positiveTTL time.Duration
	negativeTTL time.Duration
	minLiq      uint64
	now         func() int64
}

// Config bundles a Validator's construction parameters.
type Config struct {
	Whitelist            []types.TokenID
	Checks               []Check
	CacheSize            int
	PositiveTTL          time.Duration
	NegativeTTL          time.Duration
	MinLiquidityLamports uint64
	Now                  func() int64 // for tests; defaults to time.Now().Unix()
}

// New builds a Validator from cfg.
func New(cfg Config) (*Validator, error) {
	cache, err := newTTLCache(cfg.CacheSize)
	if err != nil {
		return nil, types.NewError(types.KindInfra, "safety.New", err)
	}
	wl := make(map[types.TokenID]bool, len(cfg.Whitelist))
	for _, m := range cfg.Whitelist {
		wl[m] = true
	}
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Validator{
		whitelist:   wl,
		checks:      cfg.Checks,
		cache:       cache,
		positiveTTL: cfg.PositiveTTL,
		negativeTTL: cfg.NegativeTTL,
		minLiq:      cfg.MinLiquidityLamports,
		now:         now,
	}, nil
}

func cacheKey(mint types.TokenID, poolID types.PoolID) string {
	return mint.String() + "|" + string(poolID)
}

// Evaluate returns the safety verdict for (mint, pool), consulting the
// whitelist, then the cache, then running the check chain in order and
// stopping at the first rejection (spec §4.7: "sequentially, failing
// safe").
func (v *Validator) Evaluate(ctx context.Context, mint types.TokenID, poolID types.PoolID) types.SafetyVerdict {
	now := v.now()
	if v.whitelist[mint] {
		return types.SafetyVerdict{PoolID: poolID, Safe: true, EvaluatedAt: now}
	}

	key := cacheKey(mint, poolID)
	if cached, ok := v.cache.get(key, now); ok {
		return cached
	}

	cc := CheckContext{Mint: mint, PoolID: poolID, MinLiquidityLamports: v.minLiq}
	verdict := types.SafetyVerdict{PoolID: poolID, Safe: true, EvaluatedAt: now}
	for _, check := range v.checks {
		res := check(ctx, cc)
		if res.Err != nil {
			verdict = types.SafetyVerdict{PoolID: poolID, Safe: false, Reason: "infrastructure: " + res.Err.Error(), EvaluatedAt: now}
			break
		}
		if res.Rejected {
			verdict = types.SafetyVerdict{PoolID: poolID, Safe: false, Reason: res.Reason, EvaluatedAt: now}
			break
		}
	}

	ttl := v.positiveTTL
	if !verdict.Safe {
		ttl = v.negativeTTL
	}
	v.cache.put(key, verdict, now, ttl)
	return verdict
}
