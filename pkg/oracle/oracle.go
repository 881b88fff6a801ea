// Package oracle defines the tip-floor and priority-fee oracle ports the
// opportunity pipeline consults during tip/fee sizing (spec §4.4, §6), plus
// a rate-limited HTTP client implementation of each so a slow oracle never
// starves the pipeline with outbound calls.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// TipFloorOracle reports the minimum competitive tip, in lamports, an
// external percentile service recommends right now (spec §4.4 step 3,
// §6).
type TipFloorOracle interface {
	TipFloor(ctx context.Context) (uint64, error)
}

// PriorityFeeLevel is the discrete fee tier the priority-fee oracle maps a
// micro-lamport recommendation onto (spec §4.4 step 7).
type PriorityFeeLevel int

const (
	PriorityFeeLow PriorityFeeLevel = iota
	PriorityFeeMedium
	PriorityFeeHigh
	PriorityFeeExtreme
)

func (l PriorityFeeLevel) String() string {
	switch l {
	case PriorityFeeLow:
		return "low"
	case PriorityFeeMedium:
		return "medium"
	case PriorityFeeHigh:
		return "high"
	case PriorityFeeExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// PriorityFeeOracle reports the current discrete priority-fee level (spec
// §4.4 step 7, §6: "{low, medium, high, very_high} ... in micro-lamports").
type PriorityFeeOracle interface {
	PriorityFee(ctx context.Context) (PriorityFeeLevel, error)
}

// HTTPTipFloorOracle polls a JSON HTTP endpoint returning
// {"tip_floor_lamports": N}, rate-limited so a slow or hostile oracle can't
// flood the pipeline with outbound calls.
type HTTPTipFloorOracle struct {
	URL     string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewHTTPTipFloorOracle returns an oracle client capped at ratePerSecond
// requests/second with a burst of 1.
func NewHTTPTipFloorOracle(url string, ratePerSecond float64) *HTTPTipFloorOracle {
	return &HTTPTipFloorOracle{
		URL:     url,
		Client:  &http.Client{Timeout: 3 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}
}

type tipFloorResponse struct {
	TipFloorLamports uint64 `json:"tip_floor_lamports"`
}

// TipFloor implements TipFloorOracle.
func (o *HTTPTipFloorOracle) TipFloor(ctx context.Context) (uint64, error) {
	if err := o.Limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("tip floor oracle: rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("tip floor oracle: build request: %w", err)
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("tip floor oracle: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tip floor oracle: status %d", resp.StatusCode)
	}
	var out tipFloorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("tip floor oracle: decode: %w", err)
	}
	return out.TipFloorLamports, nil
}

// HTTPPriorityFeeOracle polls a JSON HTTP endpoint returning
// {"low": N, "medium": N, "high": N, "very_high": N} micro-lamport
// recommendations and maps the caller's configured target percentile onto
// one of the four discrete levels.
type HTTPPriorityFeeOracle struct {
	URL     string
	Client  *http.Client
	Limiter *rate.Limiter
	// TargetMicroLamports is compared against the four returned
	// percentiles (descending) to pick the highest level whose percentile
	// it meets or exceeds; it defaults to the "medium" percentile's own value
	// when zero, which always selects PriorityFeeMedium.
	TargetMicroLamports uint64
}

// NewHTTPPriorityFeeOracle returns an oracle client capped at
// ratePerSecond requests/second with a burst of 1.
func NewHTTPPriorityFeeOracle(url string, ratePerSecond float64, targetMicroLamports uint64) *HTTPPriorityFeeOracle {
	return &HTTPPriorityFeeOracle{
		URL:                 url,
		Client:              &http.Client{Timeout: 3 * time.Second},
		Limiter:             rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		TargetMicroLamports: targetMicroLamports,
	}
}

type priorityFeeResponse struct {
	Low      uint64 `json:"low"`
	Medium   uint64 `json:"medium"`
	High     uint64 `json:"high"`
	VeryHigh uint64 `json:"very_high"`
}

// PriorityFee implements PriorityFeeOracle.
func (o *HTTPPriorityFeeOracle) PriorityFee(ctx context.Context) (PriorityFeeLevel, error) {
	if err := o.Limiter.Wait(ctx); err != nil {
		return PriorityFeeMedium, fmt.Errorf("priority fee oracle: rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL, nil)
	if err != nil {
		return PriorityFeeMedium, fmt.Errorf("priority fee oracle: build request: %w", err)
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return PriorityFeeMedium, fmt.Errorf("priority fee oracle: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return PriorityFeeMedium, fmt.Errorf("priority fee oracle: status %d", resp.StatusCode)
	}
	var out priorityFeeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return PriorityFeeMedium, fmt.Errorf("priority fee oracle: decode: %w", err)
	}
	target := o.TargetMicroLamports
	if target == 0 {
		target = out.Medium
	}
	switch {
	case target >= out.VeryHigh:
		return PriorityFeeExtreme, nil
	case target >= out.High:
		return PriorityFeeHigh, nil
	case target >= out.Medium:
		return PriorityFeeMedium, nil
	default:
		return PriorityFeeLow, nil
	}
}

// FixedPriorityFeeOracle is the baseline fallback used when a live oracle
// call fails (spec §4.4 step 7: "fall back to a fixed baseline on
// failure").
type FixedPriorityFeeOracle struct{ Level PriorityFeeLevel }

// PriorityFee implements PriorityFeeOracle.
func (f FixedPriorityFeeOracle) PriorityFee(context.Context) (PriorityFeeLevel, error) {
	return f.Level, nil
}
