package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTipFloorOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tip_floor_lamports": 12345}`))
	}))
	defer srv.Close()

	o := NewHTTPTipFloorOracle(srv.URL, 100)
	got, err := o.TipFloor(context.Background())
	if err != nil {
		t.Fatalf("TipFloor: %v", err)
	}
	if got != 12345 {
		t.Fatalf("TipFloor = %d, want 12345", got)
	}
}

func TestHTTPPriorityFeeOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"low":100,"medium":500,"high":2000,"very_high":10000}`))
	}))
	defer srv.Close()

	cases := []struct {
		target uint64
		want   PriorityFeeLevel
	}{
		{0, PriorityFeeMedium}, // target defaults to medium's own value
		{50, PriorityFeeLow},
		{500, PriorityFeeMedium},
		{3000, PriorityFeeHigh},
		{20000, PriorityFeeExtreme},
	}
	for _, c := range cases {
		o := NewHTTPPriorityFeeOracle(srv.URL, 100, c.target)
		got, err := o.PriorityFee(context.Background())
		if err != nil {
			t.Fatalf("PriorityFee(target=%d): %v", c.target, err)
		}
		if got != c.want {
			t.Errorf("PriorityFee(target=%d) = %v, want %v", c.target, got, c.want)
		}
	}
}

func TestFixedPriorityFeeOracleFallback(t *testing.T) {
	f := FixedPriorityFeeOracle{Level: PriorityFeeMedium}
	got, err := f.PriorityFee(context.Background())
	if err != nil {
		t.Fatalf("PriorityFee: %v", err)
	}
	if got != PriorityFeeMedium {
		t.Fatalf("PriorityFee = %v, want medium", got)
	}
}

func TestHTTPTipFloorOracleErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewHTTPTipFloorOracle(srv.URL, 100)
	if _, err := o.TipFloor(context.Background()); err == nil {
		t.Fatal("expected error on 500 status")
	}
}
