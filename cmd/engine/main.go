// Package main wires the market graph, opportunity pipeline, execution
// engine, and stream ingestor into a running process. It is deliberately
// thin: the wallet signer, bundle endpoint, fallback submitter,
// confirmation client and swap instruction builder are logging stubs
// (stubs.go) an operator swaps out for real ones (SPEC_FULL §2, §8). No
// safety data sources are wired (the validator runs an empty check chain)
// and no RPC hydration fetcher is set on the ingestor.
//
// Boot sequence mirrors the teacher's main.go: load config from env,
// wire components, start the /healthz + /metrics HTTP server, run until
// interrupted, then shut the server down gracefully.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arqnet/solarb/pkg/confidence"
	"github.com/arqnet/solarb/pkg/exec"
	"github.com/arqnet/solarb/pkg/graph"
	"github.com/arqnet/solarb/pkg/oracle"
	"github.com/arqnet/solarb/pkg/pipeline"
	"github.com/arqnet/solarb/pkg/risk"
	"github.com/arqnet/solarb/pkg/safety"
	"github.com/arqnet/solarb/pkg/scoring"
	"github.com/arqnet/solarb/pkg/stream"
	"github.com/arqnet/solarb/pkg/telemetry"
	"github.com/arqnet/solarb/pkg/types"
	"github.com/arqnet/solarb/pkg/volatility"
)

func main() {
	cfg := loadConfigFromEnv()

	anchor, err := types.TokenFromHex(cfg.AnchorMint)
	if err != nil {
		log.Fatalf("engine: ANCHOR_MINT: %v", err)
	}

	reg := prometheus.NewRegistry()
	tel := telemetry.NewProm(reg)

	g := graph.New()
	sc := scoring.New()
	scaler := risk.NewScaler()

	safetyValidator, err := safety.New(safety.Config{
		CacheSize:            cfg.SafetyCacheSize,
		PositiveTTL:          time.Duration(cfg.SafetyPositiveTTLSec) * time.Second,
		NegativeTTL:          time.Duration(cfg.SafetyNegativeTTLSec) * time.Second,
		MinLiquidityLamports: cfg.MinLiquidityLamports,
	})
	if err != nil {
		log.Fatalf("engine: safety.New: %v", err)
	}

	var tipFloor oracle.TipFloorOracle
	if cfg.TipFloorOracleURL != "" {
		tipFloor = oracle.NewHTTPTipFloorOracle(cfg.TipFloorOracleURL, cfg.OracleRateLimitPerSec)
	}
	var priorityFee oracle.PriorityFeeOracle = oracle.FixedPriorityFeeOracle{Level: oracle.PriorityFeeMedium}
	if cfg.PriorityFeeOracleURL != "" {
		priorityFee = oracle.NewHTTPPriorityFeeOracle(cfg.PriorityFeeOracleURL, cfg.OracleRateLimitPerSec, 0)
	}

	volTracker := volatility.NewWithWindow(cfg.VolatilityWindow)

	var confidenceModel pipeline.ConfidencePort
	if cfg.ConfidenceModelEnabled {
		confidenceModel = confidence.New(nil)
	}

	pl := pipeline.New(scaler, safetyValidator, tel, pipeline.Config{
		TipPercentage:         cfg.TipPercentage,
		TipFloorLamports:      cfg.TipFloorLamports,
		TipCeilingLamports:    cfg.TipCeilingLamports,
		MinNetProfitThreshold: cfg.MinNetProfitLamports,
		BaseSlippageBps:       cfg.BaseSlippageBps,
		SlippageCeilingBps:    cfg.SlippageCeilingBps,
		VolatilitySensitivity: cfg.VolatilitySensitivity,
		FallbackPriorityFee:   oracle.PriorityFeeMedium,
		DailyLimits: risk.DailyLimits{
			MaxTrades: cfg.MaxDailyTrades,
			MaxVolume: cfg.MaxDailyVolume,
			MaxLoss:   cfg.MaxDailyLossLamports,
		},
	}, confidenceModel, volTracker, tipFloor, priorityFee)

	builders := exec.BuilderRegistry{}
	for _, p := range cfg.ProgramIDs {
		builders[types.ProgramID(p)] = loggingBuilder{}
	}
	assembler := exec.NewAssembler(builders, nil, nil)
	engine := exec.NewEngine(assembler, loggingSigner{},
		[]exec.BundleEndpoint{loggingBundleEndpoint{name: "primary"}},
		loggingFallback{}, loggingConfirmer{}, tel)
	engine.SetRiskRecorder(scaler)

	finder := graph.NewCycleFinder(g)

	ingestor := stream.New(stream.NewWSClient(cfg.WSEndpoint), stream.Config{
		ProgramIDs: cfg.ProgramIDs,
		Decoders: stream.DecoderRegistry{
			// Operators register one decoder per live program id; none are
			// wired by default since the account layout a given on-chain
			// program actually uses isn't knowable from an env var alone.
		},
		OnUpdate: func(u types.PoolUpdate) {
			volTracker.Observe(u.PoolID, u.Variant)
		},
	}, g, sc, tel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := ingestor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("engine: ingestor stopped: %v", err)
		}
	}()

	go runSearchLoop(ctx, finder, pl, engine, tel, anchor, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("engine: serving /healthz and /metrics on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("engine: http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("engine: shutting down")

	shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// runSearchLoop polls the cycle finder on a fixed cadence, runs any
// candidate through the opportunity pipeline, and dispatches whatever
// clears every gate (spec §4.3, §4.4, §4.5). Reacting to every individual
// pool update would thrash the finder under load; a fixed-interval poll
// bounds search frequency independent of ingestion rate (spec §5).
func runSearchLoop(ctx context.Context, finder *graph.CycleFinder, pl *pipeline.Pipeline, engine *exec.Engine, tel telemetry.Port, anchor types.TokenID, cfg Config) {
	ticker := time.NewTicker(time.Duration(cfg.SearchIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			opp, found := finder.Find(graph.CycleFinderParams{
				Anchor:            anchor,
				InitialAmount:     cfg.InitialAmount,
				MaxHops:           cfg.MaxHops,
				MaxPriceImpactBps: cfg.MaxPriceImpactBps,
			})
			tel.RecordCycleSearch(time.Since(start).Seconds(), found)
			if !found {
				continue
			}

			dispatch, rejectErr := pl.Process(ctx, opp)
			if rejectErr != nil {
				continue
			}

			if _, err := engine.Dispatch(ctx, dispatch.Opportunity, dispatch.TipLamports, dispatch.MinAmountOutFinal); err != nil {
				log.Printf("engine: dispatch failed: %v", err)
			}
		}
	}
}
