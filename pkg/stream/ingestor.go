package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/arqnet/solarb/internal/backoff"
	"github.com/arqnet/solarb/pkg/graph"
	"github.com/arqnet/solarb/pkg/scoring"
	"github.com/arqnet/solarb/pkg/telemetry"
	"github.com/arqnet/solarb/pkg/types"
)

// AccountDecoder decodes one pool program's raw account bytes into a
// PoolUpdate. mintA/mintB are the pool's known mints from discovery, used
// by decoders (like the bonding-curve one) whose raw layout doesn't carry
// both mint addresses itself.
type AccountDecoder interface {
	Decode(poolID types.PoolID, programID types.ProgramID, mintA, mintB types.TokenID, data []byte, timestamp int64) (types.PoolUpdate, error)
}

// DecoderRegistry resolves a pool's program to the decoder for its account
// layout (spec §6).
type DecoderRegistry map[types.ProgramID]AccountDecoder

// CPMMDecoder adapts DecodeCPMMAccount to AccountDecoder. FeeBps is
// supplied here because the raw CPMM layout doesn't carry a per-account
// fee field on most programs (spec §6).
type CPMMDecoder struct{ FeeBps uint16 }

func (d CPMMDecoder) Decode(poolID types.PoolID, programID types.ProgramID, _, _ types.TokenID, data []byte, timestamp int64) (types.PoolUpdate, error) {
	return DecodeCPMMAccount(poolID, programID, data, d.FeeBps, timestamp)
}

// CLMMDecoder adapts DecodeCLMMAccount to AccountDecoder.
type CLMMDecoder struct{}

func (CLMMDecoder) Decode(poolID types.PoolID, programID types.ProgramID, _, _ types.TokenID, data []byte, timestamp int64) (types.PoolUpdate, error) {
	return DecodeCLMMAccount(poolID, programID, data, timestamp)
}

// DLMMDecoder adapts DecodeDLMMAccount to AccountDecoder.
type DLMMDecoder struct{}

func (DLMMDecoder) Decode(poolID types.PoolID, programID types.ProgramID, _, _ types.TokenID, data []byte, timestamp int64) (types.PoolUpdate, error) {
	return DecodeDLMMAccount(poolID, programID, data, timestamp)
}

// BondingCurveDecoder adapts DecodeBondingCurveAccount to AccountDecoder,
// using the pool's discovered mints since the raw account carries only
// virtual reserves.
type BondingCurveDecoder struct{}

func (BondingCurveDecoder) Decode(poolID types.PoolID, programID types.ProgramID, mintA, mintB types.TokenID, data []byte, timestamp int64) (types.PoolUpdate, error) {
	return DecodeBondingCurveAccount(poolID, programID, mintA, mintB, data, timestamp)
}

// DiscoveredPool is one newly-created pool surfaced by a PoolDiscoverer
// (SPEC_FULL §6.9, grounded on original_source/engine/src/birth_watcher.rs
// and discovery.rs).
type DiscoveredPool struct {
	PoolID    types.PoolID
	ProgramID types.ProgramID
	MintA     types.TokenID
	MintB     types.TokenID
}

// PoolDiscoverer watches for newly created pools outside the set of
// already-monitored accounts.
type PoolDiscoverer interface {
	Discover(ctx context.Context) (<-chan DiscoveredPool, error)
}

// AccountFetcher performs the one-shot RPC hydration call for a
// newly-discovered pool's initial account state (spec §5 hydration
// throttle).
type AccountFetcher interface {
	FetchAccount(ctx context.Context, poolID types.PoolID) ([]byte, error)
}

type poolMeta struct {
	ProgramID types.ProgramID
	MintA     types.TokenID
	MintB     types.TokenID
}

// Ingestor subscribes to program logs and pool account updates, decodes
// and dedupes them, and applies them to the market graph and scoring
// table (spec §4, §5, §6, §9).
type Ingestor struct {
	source     WSSource
	programIDs []string
	decoders   DecoderRegistry
	fetcher    AccountFetcher    // optional
	discoverer PoolDiscoverer    // optional
	graph      *graph.MarketGraph
	scoring    *scoring.Table
	telemetry  telemetry.Port
	onUpdate   func(types.PoolUpdate) // e.g. trigger cycle search; optional

	hydrationSem *semaphore.Weighted

	mu          sync.Mutex
	known       map[types.PoolID]poolMeta
	lastApplied map[types.PoolID]int64

	now       func() int64
	reconnect backoff.Policy
}

// Config bundles an Ingestor's construction parameters.
type Config struct {
	ProgramIDs []string
	KnownPools map[types.PoolID]poolMeta
	Decoders   DecoderRegistry
	Fetcher    AccountFetcher
	Discoverer PoolDiscoverer
	OnUpdate   func(types.PoolUpdate)
	Now        func() int64
}

// New builds an Ingestor wired to graph and scoring.
func New(source WSSource, cfg Config, g *graph.MarketGraph, sc *scoring.Table, tel telemetry.Port) *Ingestor {
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	known := cfg.KnownPools
	if known == nil {
		known = make(map[types.PoolID]poolMeta)
	}
	return &Ingestor{
		source:       source,
		programIDs:   cfg.ProgramIDs,
		decoders:     cfg.Decoders,
		fetcher:      cfg.Fetcher,
		discoverer:   cfg.Discoverer,
		graph:        g,
		scoring:      sc,
		telemetry:    tel,
		onUpdate:     cfg.OnUpdate,
		hydrationSem: semaphore.NewWeighted(3),
		known:        known,
		lastApplied:  make(map[types.PoolID]int64),
		now:          now,
		reconnect:    backoff.ReconnectPolicy,
	}
}

// Run drives the ingestor until ctx is canceled, reconnecting the
// websocket with exponential backoff + jitter capped at 60s (spec §5) and
// supervising the optional discovery loop with first-error propagation via
// errgroup (SPEC_FULL §4: golang.org/x/sync/errgroup).
func (ig *Ingestor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ig.runStreamLoop(gctx) })
	if ig.discoverer != nil {
		g.Go(func() error { return ig.runDiscoveryLoop(gctx) })
	}
	return g.Wait()
}

func (ig *Ingestor) runStreamLoop(ctx context.Context) error {
	attempt := 1
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		poolIDs := ig.knownPoolIDs()
		msgs, err := ig.source.Connect(ctx, ig.programIDs, poolIDs)
		if err != nil {
			if !ig.sleepBackoff(ctx, attempt) {
				return ctx.Err()
			}
			attempt++
			continue
		}
		attempt = 1

		for msg := range msgs {
			ig.handleMessage(ctx, msg)
		}
		// channel closed: connection dropped, reconnect with backoff.
		if !ig.sleepBackoff(ctx, attempt) {
			return ctx.Err()
		}
		attempt++
	}
}

func (ig *Ingestor) sleepBackoff(ctx context.Context, attempt int) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(ig.reconnect.Delay(attempt)):
		return true
	}
}

func (ig *Ingestor) runDiscoveryLoop(ctx context.Context) error {
	events, err := ig.discoverer.Discover(ctx)
	if err != nil {
		return types.NewError(types.KindInfra, "stream.runDiscoveryLoop", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			ig.handleDiscovery(ctx, ev)
		}
	}
}

func (ig *Ingestor) handleDiscovery(ctx context.Context, ev DiscoveredPool) {
	ig.mu.Lock()
	ig.known[ev.PoolID] = poolMeta{ProgramID: ev.ProgramID, MintA: ev.MintA, MintB: ev.MintB}
	ig.mu.Unlock()

	if err := ig.source.SubscribePool(ctx, string(ev.PoolID)); err != nil {
		return
	}
	if ig.fetcher == nil {
		return
	}

	// Hydration throttle: at most 3 concurrent fetch calls; excess
	// discovery events are dropped and counted (spec §5).
	if !ig.hydrationSem.TryAcquire(1) {
		if ig.telemetry != nil {
			ig.telemetry.RejectOpportunity("hydration_dropped")
		}
		return
	}
	go func() {
		defer ig.hydrationSem.Release(1)
		data, err := ig.fetcher.FetchAccount(ctx, ev.PoolID)
		if err != nil {
			return
		}
		ig.decodeAndApply(ev.PoolID, ev.ProgramID, ev.MintA, ev.MintB, data)
	}()
}

// accountNotificationParams is the {"value":{"data":[base64,encoding]}}
// shape wrapping an accountSubscribe notification (spec §6: "encoding:
// base64").
type accountNotificationParams struct {
	Value struct {
		Data [2]string `json:"data"`
	} `json:"value"`
}

func (ig *Ingestor) handleMessage(ctx context.Context, msg RawMessage) {
	if msg.Method != "accountNotification" || msg.PoolID == "" {
		return
	}
	var params accountNotificationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return // Parse error: drop the message, no state mutation (spec §7).
	}
	data, err := base64.StdEncoding.DecodeString(params.Value.Data[0])
	if err != nil {
		return
	}

	poolID := types.PoolID(msg.PoolID)
	ig.mu.Lock()
	meta, ok := ig.known[poolID]
	ig.mu.Unlock()
	if !ok {
		return // pool was neither discovered nor hydrated by this ingestor
	}
	ig.decodeAndApply(poolID, meta.ProgramID, meta.MintA, meta.MintB, data)
}

func (ig *Ingestor) decodeAndApply(poolID types.PoolID, programID types.ProgramID, mintA, mintB types.TokenID, data []byte) {
	decoder, ok := ig.decoders[programID]
	if !ok {
		return
	}
	now := ig.now()
	update, err := decoder.Decode(poolID, programID, mintA, mintB, data, now)
	if err != nil {
		return // Parse error: message dropped without being logged or counted (spec §7).
	}

	ig.mu.Lock()
	last, seen := ig.lastApplied[poolID]
	if seen && update.Timestamp <= last {
		ig.mu.Unlock()
		return // dedupe: stale or duplicate snapshot for this pool
	}
	ig.lastApplied[poolID] = update.Timestamp
	ig.known[poolID] = poolMeta{ProgramID: programID, MintA: update.MintA, MintB: update.MintB}
	ig.mu.Unlock()

	ig.graph.ApplyUpdate(update)
	if ig.scoring != nil {
		ig.scoring.RecordActivity(string(poolID), now)
	}
	if ig.telemetry != nil {
		ig.telemetry.SetPoolCount(ig.graph.PoolCount())
	}
	if ig.onUpdate != nil {
		ig.onUpdate(update)
	}
}

func (ig *Ingestor) knownPoolIDs() []string {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	ids := make([]string, 0, len(ig.known))
	for id := range ig.known {
		ids = append(ids, string(id))
	}
	return ids
}
