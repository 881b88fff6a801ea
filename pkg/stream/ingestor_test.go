package stream

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"
	"time"

	"github.com/arqnet/solarb/pkg/graph"
	"github.com/arqnet/solarb/pkg/scoring"
	"github.com/arqnet/solarb/pkg/telemetry"
	"github.com/arqnet/solarb/pkg/types"
)

type fakeSource struct {
	out        chan RawMessage
	connected  chan struct{}
	subscribed []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{out: make(chan RawMessage, 16), connected: make(chan struct{}, 1)}
}

func (f *fakeSource) Connect(ctx context.Context, programIDs, poolIDs []string) (<-chan RawMessage, error) {
	select {
	case f.connected <- struct{}{}:
	default:
	}
	return f.out, nil
}

func (f *fakeSource) SubscribePool(ctx context.Context, poolID string) error {
	f.subscribed = append(f.subscribed, poolID)
	return nil
}

func (f *fakeSource) Close() error { return nil }

func cpmmAccountBytes(feeSeed uint16) []byte {
	data := make([]byte, cpmmAccountLen)
	var mintA, mintB types.TokenID
	mintA[0] = 0xAA
	mintB[0] = 0xBB
	copy(data[cpmmMintAOffset:], mintA[:])
	copy(data[cpmmMintBOffset:], mintB[:])
	binary.LittleEndian.PutUint64(data[cpmmBaseReserveOff:], 1_000_000+uint64(feeSeed))
	binary.LittleEndian.PutUint64(data[cpmmQuoteReserveOff:], 2_000_000)
	return data
}

func accountNotification(poolID string, data []byte) RawMessage {
	payload := accountNotificationParams{}
	payload.Value.Data[0] = base64.StdEncoding.EncodeToString(data)
	payload.Value.Data[1] = "base64"
	raw, _ := json.Marshal(payload)
	return RawMessage{Method: "accountNotification", PoolID: poolID, Params: raw}
}

func TestIngestorDecodesAndAppliesUpdate(t *testing.T) {
	src := newFakeSource()
	g := graph.New()
	sc := scoring.New()

	poolID := types.PoolID("pool-1")
	programID := types.ProgramID("cpmm-program")
	var mintA, mintB types.TokenID
	mintA[0] = 0xAA
	mintB[0] = 0xBB

	var received types.PoolUpdate
	ig := New(src, Config{
		ProgramIDs: []string{string(programID)},
		KnownPools: map[types.PoolID]poolMeta{
			poolID: {ProgramID: programID, MintA: mintA, MintB: mintB},
		},
		Decoders: DecoderRegistry{programID: CPMMDecoder{FeeBps: 25}},
		OnUpdate: func(u types.PoolUpdate) { received = u },
		Now:      func() int64 { return 100 },
	}, g, sc, &telemetry.Noop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ig.Run(ctx)

	<-src.connected
	src.out <- accountNotification(string(poolID), cpmmAccountBytes(1))

	deadline := time.After(time.Second)
	for received.PoolID == "" {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for update to apply")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if received.Variant.Kind != types.VariantCPMM {
		t.Fatalf("expected CPMM variant, got %v", received.Variant.Kind)
	}
	if g.PoolCount() != 1 {
		t.Fatalf("expected 1 pool in graph, got %d", g.PoolCount())
	}
	if sc.Len() != 1 {
		t.Fatalf("expected 1 scored pool, got %d", sc.Len())
	}
}

func TestIngestorDedupesStaleTimestamp(t *testing.T) {
	src := newFakeSource()
	g := graph.New()
	sc := scoring.New()

	poolID := types.PoolID("pool-1")
	programID := types.ProgramID("cpmm-program")
	var mintA, mintB types.TokenID
	mintA[0] = 0xAA
	mintB[0] = 0xBB

	callCount := 0
	tickTime := int64(100)
	ig := New(src, Config{
		KnownPools: map[types.PoolID]poolMeta{
			poolID: {ProgramID: programID, MintA: mintA, MintB: mintB},
		},
		Decoders: DecoderRegistry{programID: CPMMDecoder{FeeBps: 25}},
		OnUpdate: func(types.PoolUpdate) { callCount++ },
		Now:      func() int64 { return tickTime },
	}, g, sc, &telemetry.Noop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ig.Run(ctx)

	<-src.connected
	src.out <- accountNotification(string(poolID), cpmmAccountBytes(1))
	time.Sleep(20 * time.Millisecond)
	// Same timestamp, should be deduped.
	src.out <- accountNotification(string(poolID), cpmmAccountBytes(2))
	time.Sleep(20 * time.Millisecond)

	if callCount != 1 {
		t.Fatalf("expected exactly 1 applied update, got %d", callCount)
	}
}

func TestIngestorDropsMessageForUnknownPool(t *testing.T) {
	src := newFakeSource()
	g := graph.New()
	sc := scoring.New()

	ig := New(src, Config{
		Decoders: DecoderRegistry{},
		Now:      func() int64 { return 1 },
	}, g, sc, &telemetry.Noop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ig.Run(ctx)

	<-src.connected
	src.out <- accountNotification("unknown-pool", cpmmAccountBytes(1))
	time.Sleep(20 * time.Millisecond)

	if g.PoolCount() != 0 {
		t.Fatalf("expected no pools applied, got %d", g.PoolCount())
	}
}

type stubDiscoverer struct {
	events chan DiscoveredPool
}

func (d *stubDiscoverer) Discover(ctx context.Context) (<-chan DiscoveredPool, error) {
	return d.events, nil
}

type stubFetcher struct {
	data []byte
}

func (f *stubFetcher) FetchAccount(ctx context.Context, poolID types.PoolID) ([]byte, error) {
	return f.data, nil
}

func TestIngestorHydratesDiscoveredPool(t *testing.T) {
	src := newFakeSource()
	g := graph.New()
	sc := scoring.New()

	poolID := types.PoolID("new-pool")
	programID := types.ProgramID("cpmm-program")
	var mintA, mintB types.TokenID
	mintA[0] = 0xAA
	mintB[0] = 0xBB

	discoverer := &stubDiscoverer{events: make(chan DiscoveredPool, 1)}
	ig := New(src, Config{
		Decoders:   DecoderRegistry{programID: CPMMDecoder{FeeBps: 30}},
		Discoverer: discoverer,
		Fetcher:    &stubFetcher{data: cpmmAccountBytes(1)},
		Now:        func() int64 { return 50 },
	}, g, sc, &telemetry.Noop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ig.Run(ctx)
	<-src.connected

	discoverer.events <- DiscoveredPool{PoolID: poolID, ProgramID: programID, MintA: mintA, MintB: mintB}

	deadline := time.After(time.Second)
	for g.PoolCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for hydration to apply")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if len(src.subscribed) != 1 || src.subscribed[0] != string(poolID) {
		t.Fatalf("expected a SubscribePool call for the discovered pool, got %v", src.subscribed)
	}
}

func TestIngestorHandlesParseErrorGracefully(t *testing.T) {
	src := newFakeSource()
	g := graph.New()
	sc := scoring.New()
	poolID := types.PoolID("pool-1")
	programID := types.ProgramID("cpmm-program")

	ig := New(src, Config{
		KnownPools: map[types.PoolID]poolMeta{poolID: {ProgramID: programID}},
		Decoders:   DecoderRegistry{programID: CPMMDecoder{FeeBps: 1}},
		Now:        func() int64 { return 1 },
	}, g, sc, &telemetry.Noop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ig.Run(ctx)
	<-src.connected

	src.out <- accountNotification(string(poolID), []byte("too short"))
	time.Sleep(20 * time.Millisecond)

	if g.PoolCount() != 0 {
		t.Fatal("expected short buffer to be dropped, not applied")
	}
}
