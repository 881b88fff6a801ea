package main

import (
	"os"
	"strconv"
	"strings"
)

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvUint64(key string, def uint64) uint64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Config holds every runtime knob the engine reads from its environment.
// The core packages never read env vars themselves (SPEC_FULL §3): this is
// the one place configuration is resolved, matching the teacher's
// loadConfigFromEnv pattern in config.go.
type Config struct {
	Port int

	WSEndpoint string
	ProgramIDs []string
	AnchorMint string

	MaxHops           int
	MaxPriceImpactBps uint32
	InitialAmount     uint64
	SearchIntervalMs  int

	TipPercentage         float64
	TipFloorLamports      uint64
	TipCeilingLamports    uint64
	MinNetProfitLamports  uint64
	BaseSlippageBps       uint32
	SlippageCeilingBps    uint32
	VolatilitySensitivity float64

	MinLiquidityLamports uint64
	SafetyCacheSize      int
	SafetyPositiveTTLSec int
	SafetyNegativeTTLSec int

	TipFloorOracleURL     string
	PriorityFeeOracleURL  string
	OracleRateLimitPerSec float64

	ConfidenceModelEnabled bool
	VolatilityWindow       int

	MaxDailyTrades       uint64
	MaxDailyVolume       uint64
	MaxDailyLossLamports uint64
}

func loadConfigFromEnv() Config {
	return Config{
		Port: getEnvInt("PORT", 9090),

		WSEndpoint: getEnv("WS_ENDPOINT", "wss://api.mainnet-beta.solana.com"),
		ProgramIDs: getEnvList("PROGRAM_IDS"),
		AnchorMint: getEnv("ANCHOR_MINT", ""),

		MaxHops:           getEnvInt("MAX_HOPS", 3),
		MaxPriceImpactBps: uint32(getEnvInt("MAX_PRICE_IMPACT_BPS", 100)),
		InitialAmount:     getEnvUint64("INITIAL_AMOUNT_LAMPORTS", 1_000_000_000),
		SearchIntervalMs:  getEnvInt("SEARCH_INTERVAL_MS", 250),

		TipPercentage:         getEnvFloat("TIP_PERCENTAGE", 0.5),
		TipFloorLamports:      getEnvUint64("TIP_FLOOR_LAMPORTS", 1_000),
		TipCeilingLamports:    getEnvUint64("TIP_CEILING_LAMPORTS", 10_000_000),
		MinNetProfitLamports:  getEnvUint64("MIN_NET_PROFIT_LAMPORTS", 5_000),
		BaseSlippageBps:       uint32(getEnvInt("BASE_SLIPPAGE_BPS", 50)),
		SlippageCeilingBps:    uint32(getEnvInt("SLIPPAGE_CEILING_BPS", 300)),
		VolatilitySensitivity: getEnvFloat("VOLATILITY_SENSITIVITY", 1.0),

		MinLiquidityLamports: getEnvUint64("MIN_LIQUIDITY_LAMPORTS", 10_000_000),
		SafetyCacheSize:      getEnvInt("SAFETY_CACHE_SIZE", 4096),
		SafetyPositiveTTLSec: getEnvInt("SAFETY_POSITIVE_TTL_SEC", 300),
		SafetyNegativeTTLSec: getEnvInt("SAFETY_NEGATIVE_TTL_SEC", 30),

		TipFloorOracleURL:     getEnv("TIP_FLOOR_ORACLE_URL", ""),
		PriorityFeeOracleURL:  getEnv("PRIORITY_FEE_ORACLE_URL", ""),
		OracleRateLimitPerSec: getEnvFloat("ORACLE_RATE_LIMIT_PER_SEC", 2.0),

		ConfidenceModelEnabled: getEnvBool("CONFIDENCE_MODEL_ENABLED", false),
		VolatilityWindow:       getEnvInt("VOLATILITY_WINDOW", 20),

		MaxDailyTrades:       getEnvUint64("MAX_DAILY_TRADES", 0),
		MaxDailyVolume:       getEnvUint64("MAX_DAILY_VOLUME_LAMPORTS", 0),
		MaxDailyLossLamports: getEnvUint64("MAX_DAILY_LOSS_LAMPORTS", 0),
	}
}
