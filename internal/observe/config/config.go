// Package config provides configuration for the application wiring.
package config

import (
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"observe/internal/observe/core"
	"observe/internal/observe/observability"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config captures dependency and runtime settings.
type Config struct {
	ServiceName      string
	HTTPListenAddr   string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	MaxBodyBytes     int64
	EnableGRPC       bool
	GRPCListenAddr   string
	GRPCKeepAlive    time.Duration
	StoreDriver      string
	SQLitePath       string
	LogLevel         string
	LogFormat        string
	LogFile          string
	LogMaxSizeMB     int
	LogMaxFiles      int
	TraceEnabled     bool
	TraceExporter    string
	TraceSampleRatio float64
	MetricsEnabled   bool
	FetchMinDelay    time.Duration
	FetchMaxDelay    time.Duration
	TimeoutDelay     time.Duration
	RandomErrorRate  float64
	RandomSeed       uint64
	DrainTimeout     time.Duration
	Store            core.SampleStore
	Simulator        *core.Simulator
	Metrics          *observability.PromMetrics
	TracerProvider   *sdktrace.TracerProvider
	Logger           observability.Logger
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		ServiceName:      "observe",
		HTTPListenAddr:   ":8000",
		HTTPReadTimeout:  5 * time.Second,
		HTTPWriteTimeout: 30 * time.Second,
		HTTPIdleTimeout:  60 * time.Second,
		MaxBodyBytes:     1 << 20,
		EnableGRPC:       false,
		GRPCListenAddr:   ":9090",
		GRPCKeepAlive:    60 * time.Second,
		StoreDriver:      StoreSQLite,
		SQLitePath:       "data/observe.db",
		LogLevel:         "info",
		LogFormat:        "json",
		LogMaxSizeMB:     10,
		LogMaxFiles:      5,
		TraceEnabled:     true,
		TraceExporter:    "stdout",
		TraceSampleRatio: 1,
		MetricsEnabled:   true,
		FetchMinDelay:    core.DefaultFetchMinDelay,
		FetchMaxDelay:    core.DefaultFetchMaxDelay,
		TimeoutDelay:     core.DefaultTimeoutDelay,
		RandomErrorRate:  core.DefaultRandomErrorRate,
		DrainTimeout:     5 * time.Second,
	}
}
