package config

import (
	"io"

	toml "github.com/pelletier/go-toml/v2"
)

type printedConfig struct {
	Service  printedService  `toml:"service"`
	HTTP     printedHTTP     `toml:"http"`
	GRPC     printedGRPC     `toml:"grpc"`
	Store    printedStore    `toml:"store"`
	Log      printedLog      `toml:"log"`
	Trace    printedTrace    `toml:"trace"`
	Metrics  printedMetrics  `toml:"metrics"`
	Demo     printedDemo     `toml:"demo"`
	Shutdown printedShutdown `toml:"shutdown"`
}

type printedService struct {
	Name string `toml:"name"`
}

type printedHTTP struct {
	Addr         string `toml:"addr"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	IdleTimeout  string `toml:"idle_timeout"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

type printedGRPC struct {
	Enabled   bool   `toml:"enabled"`
	Addr      string `toml:"addr"`
	KeepAlive string `toml:"keepalive"`
}

type printedStore struct {
	Driver     string `toml:"driver"`
	SQLitePath string `toml:"sqlite_path"`
}

type printedLog struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type printedTrace struct {
	Enabled     bool    `toml:"enabled"`
	Exporter    string  `toml:"exporter"`
	SampleRatio float64 `toml:"sample_ratio"`
}

type printedMetrics struct {
	Enabled bool `toml:"enabled"`
}

type printedDemo struct {
	FetchMinDelay   string  `toml:"fetch_min_delay"`
	FetchMaxDelay   string  `toml:"fetch_max_delay"`
	TimeoutDelay    string  `toml:"timeout_delay"`
	RandomErrorRate float64 `toml:"random_error_rate"`
	RandomSeed      uint64  `toml:"random_seed"`
}

type printedShutdown struct {
	DrainTimeout string `toml:"drain_timeout"`
}

// Print writes the effective configuration as a TOML document that Load
// accepts back as a config file.
func Print(w io.Writer, cfg *Config) error {
	if cfg == nil {
		cfg = Default()
	}
	doc := printedConfig{
		Service: printedService{Name: cfg.ServiceName},
		HTTP: printedHTTP{
			Addr:         cfg.HTTPListenAddr,
			ReadTimeout:  cfg.HTTPReadTimeout.String(),
			WriteTimeout: cfg.HTTPWriteTimeout.String(),
			IdleTimeout:  cfg.HTTPIdleTimeout.String(),
			MaxBodyBytes: cfg.MaxBodyBytes,
		},
		GRPC: printedGRPC{
			Enabled:   cfg.EnableGRPC,
			Addr:      cfg.GRPCListenAddr,
			KeepAlive: cfg.GRPCKeepAlive.String(),
		},
		Store: printedStore{Driver: cfg.StoreDriver, SQLitePath: cfg.SQLitePath},
		Log: printedLog{
			Level:     cfg.LogLevel,
			Format:    cfg.LogFormat,
			File:      cfg.LogFile,
			MaxSizeMB: cfg.LogMaxSizeMB,
			MaxFiles:  cfg.LogMaxFiles,
		},
		Trace: printedTrace{
			Enabled:     cfg.TraceEnabled,
			Exporter:    cfg.TraceExporter,
			SampleRatio: cfg.TraceSampleRatio,
		},
		Metrics: printedMetrics{Enabled: cfg.MetricsEnabled},
		Demo: printedDemo{
			FetchMinDelay:   cfg.FetchMinDelay.String(),
			FetchMaxDelay:   cfg.FetchMaxDelay.String(),
			TimeoutDelay:    cfg.TimeoutDelay.String(),
			RandomErrorRate: cfg.RandomErrorRate,
			RandomSeed:      cfg.RandomSeed,
		},
		Shutdown: printedShutdown{DrainTimeout: cfg.DrainTimeout.String()},
	}
	enc := toml.NewEncoder(w)
	return enc.Encode(doc)
}
