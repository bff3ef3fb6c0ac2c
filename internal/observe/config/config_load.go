// Package config provides configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// ErrInvalidConfig marks configuration that could not be parsed.
var ErrInvalidConfig = errors.New("invalid config")

// LoadOptions controls config loading.
type LoadOptions struct {
	ConfigPath string
	Environ    []string
	Flags      *pflag.FlagSet
}

// Load builds configuration from defaults, file, env, and flags.
func Load(opts LoadOptions) (*Config, error) {
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = envMap(environ)[envPrefix+"CONFIG"]
	}
	if opts.Flags != nil && opts.Flags.Changed(FlagConfig) {
		value, err := opts.Flags.GetString(FlagConfig)
		if err != nil {
			return nil, err
		}
		configPath = value
	}

	cfg := Default()
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(cfg, environ); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, opts.Flags); err != nil {
		return nil, err
	}
	return cfg, nil
}

type rawConfig struct {
	Service  *rawService  `toml:"service"`
	HTTP     *rawHTTP     `toml:"http"`
	GRPC     *rawGRPC     `toml:"grpc"`
	Store    *rawStore    `toml:"store"`
	Log      *rawLog      `toml:"log"`
	Trace    *rawTrace    `toml:"trace"`
	Metrics  *rawMetrics  `toml:"metrics"`
	Demo     *rawDemo     `toml:"demo"`
	Shutdown *rawShutdown `toml:"shutdown"`
}

type rawService struct {
	Name *string `toml:"name"`
}

type rawHTTP struct {
	Addr         *string `toml:"addr"`
	ReadTimeout  *string `toml:"read_timeout"`
	WriteTimeout *string `toml:"write_timeout"`
	IdleTimeout  *string `toml:"idle_timeout"`
	MaxBodyBytes *int64  `toml:"max_body_bytes"`
}

type rawGRPC struct {
	Enabled   *bool   `toml:"enabled"`
	Addr      *string `toml:"addr"`
	KeepAlive *string `toml:"keepalive"`
}

type rawStore struct {
	Driver     *string `toml:"driver"`
	SQLitePath *string `toml:"sqlite_path"`
}

type rawLog struct {
	Level     *string `toml:"level"`
	Format    *string `toml:"format"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

type rawTrace struct {
	Enabled     *bool    `toml:"enabled"`
	Exporter    *string  `toml:"exporter"`
	SampleRatio *float64 `toml:"sample_ratio"`
}

type rawMetrics struct {
	Enabled *bool `toml:"enabled"`
}

type rawDemo struct {
	FetchMinDelay   *string  `toml:"fetch_min_delay"`
	FetchMaxDelay   *string  `toml:"fetch_max_delay"`
	TimeoutDelay    *string  `toml:"timeout_delay"`
	RandomErrorRate *float64 `toml:"random_error_rate"`
	RandomSeed      *uint64  `toml:"random_seed"`
}

type rawShutdown struct {
	DrainTimeout *string `toml:"drain_timeout"`
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}
	return applyRawConfig(cfg, raw)
}

func applyRawConfig(cfg *Config, raw rawConfig) error {
	if raw.Service != nil {
		setString(raw.Service.Name, &cfg.ServiceName)
	}
	if raw.HTTP != nil {
		setString(raw.HTTP.Addr, &cfg.HTTPListenAddr)
		if err := setDuration("http.read_timeout", raw.HTTP.ReadTimeout, &cfg.HTTPReadTimeout); err != nil {
			return err
		}
		if err := setDuration("http.write_timeout", raw.HTTP.WriteTimeout, &cfg.HTTPWriteTimeout); err != nil {
			return err
		}
		if err := setDuration("http.idle_timeout", raw.HTTP.IdleTimeout, &cfg.HTTPIdleTimeout); err != nil {
			return err
		}
		if raw.HTTP.MaxBodyBytes != nil {
			cfg.MaxBodyBytes = *raw.HTTP.MaxBodyBytes
		}
	}
	if raw.GRPC != nil {
		if raw.GRPC.Enabled != nil {
			cfg.EnableGRPC = *raw.GRPC.Enabled
		}
		setString(raw.GRPC.Addr, &cfg.GRPCListenAddr)
		if err := setDuration("grpc.keepalive", raw.GRPC.KeepAlive, &cfg.GRPCKeepAlive); err != nil {
			return err
		}
	}
	if raw.Store != nil {
		setString(raw.Store.Driver, &cfg.StoreDriver)
		setString(raw.Store.SQLitePath, &cfg.SQLitePath)
	}
	if raw.Log != nil {
		setString(raw.Log.Level, &cfg.LogLevel)
		setString(raw.Log.Format, &cfg.LogFormat)
		setString(raw.Log.File, &cfg.LogFile)
		if raw.Log.MaxSizeMB != nil {
			cfg.LogMaxSizeMB = *raw.Log.MaxSizeMB
		}
		if raw.Log.MaxFiles != nil {
			cfg.LogMaxFiles = *raw.Log.MaxFiles
		}
	}
	if raw.Trace != nil {
		if raw.Trace.Enabled != nil {
			cfg.TraceEnabled = *raw.Trace.Enabled
		}
		setString(raw.Trace.Exporter, &cfg.TraceExporter)
		if raw.Trace.SampleRatio != nil {
			cfg.TraceSampleRatio = *raw.Trace.SampleRatio
		}
	}
	if raw.Metrics != nil && raw.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *raw.Metrics.Enabled
	}
	if raw.Demo != nil {
		if err := setDuration("demo.fetch_min_delay", raw.Demo.FetchMinDelay, &cfg.FetchMinDelay); err != nil {
			return err
		}
		if err := setDuration("demo.fetch_max_delay", raw.Demo.FetchMaxDelay, &cfg.FetchMaxDelay); err != nil {
			return err
		}
		if err := setDuration("demo.timeout_delay", raw.Demo.TimeoutDelay, &cfg.TimeoutDelay); err != nil {
			return err
		}
		if raw.Demo.RandomErrorRate != nil {
			cfg.RandomErrorRate = *raw.Demo.RandomErrorRate
		}
		if raw.Demo.RandomSeed != nil {
			cfg.RandomSeed = *raw.Demo.RandomSeed
		}
	}
	if raw.Shutdown != nil {
		if err := setDuration("shutdown.drain_timeout", raw.Shutdown.DrainTimeout, &cfg.DrainTimeout); err != nil {
			return err
		}
	}
	return nil
}

func setString(value *string, dst *string) {
	if value != nil {
		*dst = *value
	}
}

func setDuration(key string, value *string, dst *time.Duration) error {
	if value == nil {
		return nil
	}
	parsed, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, key, err)
	}
	*dst = parsed
	return nil
}
