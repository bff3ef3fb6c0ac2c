package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the CLI and the loader.
const (
	FlagConfig          = "config"
	FlagHTTPAddr        = "http-addr"
	FlagGRPC            = "grpc"
	FlagGRPCAddr        = "grpc-addr"
	FlagStoreDriver     = "store"
	FlagSQLitePath      = "sqlite-path"
	FlagLogLevel        = "log-level"
	FlagLogFormat       = "log-format"
	FlagLogFile         = "log-file"
	FlagTrace           = "trace"
	FlagTraceExporter   = "trace-exporter"
	FlagTraceRatio      = "trace-sample-ratio"
	FlagFetchMinDelay   = "fetch-min-delay"
	FlagFetchMaxDelay   = "fetch-max-delay"
	FlagTimeoutDelay    = "timeout-delay"
	FlagRandomErrorRate = "random-error-rate"
	FlagRandomSeed      = "random-seed"
	FlagDrainTimeout    = "drain-timeout"
)

// RegisterFlags adds the configuration flags to fs. Only flags the user
// changed override lower layers.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "config file path (TOML)")
	fs.String(FlagHTTPAddr, d.HTTPListenAddr, "http listen address")
	fs.Bool(FlagGRPC, d.EnableGRPC, "enable the gRPC health server")
	fs.String(FlagGRPCAddr, d.GRPCListenAddr, "grpc listen address")
	fs.String(FlagStoreDriver, d.StoreDriver, "sample store driver (sqlite|memory)")
	fs.String(FlagSQLitePath, d.SQLitePath, "sqlite database path")
	fs.String(FlagLogLevel, d.LogLevel, "log level (debug|info|warn|error)")
	fs.String(FlagLogFormat, d.LogFormat, "log format (json|text)")
	fs.String(FlagLogFile, d.LogFile, "rotated log file path")
	fs.Bool(FlagTrace, d.TraceEnabled, "enable tracing")
	fs.String(FlagTraceExporter, d.TraceExporter, "span exporter (stdout|none)")
	fs.Float64(FlagTraceRatio, d.TraceSampleRatio, "trace sampling ratio in [0,1]")
	fs.Duration(FlagFetchMinDelay, d.FetchMinDelay, "minimum /fetch delay")
	fs.Duration(FlagFetchMaxDelay, d.FetchMaxDelay, "maximum /fetch delay")
	fs.Duration(FlagTimeoutDelay, d.TimeoutDelay, "/timeout delay")
	fs.Float64(FlagRandomErrorRate, d.RandomErrorRate, "/random-error failure probability")
	fs.Uint64(FlagRandomSeed, d.RandomSeed, "random seed (0 seeds from the runtime)")
	fs.Duration(FlagDrainTimeout, d.DrainTimeout, "in-flight drain timeout on shutdown")
}

func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if cfg == nil || fs == nil {
		return nil
	}
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagHTTPAddr:
			cfg.HTTPListenAddr, err = fs.GetString(f.Name)
		case FlagGRPC:
			cfg.EnableGRPC, err = fs.GetBool(f.Name)
		case FlagGRPCAddr:
			cfg.GRPCListenAddr, err = fs.GetString(f.Name)
		case FlagStoreDriver:
			cfg.StoreDriver, err = fs.GetString(f.Name)
		case FlagSQLitePath:
			cfg.SQLitePath, err = fs.GetString(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case FlagLogFormat:
			cfg.LogFormat, err = fs.GetString(f.Name)
		case FlagLogFile:
			cfg.LogFile, err = fs.GetString(f.Name)
		case FlagTrace:
			cfg.TraceEnabled, err = fs.GetBool(f.Name)
		case FlagTraceExporter:
			cfg.TraceExporter, err = fs.GetString(f.Name)
		case FlagTraceRatio:
			cfg.TraceSampleRatio, err = fs.GetFloat64(f.Name)
		case FlagFetchMinDelay:
			cfg.FetchMinDelay, err = fs.GetDuration(f.Name)
		case FlagFetchMaxDelay:
			cfg.FetchMaxDelay, err = fs.GetDuration(f.Name)
		case FlagTimeoutDelay:
			cfg.TimeoutDelay, err = fs.GetDuration(f.Name)
		case FlagRandomErrorRate:
			cfg.RandomErrorRate, err = fs.GetFloat64(f.Name)
		case FlagRandomSeed:
			cfg.RandomSeed, err = fs.GetUint64(f.Name)
		case FlagDrainTimeout:
			cfg.DrainTimeout, err = fs.GetDuration(f.Name)
		}
	})
	return err
}
