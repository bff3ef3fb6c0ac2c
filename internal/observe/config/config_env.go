// Package config provides environment config overrides.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "OBSERVE_"

func applyEnvOverrides(cfg *Config, environ []string) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	values := envMap(environ)
	lookup := func(name string) (string, bool) {
		value, ok := values[envPrefix+name]
		return value, ok
	}

	if value, ok := lookup("SERVICE_NAME"); ok {
		cfg.ServiceName = value
	}
	if value, ok := lookup("HTTP_ADDR"); ok {
		cfg.HTTPListenAddr = value
	}
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"HTTP_READ_TIMEOUT", &cfg.HTTPReadTimeout},
		{"HTTP_WRITE_TIMEOUT", &cfg.HTTPWriteTimeout},
		{"HTTP_IDLE_TIMEOUT", &cfg.HTTPIdleTimeout},
		{"GRPC_KEEPALIVE", &cfg.GRPCKeepAlive},
		{"FETCH_MIN_DELAY", &cfg.FetchMinDelay},
		{"FETCH_MAX_DELAY", &cfg.FetchMaxDelay},
		{"TIMEOUT_DELAY", &cfg.TimeoutDelay},
		{"DRAIN_TIMEOUT", &cfg.DrainTimeout},
	}
	for _, d := range durations {
		if value, ok := lookup(d.name); ok {
			parsed, err := parseDurationEnv(envPrefix+d.name, value)
			if err != nil {
				return err
			}
			*d.dst = parsed
		}
	}
	if value, ok := lookup("MAX_BODY_BYTES"); ok {
		parsed, err := parseIntEnv(envPrefix+"MAX_BODY_BYTES", value)
		if err != nil {
			return err
		}
		cfg.MaxBodyBytes = parsed
	}
	if value, ok := lookup("ENABLE_GRPC"); ok {
		parsed, err := parseBoolEnv(envPrefix+"ENABLE_GRPC", value)
		if err != nil {
			return err
		}
		cfg.EnableGRPC = parsed
	}
	if value, ok := lookup("GRPC_ADDR"); ok {
		cfg.GRPCListenAddr = value
	}
	if value, ok := lookup("STORE_DRIVER"); ok {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(value))
	}
	if value, ok := lookup("SQLITE_PATH"); ok {
		cfg.SQLitePath = value
	}
	if value, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = value
	}
	if value, ok := lookup("LOG_FORMAT"); ok {
		cfg.LogFormat = value
	}
	if value, ok := lookup("LOG_FILE"); ok {
		cfg.LogFile = value
	}
	if value, ok := lookup("LOG_MAX_SIZE_MB"); ok {
		parsed, err := parseIntEnv(envPrefix+"LOG_MAX_SIZE_MB", value)
		if err != nil {
			return err
		}
		cfg.LogMaxSizeMB = int(parsed)
	}
	if value, ok := lookup("LOG_MAX_FILES"); ok {
		parsed, err := parseIntEnv(envPrefix+"LOG_MAX_FILES", value)
		if err != nil {
			return err
		}
		cfg.LogMaxFiles = int(parsed)
	}
	if value, ok := lookup("TRACE_ENABLED"); ok {
		parsed, err := parseBoolEnv(envPrefix+"TRACE_ENABLED", value)
		if err != nil {
			return err
		}
		cfg.TraceEnabled = parsed
	}
	if value, ok := lookup("TRACE_EXPORTER"); ok {
		cfg.TraceExporter = value
	}
	if value, ok := lookup("TRACE_SAMPLE_RATIO"); ok {
		parsed, err := parseFloatEnv(envPrefix+"TRACE_SAMPLE_RATIO", value)
		if err != nil {
			return err
		}
		cfg.TraceSampleRatio = parsed
	}
	if value, ok := lookup("METRICS_ENABLED"); ok {
		parsed, err := parseBoolEnv(envPrefix+"METRICS_ENABLED", value)
		if err != nil {
			return err
		}
		cfg.MetricsEnabled = parsed
	}
	if value, ok := lookup("RANDOM_ERROR_RATE"); ok {
		parsed, err := parseFloatEnv(envPrefix+"RANDOM_ERROR_RATE", value)
		if err != nil {
			return err
		}
		cfg.RandomErrorRate = parsed
	}
	if value, ok := lookup("RANDOM_SEED"); ok {
		parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return errors.New("invalid env value for " + envPrefix + "RANDOM_SEED")
		}
		cfg.RandomSeed = parsed
	}
	return nil
}

func envMap(environ []string) map[string]string {
	values := make(map[string]string)
	for _, entry := range environ {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		values[key] = parts[1]
	}
	return values
}

func parseBoolEnv(name, value string) (bool, error) {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, errors.New("invalid env value for " + name)
	}
	return parsed, nil
}

func parseIntEnv(name, value string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, errors.New("invalid env value for " + name)
	}
	return parsed, nil
}

func parseFloatEnv(name, value string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.New("invalid env value for " + name)
	}
	return parsed, nil
}

func parseDurationEnv(name, value string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.New("invalid env value for " + name)
	}
	return parsed, nil
}
