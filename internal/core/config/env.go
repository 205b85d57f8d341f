package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every override variable.
const EnvPrefix = "ZODLINT_"

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ZODLINT_[SECTION]_[KEY] (e.g., ZODLINT_WATCH_DEBOUNCE). List values
// are comma separated. ZODLINT_RULES takes name=severity pairs.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Extends, "ZODLINT_EXTENDS")
	setEnvList(&cfg.Include, "ZODLINT_INCLUDE")
	setEnvList(&cfg.Exclude, "ZODLINT_EXCLUDE")
	setEnvRules(cfg, "ZODLINT_RULES")

	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "ZODLINT_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "ZODLINT_PATHS_STATE_DIR")

	// Run
	setEnvInt(&cfg.Run.Workers, "ZODLINT_RUN_WORKERS")
	setEnvInt(&cfg.Run.MemoSize, "ZODLINT_RUN_MEMO_SIZE")

	// Cache
	if val, ok := os.LookupEnv("ZODLINT_CACHE_ENABLED"); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			logOverride("ZODLINT_CACHE_ENABLED", val)
			cfg.Cache.Enabled = &b
		}
	}
	setEnvString(&cfg.Cache.Path, "ZODLINT_CACHE_PATH")
	setEnvDuration(&cfg.Cache.MaxAge, "ZODLINT_CACHE_MAX_AGE")

	// History
	setEnvBool(&cfg.History.Enabled, "ZODLINT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "ZODLINT_HISTORY_PATH")
	setEnvString(&cfg.History.Project, "ZODLINT_HISTORY_PROJECT")
	setEnvDuration(&cfg.History.Retention, "ZODLINT_HISTORY_RETENTION")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ZODLINT_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "ZODLINT_WATCH_RATE")
	setEnvInt(&cfg.Watch.Burst, "ZODLINT_WATCH_BURST")

	// Output
	setEnvString(&cfg.Output.Format, "ZODLINT_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "ZODLINT_OUTPUT_PATH")
	setEnvString(&cfg.Output.Color, "ZODLINT_OUTPUT_COLOR")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "ZODLINT_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "ZODLINT_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ZODLINT_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "ZODLINT_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "ZODLINT_OBSERVABILITY_ENABLE_METRICS")
}

func logOverride(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = strings.Split(val, ",")
	}
}

// setEnvRules overlays "no-any=off,array-style=warn" onto the rules table.
// Options set in the file are kept.
func setEnvRules(cfg *Config, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	logOverride(key, val)
	if cfg.Rules == nil {
		cfg.Rules = make(map[string]any)
	}
	for _, pair := range strings.Split(val, ",") {
		name, sev, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || strings.TrimSpace(name) == "" {
			slog.Warn("ignoring malformed rule override", "key", key, "entry", pair)
			continue
		}
		name = strings.TrimSpace(name)
		cfg.Rules[name] = withSeverity(cfg.Rules[name], strings.TrimSpace(sev))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			logOverride(key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key, val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			logOverride(key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			logOverride(key, val)
			*target = d
		}
	}
}
