package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	coreerrors "zodlint/internal/core/errors"
)

// Load reads a TOML or YAML config file, fills defaults, applies ZODLINT_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := coreerrors.CodeInternal
		if errors.Is(err, os.ErrNotExist) {
			code = coreerrors.CodeNotFound
		}
		return nil, (&coreerrors.DomainError{Code: code, Message: "cannot read config", Err: err}).
			WithContext(coreerrors.CtxPath, path)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, coreerrors.AddContext(err, coreerrors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes data in the given format ("toml" or "yaml").
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "invalid YAML config")
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "invalid TOML config")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			// rules.* keys land in map[string]any and are never undecoded.
			return nil, coreerrors.New(coreerrors.CodeValidationError, "unknown config keys: "+strings.Join(keys, ", "))
		}
	}
	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Discover returns the first config file found in dir, or "" if none.
func Discover(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Resolve loads path, or the discovered file under dir when path is empty,
// falling back to defaults. A .env file beside the config is loaded first
// so that it can feed ZODLINT_* overrides; variables already set win.
func Resolve(path, dir string) (*Config, string, error) {
	if path == "" {
		path = Discover(dir)
	}
	envDir := dir
	if path != "" {
		envDir = filepath.Dir(path)
	}
	if err := LoadDotEnv(envDir); err != nil {
		return nil, path, err
	}

	if path == "" {
		cfg := &Config{}
		if err := finalize(cfg); err != nil {
			return nil, "", err
		}
		slog.Debug("no config file found, using defaults", "dir", dir)
		return cfg, "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// LoadDotEnv loads dir/.env when it exists.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return (&coreerrors.DomainError{
			Code:    coreerrors.CodeValidationError,
			Message: "cannot parse .env file",
			Err:     err,
		}).WithContext(coreerrors.CtxPath, path)
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

func finalize(cfg *Config) error {
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)
	normalize(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return (&coreerrors.DomainError{
			Code:    coreerrors.CodeValidationError,
			Message: "invalid configuration",
			Err:     errors.Join(errs...),
		}).WithContext(coreerrors.CtxOperation, "config.validate")
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "toml"
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Extends) == "" {
		cfg.Extends = ExtendsRecommended
	}
	if len(cfg.Exclude) == 0 {
		cfg.Exclude = []string{"node_modules", ".git", "dist", "build", "coverage"}
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = ".zodlint"
	}
	if cfg.Run.Workers <= 0 {
		cfg.Run.Workers = 4
	}
	if cfg.Run.MemoSize == 0 {
		cfg.Run.MemoSize = 512
	}
	if strings.TrimSpace(cfg.Cache.Path) == "" {
		cfg.Cache.Path = "cache.db"
	}
	if cfg.Cache.MaxAge <= 0 {
		cfg.Cache.MaxAge = 7 * 24 * time.Hour
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if cfg.History.Retention <= 0 {
		cfg.History.Retention = 90 * 24 * time.Hour
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.Rate <= 0 {
		cfg.Watch.Rate = 2
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 4
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}
	if strings.TrimSpace(cfg.Output.Color) == "" {
		cfg.Output.Color = "auto"
	}
	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
}

func normalize(cfg *Config) {
	cfg.Extends = strings.ToLower(strings.TrimSpace(cfg.Extends))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Color = strings.ToLower(strings.TrimSpace(cfg.Output.Color))
	cfg.History.Project = strings.TrimSpace(cfg.History.Project)
	cfg.Include = trimList(cfg.Include)
	cfg.Exclude = trimList(cfg.Exclude)
}

func trimList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
