// # internal/core/config/config.go
package config

import (
	"time"
)

// Presets accepted by Config.Extends.
const (
	ExtendsRecommended = "recommended"
	ExtendsAll         = "all"
	ExtendsNone        = "none"
)

// File names probed by Discover, in order.
var FileNames = []string{"zodlint.toml", ".zodlint.toml", "zodlint.yaml", "zodlint.yml", ".zodlint.yaml"}

type Config struct {
	Version int `toml:"version" yaml:"version"`
	// Extends selects the rule preset the Rules table is layered on.
	Extends string   `toml:"extends" yaml:"extends"`
	Include []string `toml:"include" yaml:"include"`
	Exclude []string `toml:"exclude" yaml:"exclude"`
	// Rules maps a rule name to a severity ("error"), a [severity, options]
	// pair, or a table with a severity key and option keys beside it.
	Rules         map[string]any      `toml:"rules" yaml:"rules"`
	Languages     map[string]Language `toml:"languages" yaml:"languages"`
	Paths         Paths               `toml:"paths" yaml:"paths"`
	Run           Run                 `toml:"run" yaml:"run"`
	Cache         Cache               `toml:"cache" yaml:"cache"`
	History       History             `toml:"history" yaml:"history"`
	Watch         Watch               `toml:"watch" yaml:"watch"`
	Output        Output              `toml:"output" yaml:"output"`
	Observability Observability       `toml:"observability" yaml:"observability"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled" yaml:"enabled"`
	Extensions []string `toml:"extensions" yaml:"extensions"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root" yaml:"project_root"`
	StateDir    string `toml:"state_dir" yaml:"state_dir"`
}

type Run struct {
	Workers  int `toml:"workers" yaml:"workers"`
	MemoSize int `toml:"memo_size" yaml:"memo_size"`
}

type Cache struct {
	Enabled *bool         `toml:"enabled" yaml:"enabled"`
	Path    string        `toml:"path" yaml:"path"`
	MaxAge  time.Duration `toml:"max_age" yaml:"max_age"`
}

type History struct {
	Enabled   bool          `toml:"enabled" yaml:"enabled"`
	Path      string        `toml:"path" yaml:"path"`
	Project   string        `toml:"project" yaml:"project"`
	Retention time.Duration `toml:"retention" yaml:"retention"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce" yaml:"debounce"`
	// Rate and Burst throttle re-lints of a single file.
	Rate  float64 `toml:"rate" yaml:"rate"`
	Burst int     `toml:"burst" yaml:"burst"`
}

type Output struct {
	Format string `toml:"format" yaml:"format"`
	Path   string `toml:"path" yaml:"path"`
	Color  string `toml:"color" yaml:"color"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	Port          int    `toml:"port" yaml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics" yaml:"enable_metrics"`
}

// CacheEnabled defaults to true when the key is absent.
func (c Cache) CacheEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
