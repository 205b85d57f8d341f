// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/rules"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "zodlint.toml", `
extends = "none"
include = ["src/**/*.ts"]
exclude = ["node_modules", "*.gen.ts"]

[rules]
no-any = "error"
prefer-meta = 1
array-style = ["warn", { style = "method" }]

[rules.consistent-import-source]
severity = "error"
sources = ["zod", "zod/v4"]

[languages.javascript]
enabled = false

[run]
workers = 8

[cache]
enabled = false
max_age = "24h"

[history]
enabled = true
project = "web"

[watch]
debounce = "1s"

[output]
format = "JSON"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ExtendsNone, cfg.Extends)
	assert.Equal(t, []string{"src/**/*.ts"}, cfg.Include)
	assert.Equal(t, []string{"node_modules", "*.gen.ts"}, cfg.Exclude)
	assert.Equal(t, 8, cfg.Run.Workers)
	assert.False(t, cfg.Cache.CacheEnabled())
	assert.Equal(t, 24*time.Hour, cfg.Cache.MaxAge)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "web", cfg.History.Project)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "json", cfg.Output.Format)

	settings, err := cfg.RuleSettings()
	require.NoError(t, err)
	assert.Equal(t, map[string]RuleSetting{
		"no-any":      {Severity: rules.SeverityError},
		"prefer-meta": {Severity: rules.SeverityWarn},
		"array-style": {Severity: rules.SeverityWarn, Options: rules.Options{"style": "method"}},
		"consistent-import-source": {
			Severity: rules.SeverityError,
			Options:  rules.Options{"sources": []any{"zod", "zod/v4"}},
		},
	}, settings)

	overrides := cfg.LanguageOverrides()
	require.Contains(t, overrides, "javascript")
	require.NotNil(t, overrides["javascript"].Enabled)
	assert.False(t, *overrides["javascript"].Enabled)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "zodlint.yaml", `
extends: recommended
rules:
  no-any: off
  require-schema-suffix: [error, {suffix: Validator}]
  no-unknown-schema: warn
output:
  format: sarif
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sarif", cfg.Output.Format)

	settings, err := cfg.RuleSettings()
	require.NoError(t, err)
	assert.Equal(t, rules.SeverityOff, settings["no-any"].Severity)
	assert.Equal(t, rules.SeverityWarn, settings["no-unknown-schema"].Severity)
	assert.Equal(t, rules.Options{"suffix": "Validator"}, settings["require-schema-suffix"].Options)
	// Untouched recommended rules stay on.
	assert.Equal(t, rules.SeverityError, settings["prefer-meta"].Severity)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, ExtendsRecommended, cfg.Extends)
	assert.Contains(t, cfg.Exclude, "node_modules")
	assert.Equal(t, 4, cfg.Run.Workers)
	assert.True(t, cfg.Cache.CacheEnabled())
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "text", cfg.Output.Format)

	settings, err := cfg.RuleSettings()
	require.NoError(t, err)
	assert.Len(t, settings, len(rules.Recommended()))
}

func TestRuleSettings_ExtendsAll(t *testing.T) {
	cfg := Default()
	cfg.Extends = ExtendsAll
	settings, err := cfg.RuleSettings()
	require.NoError(t, err)
	assert.Len(t, settings, len(rules.All()))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unknown rule", file: "zodlint.toml", content: "[rules]\nno-such-rule = \"error\"\n"},
		{name: "bad severity", file: "zodlint.toml", content: "[rules]\nno-any = \"loud\"\n"},
		{name: "bad option", file: "zodlint.toml", content: "[rules]\narray-style = [\"error\", { style = \"sideways\" }]\n"},
		{name: "unknown option", file: "zodlint.toml", content: "[rules]\narray-style = [\"error\", { colour = \"red\" }]\n"},
		{name: "table without severity", file: "zodlint.toml", content: "[rules.array-style]\nstyle = \"method\"\n"},
		{name: "unknown key", file: "zodlint.toml", content: "colour = \"red\"\n"},
		{name: "bad extends", file: "zodlint.toml", content: "extends = \"strict\"\n"},
		{name: "bad glob", file: "zodlint.toml", content: "include = [\"[unclosed\"]\n"},
		{name: "bad format", file: "zodlint.toml", content: "[output]\nformat = \"xml\"\n"},
		{name: "tracing without endpoint", file: "zodlint.toml", content: "[observability]\nenable_tracing = true\n"},
		{name: "unknown language", file: "zodlint.toml", content: "[languages.cobol]\nenabled = true\n"},
		{name: "broken toml", file: "zodlint.toml", content: "extends = \n"},
		{name: "unknown yaml key", file: "zodlint.yaml", content: "colour: red\n"},
		{name: "version", file: "zodlint.toml", content: "version = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError), err.Error())
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "zodlint.toml"))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotFound))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ZODLINT_RUN_WORKERS", "2")
	t.Setenv("ZODLINT_WATCH_DEBOUNCE", "2s")
	t.Setenv("ZODLINT_HISTORY_ENABLED", "TRUE")
	t.Setenv("ZODLINT_CACHE_ENABLED", "false")
	t.Setenv("ZODLINT_EXCLUDE", "vendor, dist")
	t.Setenv("ZODLINT_OUTPUT_FORMAT", "markdown")
	t.Setenv("ZODLINT_RULES", "no-any=off,array-style=warn,garbage")
	t.Setenv("ZODLINT_OBSERVABILITY_PORT", "not-a-number")

	path := writeConfig(t, "zodlint.toml", "[rules]\narray-style = [\"error\", { style = \"method\" }]\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Run.Workers)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.History.Enabled)
	assert.False(t, cfg.Cache.CacheEnabled())
	assert.Equal(t, []string{"vendor", "dist"}, cfg.Exclude)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.Equal(t, 9464, cfg.Observability.Port, "unparseable values are ignored")

	settings, err := cfg.RuleSettings()
	require.NoError(t, err)
	assert.Equal(t, rules.SeverityOff, settings["no-any"].Severity)
	assert.Equal(t, RuleSetting{Severity: rules.SeverityWarn, Options: rules.Options{"style": "method"}}, settings["array-style"])
}

func TestResolve(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, path, err := Resolve("", t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, ExtendsRecommended, cfg.Extends)
	})

	t.Run("discovers yaml and dotenv", func(t *testing.T) {
		const key = "ZODLINT_HISTORY_PROJECT"
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() { os.Unsetenv(key) })

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "zodlint.yml"), []byte("history:\n  enabled: true\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=from-dotenv\n"), 0o644))

		cfg, path, err := Resolve("", dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "zodlint.yml"), path)
		assert.True(t, cfg.History.Enabled)
		assert.Equal(t, "from-dotenv", cfg.History.Project)
	})

	t.Run("explicit path wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "zodlint.toml"), []byte("extends = \"all\"\n"), 0o644))
		other := writeConfig(t, "custom.toml", "extends = \"none\"\n")

		cfg, path, err := Resolve(other, dir)
		require.NoError(t, err)
		assert.Equal(t, other, path)
		assert.Equal(t, ExtendsNone, cfg.Extends)
	})
}

func TestDiscover_Order(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Discover(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "zodlint.yaml"), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "zodlint.yaml"), Discover(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "zodlint.toml"), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "zodlint.toml"), Discover(dir))
}
