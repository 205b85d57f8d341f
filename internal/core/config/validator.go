package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"zodlint/internal/engine/parser"
)

var (
	outputFormats = []string{"text", "json", "sarif", "markdown"}
	colorModes    = []string{"auto", "always", "never"}
)

// Validate collects every problem with cfg instead of stopping at the first.
func Validate(cfg *Config) []error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(validateVersion(cfg))
	add(validateRules(cfg))
	errs = append(errs, validatePatterns("include", cfg.Include)...)
	errs = append(errs, validatePatterns("exclude", cfg.Exclude)...)
	add(validateLanguages(cfg))
	add(validatePaths(cfg))
	add(validateRun(cfg))
	add(validateWatch(cfg))
	add(validateOutput(cfg))
	add(validateObservability(cfg))
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateRules(cfg *Config) error {
	_, err := cfg.RuleSettings()
	return err
}

func validatePatterns(field string, patterns []string) []error {
	var errs []error
	for i, p := range patterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d] %q is not a valid glob: %v", field, i, p, err))
		}
	}
	return errs
}

func validateLanguages(cfg *Config) error {
	if _, err := parser.BuildLanguageRegistry(cfg.LanguageOverrides()); err != nil {
		return fmt.Errorf("languages: %w", err)
	}
	return nil
}

func validatePaths(cfg *Config) error {
	root := strings.TrimSpace(cfg.Paths.ProjectRoot)
	if root == "" {
		return nil
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("paths.project_root %q does not exist", root)
	}
	if !info.IsDir() {
		return fmt.Errorf("paths.project_root %q is not a directory", root)
	}
	return nil
}

func validateRun(cfg *Config) error {
	if cfg.Run.Workers > 256 {
		return fmt.Errorf("run.workers must be between 1 and 256, got %d", cfg.Run.Workers)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 || cfg.Watch.Debounce > time.Minute {
		return fmt.Errorf("watch.debounce must be between 0s and 1m")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if !slices.Contains(outputFormats, cfg.Output.Format) {
		return fmt.Errorf("output.format must be one of: %s", strings.Join(outputFormats, ", "))
	}
	if !slices.Contains(colorModes, cfg.Output.Color) {
		return fmt.Errorf("output.color must be one of: %s", strings.Join(colorModes, ", "))
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be between 1 and 65535")
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must not be empty when enable_tracing=true")
	}
	return nil
}
