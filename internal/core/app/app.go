package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"zodlint/internal/core/config"
	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/data/cache"
	"zodlint/internal/data/history"
	"zodlint/internal/engine/lint"
	"zodlint/internal/engine/parser"
	"zodlint/internal/engine/rules"
)

// Options are per-invocation switches that do not belong in the config file.
type Options struct {
	Fix     bool
	NoCache bool
	// Workers overrides run.workers when positive.
	Workers int
}

// App owns the lint pipeline of one project: the linter built from the
// active config, the runner that drives it, and the stores behind them.
type App struct {
	Paths config.ResolvedPaths
	opts  Options

	mu     sync.RWMutex
	config *config.Config
	parser *parser.Parser
	linter *lint.Linter
	runner *lint.Runner

	cache   *cache.ResultCache
	history *history.Store

	lastMu  sync.Mutex
	lastRun *RunStatus
}

// RunStatus is the headline of the most recent run.
type RunStatus struct {
	At       time.Time
	Files    int
	Errors   int
	Warnings int
	Failed   int
}

func New(cfg *config.Config, paths config.ResolvedPaths, opts Options) (*App, error) {
	a := &App{Paths: paths, opts: opts}
	if err := a.build(cfg); err != nil {
		return nil, err
	}

	if cfg.Cache.CacheEnabled() && !opts.NoCache && !opts.Fix {
		c, err := cache.Open(paths.CachePath)
		switch {
		case err == nil:
			a.cache = c
			if n, err := c.Prune(cfg.Cache.MaxAge); err == nil && n > 0 {
				slog.Debug("pruned stale cache entries", "count", n)
			}
		case coreerrors.IsCode(err, coreerrors.CodeConflict):
			slog.Warn("result cache is locked by another zodlint process, continuing without it", "path", paths.CachePath)
		default:
			slog.Warn("result cache unavailable, continuing without it", "error", err)
		}
		if a.cache != nil {
			a.rebuildRunner()
		}
	}

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.history = store
	}
	return a, nil
}

// build compiles cfg into a linter and runner. The current pipeline is left
// untouched on error.
func (a *App) build(cfg *config.Config) error {
	settings, err := cfg.RuleSettings()
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeValidationError, "invalid rule configuration")
	}
	loader, err := parser.NewGrammarLoaderWithOverrides(cfg.LanguageOverrides())
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeValidationError, "invalid language configuration")
	}
	p := parser.NewParser(loader)

	ruleConfigs := make(map[string]lint.RuleConfig, len(settings))
	for name, s := range settings {
		ruleConfigs[name] = lint.RuleConfig(s)
	}
	l, err := lint.NewLinter(p, rules.All(), ruleConfigs)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = cfg
	a.parser = p
	a.linter = l
	return a.rebuildRunnerLocked()
}

func (a *App) rebuildRunner() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.rebuildRunnerLocked(); err != nil {
		slog.Error("failed to rebuild runner", "error", err)
	}
}

func (a *App) rebuildRunnerLocked() error {
	workers := a.config.Run.Workers
	if a.opts.Workers > 0 {
		workers = a.opts.Workers
	}
	memo := a.config.Run.MemoSize
	if a.opts.NoCache {
		memo = 0
	}
	var store lint.Store
	if a.cache != nil {
		store = a.cache
	}
	r, err := lint.NewRunner(a.linter, lint.Options{
		Include:  a.config.Include,
		Exclude:  a.config.Exclude,
		Workers:  workers,
		Fix:      a.opts.Fix,
		MemoSize: memo,
	}, store)
	if err != nil {
		return err
	}
	a.runner = r
	return nil
}

// Reload swaps in a new configuration. In-flight runs finish on the old one.
func (a *App) Reload(cfg *config.Config) error {
	if err := a.build(cfg); err != nil {
		return err
	}
	slog.Info("configuration reloaded", "rules", len(a.Linter().Enabled()))
	return nil
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

func (a *App) Linter() *lint.Linter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.linter
}

func (a *App) Runner() *lint.Runner {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.runner
}

// Lint runs the pipeline over targets and records the run when history is
// enabled. A history failure is logged, never returned.
func (a *App) Lint(ctx context.Context, targets []string) (lint.Summary, error) {
	s, err := a.Runner().Run(ctx, targets)
	if err != nil {
		return s, err
	}
	a.lastMu.Lock()
	a.lastRun = &RunStatus{At: time.Now(), Files: s.Files, Errors: s.Errors, Warnings: s.Warnings, Failed: s.Failed}
	a.lastMu.Unlock()
	if a.history != nil {
		if _, err := a.RecordRun(s); err != nil {
			slog.Warn("failed to record lint run", "error", err)
		}
	}
	return s, nil
}

func (a *App) LastRun() (RunStatus, bool) {
	a.lastMu.Lock()
	defer a.lastMu.Unlock()
	if a.lastRun == nil {
		return RunStatus{}, false
	}
	return *a.lastRun, true
}

// RecordRun stores the summary of a run in the history database.
func (a *App) RecordRun(s lint.Summary) (history.Run, error) {
	if a.history == nil {
		return history.Run{}, coreerrors.New(coreerrors.CodeNotSupported, "history is disabled")
	}
	run, err := a.history.SaveRun(history.Run{
		ProjectKey:  a.Paths.ProjectKey,
		Fingerprint: a.Linter().Fingerprint(),
		FileCount:   s.Files,
		ErrorCount:  s.Errors,
		WarnCount:   s.Warnings,
		FixedCount:  s.Fixed,
		FailedCount: s.Failed,
		Duration:    s.Duration,
		RuleCounts:  s.ByRule(),
	})
	if err != nil {
		return run, err
	}
	if retention := a.Config().History.Retention; retention > 0 {
		if n, err := a.history.Prune(a.Paths.ProjectKey, time.Now().Add(-retention)); err == nil && n > 0 {
			slog.Debug("pruned old lint runs", "count", n)
		}
	}
	return run, nil
}

// Trends builds a trend report from the runs recorded since the given time.
func (a *App) Trends(since time.Time, window time.Duration, limit int) (history.TrendReport, error) {
	if a.history == nil {
		return history.TrendReport{}, coreerrors.New(coreerrors.CodeNotSupported, "history is disabled; set history.enabled = true")
	}
	runs, err := a.history.LoadRuns(a.Paths.ProjectKey, since, limit)
	if err != nil {
		return history.TrendReport{}, err
	}
	return history.BuildTrendReport(a.Paths.ProjectKey, runs, window)
}

// EnabledRules returns the metadata of every rule the current config runs.
func (a *App) EnabledRules() []rules.Meta {
	names := a.Linter().Enabled()
	out := make([]rules.Meta, 0, len(names))
	for _, name := range names {
		if r, ok := rules.Lookup(name); ok {
			out = append(out, r.Meta())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (a *App) HasCache() bool   { return a.cache != nil }
func (a *App) HasHistory() bool { return a.history != nil }

func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
		a.cache = nil
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
		a.history = nil
	}
	return errors.Join(errs...)
}
