package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"zodlint/internal/core/config"
	"zodlint/internal/core/watcher"
	"zodlint/internal/engine/lint"
)

// WatchEvent is one incremental result of a watch session.
type WatchEvent struct {
	Summary lint.Summary
	// Changed lists the files that triggered the run; empty for full runs.
	Changed []string
	Removed []string
	Full    bool
	Err     error
}

// Watch lints targets once, then re-lints changed files until ctx is done.
// When configPath is set, edits to it reload the rules and trigger a full run.
func (a *App) Watch(ctx context.Context, targets []string, configPath string, emit func(WatchEvent)) error {
	full := func() {
		s, err := a.Lint(ctx, targets)
		if ctx.Err() != nil {
			return
		}
		emit(WatchEvent{Summary: s, Full: true, Err: err})
	}
	full()
	if err := ctx.Err(); err != nil {
		return nil
	}

	cfg := a.Config()
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:    cfg.Watch.Debounce,
		ExcludeDirs: cfg.Exclude,
		Accept:      func(rel string) bool { return a.Runner().Accepts(rel) },
		Rate:        cfg.Watch.Rate,
		Burst:       cfg.Watch.Burst,
	}, func(paths []string) {
		a.handleChanges(ctx, paths, emit)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(watchRoots(targets)); err != nil {
		return err
	}

	if configPath != "" {
		cw := config.NewWatcher(configPath, func(next *config.Config) {
			if err := a.Reload(next); err != nil {
				slog.Error("keeping previous configuration", "error", err)
				return
			}
			w.SetDebounce(next.Watch.Debounce)
			full()
		}, func(err error) {
			slog.Error("config reload failed", "path", configPath, "error", err)
		})
		if err := cw.Start(ctx); err != nil {
			return err
		}
		defer cw.Stop()
	}

	slog.Info("watching for changes", "targets", targets)
	<-ctx.Done()
	return nil
}

// handleChanges re-lints the files that still exist. Partial runs are not
// recorded in history.
func (a *App) handleChanges(ctx context.Context, paths []string, emit func(WatchEvent)) {
	var existing, removed []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			existing = append(existing, p)
		} else {
			removed = append(removed, p)
		}
	}
	ev := WatchEvent{Changed: existing, Removed: removed}
	if len(removed) > 0 {
		a.Runner().Forget(removed...)
	}
	if len(existing) > 0 {
		s, err := a.Runner().Run(ctx, existing)
		if ctx.Err() != nil {
			return
		}
		ev.Summary, ev.Err = s, err
	}
	emit(ev)
}

// watchRoots maps targets onto the directories to watch. File targets are
// watched through their parent directory.
func watchRoots(targets []string) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, t := range targets {
		root := t
		if info, err := os.Stat(t); err == nil && !info.IsDir() {
			root = filepath.Dir(t)
		}
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	sort.Strings(roots)
	return roots
}
