// # internal/core/watcher/watcher.go
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"zodlint/internal/shared/observability"
	"zodlint/internal/shared/util"
)

type Options struct {
	Debounce time.Duration
	// ExcludeDirs are matched against directory base names; matching
	// directories are never watched.
	ExcludeDirs []string
	// Accept decides whether a changed file is reported. It receives the
	// slash separated path relative to the watched root. nil accepts all.
	Accept func(rel string) bool
	// Rate and Burst throttle how often one file may be reported.
	Rate  float64
	Burst int
}

type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	excludeDirs []glob.Glob
	accept      func(string) bool
	limiters    *util.LimiterRegistry
	onChange    func([]string)
	callbackMu  sync.Mutex

	rootsMu sync.RWMutex
	roots   []string

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

func NewWatcher(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiledDirs := make([]glob.Glob, 0, len(opts.ExcludeDirs))
	for _, pattern := range opts.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiledDirs = append(compiledDirs, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:   fsw,
		debounce:    opts.Debounce,
		excludeDirs: compiledDirs,
		accept:      opts.Accept,
		onChange:    onChange,
		pending:     make(map[string]time.Time),
	}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		w.limiters = util.NewLimiterRegistry(opts.Rate, burst, time.Minute)
	}
	return w, nil
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// SetAccept swaps the file filter, e.g. after a config reload.
func (w *Watcher) SetAccept(accept func(string) bool) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.accept = accept
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		w.rootsMu.Lock()
		w.roots = append(w.roots, abs)
		w.rootsMu.Unlock()
		if err := w.watchRecursive(abs); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}

		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !w.accepts(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()
	w.resetTimerLocked(w.debounce)
}

func (w *Watcher) resetTimerLocked(after time.Duration) {
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(after, w.flushChanges)
}

// flushChanges reports every pending file whose limiter allows it. Throttled
// files stay pending and are retried once the debounce elapses again.
func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	deferred := 0
	for path := range w.pending {
		if w.limiters != nil && !w.limiters.Get(path).Allow(1) {
			deferred++
			continue
		}
		paths = append(paths, path)
		delete(w.pending, path)
	}
	if deferred > 0 {
		observability.WatcherThrottledTotal.Add(float64(deferred))
		retry := w.debounce
		if retry <= 0 {
			retry = 100 * time.Millisecond
		}
		w.resetTimerLocked(retry)
	}
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		sort.Strings(paths)
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) accepts(path string) bool {
	w.pendingMu.Lock()
	accept := w.accept
	w.pendingMu.Unlock()
	if accept == nil {
		return true
	}
	return accept(w.relative(path))
}

// relative maps path onto the watched root containing it.
func (w *Watcher) relative(path string) string {
	w.rootsMu.RLock()
	defer w.rootsMu.RUnlock()
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	if w.limiters != nil {
		w.limiters.Close()
	}
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !w.accepts(path) {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}
