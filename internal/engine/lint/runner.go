package lint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/rules"
	"zodlint/internal/shared/observability"
	"zodlint/internal/shared/util"
)

// Store is the persistent tier of the result cache.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

type Options struct {
	// Include and Exclude are glob patterns matched against the slash
	// separated path relative to the scanned root, and against each path
	// segment for Exclude.
	Include []string
	Exclude []string
	Workers int
	Fix     bool
	// MemoSize bounds the in-process result cache; 0 disables it.
	MemoSize int
}

type Summary struct {
	Results  []Result      `json:"results"`
	Files    int           `json:"files"`
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Fixed    int           `json:"fixed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"durationNs"`
}

// ByRule counts diagnostics per rule.
func (s Summary) ByRule() map[string]int {
	out := make(map[string]int)
	for _, r := range s.Results {
		for _, d := range r.Diagnostics {
			out[d.Rule]++
		}
	}
	return out
}

// Runner lints whole trees, one independent pass per file.
type Runner struct {
	linter  *Linter
	include []glob.Glob
	exclude []glob.Glob
	workers int
	fix     bool
	store   Store
	memo    *resultMemo
}

// NewRunner compiles the path filters. store may be nil.
func NewRunner(l *Linter, opts Options, store Store) (*Runner, error) {
	include, err := compileGlobs("include", opts.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileGlobs("exclude", opts.Exclude)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		linter:  l,
		include: include,
		exclude: exclude,
		workers: opts.Workers,
		fix:     opts.Fix,
		store:   store,
	}
	if r.workers <= 0 {
		r.workers = 4
	}
	if opts.MemoSize > 0 {
		r.memo = newResultMemo(opts.MemoSize)
	}
	return r, nil
}

func compileGlobs(kind string, patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, (&coreerrors.DomainError{
				Code:    coreerrors.CodeValidationError,
				Message: fmt.Sprintf("invalid %s pattern %q", kind, p),
				Err:     err,
			}).WithContext(coreerrors.CtxPattern, p)
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *Runner) excluded(rel string) bool {
	rel = util.NormalizePatternPath(rel)
	for _, g := range r.exclude {
		if g.Match(rel) {
			return true
		}
		for _, segment := range strings.Split(rel, "/") {
			if g.Match(segment) {
				return true
			}
		}
	}
	return false
}

func (r *Runner) included(rel string) bool {
	if len(r.include) == 0 {
		return true
	}
	rel = util.NormalizePatternPath(rel)
	base := filepath.Base(rel)
	for _, g := range r.include {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

// Accepts reports whether path would be linted by a directory scan.
func (r *Runner) Accepts(path string) bool {
	return r.linter.Parser().Supports(path) && !r.excluded(path) && r.included(path)
}

// Collect expands paths into the sorted list of files to lint. Explicit file
// arguments skip the include filter but not the exclude filter.
func (r *Runner) Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, (&coreerrors.DomainError{
				Code:    coreerrors.CodeNotFound,
				Message: "cannot read lint target",
				Err:     err,
			}).WithContext(coreerrors.CtxPath, root)
		}
		if !info.IsDir() {
			if r.linter.Parser().Supports(root) && !r.excluded(root) {
				add(filepath.Clean(root))
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if r.excluded(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if r.linter.Parser().Supports(path) && !r.excluded(rel) && r.included(rel) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "failed to scan "+root)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run lints every file under paths with a bounded worker pool. Per-file
// failures are recorded on the file's Result; only a cancelled context or an
// unreadable target aborts the run.
func (r *Runner) Run(ctx context.Context, paths []string) (Summary, error) {
	ctx, span := observability.Tracer.Start(ctx, "lint.run")
	defer span.End()
	start := time.Now()

	files, err := r.Collect(paths)
	if err != nil {
		return Summary{}, err
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.LintPath(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s := Summarize(results)
	s.Duration = time.Since(start)
	slog.Debug("lint run finished", "files", s.Files, "errors", s.Errors, "warnings", s.Warnings, "fixed", s.Fixed, "duration", s.Duration)
	return s, nil
}

// Summarize totals a set of per-file results.
func Summarize(results []Result) Summary {
	s := Summary{Results: results, Files: len(results)}
	for _, res := range results {
		s.Errors += res.Count(rules.SeverityError)
		s.Warnings += res.Count(rules.SeverityWarn)
		s.Fixed += res.Fixed
		if res.Err != "" {
			s.Failed++
		}
	}
	return s
}

// LintPath lints one file from disk, consulting the cache unless fixing.
func (r *Runner) LintPath(ctx context.Context, path string) Result {
	content, err := os.ReadFile(path)
	if err != nil {
		observability.FilesLintedTotal.WithLabelValues("error").Inc()
		return Result{Path: path, Err: err.Error()}
	}

	if r.fix {
		return r.fixPath(ctx, path, content)
	}

	key := r.cacheKey(path, content)
	if diags, ok := r.lookup(path, key); ok {
		observability.FilesLintedTotal.WithLabelValues("cached").Inc()
		return Result{Path: path, Diagnostics: diags, Cached: true}
	}

	res, err := r.linter.LintSource(ctx, path, content)
	if err != nil {
		observability.FilesLintedTotal.WithLabelValues("error").Inc()
		return Result{Path: path, Err: err.Error()}
	}
	// Results of broken input are not cached; the next save fixes them.
	if !res.SyntaxErrors {
		r.remember(path, key, res.Diagnostics)
	}
	observability.FilesLintedTotal.WithLabelValues(outcome(res)).Inc()
	return res
}

func (r *Runner) fixPath(ctx context.Context, path string, content []byte) Result {
	out, res, err := r.linter.FixSource(ctx, path, content)
	if err != nil {
		observability.FilesLintedTotal.WithLabelValues("error").Inc()
		return Result{Path: path, Err: err.Error()}
	}
	if res.Fixed > 0 {
		info, statErr := os.Stat(path)
		perm := fs.FileMode(0o644)
		if statErr == nil {
			perm = info.Mode().Perm()
		}
		if err := util.WriteFileAtomic(path, out, perm); err != nil {
			observability.FilesLintedTotal.WithLabelValues("error").Inc()
			return Result{Path: path, Err: err.Error()}
		}
		slog.Debug("fixes written", "path", path, "fixes", res.Fixed)
	}
	if !res.SyntaxErrors {
		r.remember(path, r.cacheKey(path, out), res.Diagnostics)
	}
	observability.FilesLintedTotal.WithLabelValues(outcome(res)).Inc()
	return res
}

func outcome(res Result) string {
	if len(res.Diagnostics) == 0 {
		return "clean"
	}
	return "issues"
}

func (r *Runner) cacheKey(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(r.linter.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(filepath.ToSlash(path)))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (r *Runner) lookup(path, key string) ([]Diagnostic, bool) {
	if r.memo != nil {
		if diags, ok := r.memo.Get(path, key); ok {
			observability.CacheLookupsTotal.WithLabelValues("memory", "hit").Inc()
			return diags, true
		}
		observability.CacheLookupsTotal.WithLabelValues("memory", "miss").Inc()
	}
	if r.store == nil {
		return nil, false
	}

	raw, ok, err := r.store.Get(key)
	if err != nil {
		slog.Warn("result cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		observability.CacheLookupsTotal.WithLabelValues("disk", "miss").Inc()
		return nil, false
	}
	var diags []Diagnostic
	if err := json.Unmarshal(raw, &diags); err != nil {
		slog.Warn("discarding unreadable cache entry", "error", err)
		return nil, false
	}
	observability.CacheLookupsTotal.WithLabelValues("disk", "hit").Inc()
	if r.memo != nil {
		r.memo.Put(path, key, diags)
	}
	return diags, true
}

var storeWarnOnce sync.Once

func (r *Runner) remember(path, key string, diags []Diagnostic) {
	if r.memo != nil {
		r.memo.Put(path, key, diags)
	}
	if r.store == nil {
		return
	}
	raw, err := json.Marshal(diags)
	if err == nil {
		err = r.store.Put(key, raw)
	}
	if err != nil {
		storeWarnOnce.Do(func() { slog.Warn("result cache write failed", "error", err) })
	}
}

// Forget drops the in-process results of deleted files.
func (r *Runner) Forget(paths ...string) {
	if r.memo != nil {
		r.memo.Drop(paths...)
	}
}
