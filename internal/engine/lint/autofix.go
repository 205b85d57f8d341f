package lint

import (
	"context"
	"sort"

	"zodlint/internal/engine/fix"
	"zodlint/internal/shared/observability"
)

// MaxFixPasses bounds the re-lint loop. Fixes from one pass can expose new
// problems (or make room for fixes that overlapped), so the file is linted
// again after every pass that changed it.
const MaxFixPasses = 10

// FixSource lints content and applies fixes until nothing changes or the pass
// limit is hit. It returns the fixed source and the diagnostics that remain.
// Suggestions are never applied.
func (l *Linter) FixSource(ctx context.Context, path string, content []byte) ([]byte, Result, error) {
	src := content
	applied := 0
	for pass := 0; pass < MaxFixPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, Result{Path: path}, err
		}
		res, err := l.LintSource(ctx, path, src)
		if err != nil {
			return nil, res, err
		}
		// Rewriting a tree that did not parse cleanly risks eating the
		// user's half-typed code.
		if res.SyntaxErrors {
			res.Fixed = applied
			return src, res, nil
		}

		chosen, merged := selectFixes(res.Diagnostics, len(src))
		if len(chosen) == 0 {
			res.Fixed = applied
			return src, res, nil
		}
		out, err := fix.Apply(src, merged)
		if err != nil {
			return nil, res, err
		}
		for _, d := range chosen {
			observability.FixesAppliedTotal.WithLabelValues(d.Rule).Inc()
		}
		applied += len(chosen)
		src = out
	}

	res, err := l.LintSource(ctx, path, src)
	res.Fixed = applied
	return src, res, err
}

// selectFixes picks, in source order, the fixes whose edits do not overlap
// any fix picked before them. The rest wait for the next pass.
func selectFixes(diags []Diagnostic, size int) ([]Diagnostic, fix.Fix) {
	candidates := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if len(d.Fix) > 0 {
			candidates = append(candidates, d)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Fix.Span().Start < candidates[j].Fix.Span().Start
	})

	var chosen []Diagnostic
	var merged fix.Fix
	for _, d := range candidates {
		next := append(append(fix.Fix(nil), merged...), d.Fix...)
		if fix.Validate(next, size) != nil {
			continue
		}
		chosen = append(chosen, d)
		merged = next
	}
	return chosen, merged
}
