// # internal/engine/lint/linter.go
package lint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/fix"
	"zodlint/internal/engine/parser"
	"zodlint/internal/engine/rules"
	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
	"zodlint/internal/shared/observability"
)

// RuleConfig is the configured state of one rule.
type RuleConfig struct {
	Severity rules.Severity `json:"severity"`
	Options  rules.Options  `json:"options,omitempty"`
}

type Diagnostic struct {
	Rule        string             `json:"rule"`
	Severity    rules.Severity     `json:"severity"`
	MessageID   string             `json:"messageId,omitempty"`
	Message     string             `json:"message"`
	Range       syntax.Range       `json:"range"`
	Line        int                `json:"line"`
	Column      int                `json:"column"`
	EndLine     int                `json:"endLine"`
	EndColumn   int                `json:"endColumn"`
	Fix         fix.Fix            `json:"fix,omitempty"`
	Suggestions []rules.Suggestion `json:"suggestions,omitempty"`
}

// Result is the outcome of linting one file.
type Result struct {
	Path        string       `json:"path"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	// SyntaxErrors is set when the parser had to recover from invalid input.
	// Diagnostics are still reported for the parts that parsed.
	SyntaxErrors bool `json:"syntaxErrors,omitempty"`
	// Fixed counts the fixes written back to the file.
	Fixed int `json:"fixed,omitempty"`
	// Err holds a read or parse failure; the file produced no diagnostics.
	Err string `json:"error,omitempty"`
	// Cached is set when the diagnostics came from the result cache.
	Cached bool `json:"-"`
}

func (r Result) Count(sev rules.Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

type activeRule struct {
	rule     rules.Rule
	name     string
	severity rules.Severity
	options  rules.Options
}

// Linter runs a fixed set of configured rules over parsed files. It is safe
// for concurrent use; every file gets its own symbol table and rule contexts.
type Linter struct {
	parser      *parser.Parser
	rules       []activeRule
	fingerprint string
}

// NewLinter enables every rule of registry that settings turns on. Rules not
// mentioned in settings stay off.
func NewLinter(p *parser.Parser, registry []rules.Rule, settings map[string]RuleConfig) (*Linter, error) {
	byName := make(map[string]rules.Rule, len(registry))
	for _, r := range registry {
		byName[r.Meta().Name] = r
	}

	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)

	l := &Linter{parser: p}
	for _, name := range names {
		cfg := settings[name]
		rule, ok := byName[name]
		if !ok {
			return nil, (&coreerrors.DomainError{
				Code:    coreerrors.CodeValidationError,
				Message: fmt.Sprintf("unknown rule %q", name),
			}).WithContext(coreerrors.CtxRule, name)
		}
		if cfg.Severity == "" || cfg.Severity == rules.SeverityOff {
			continue
		}
		if err := rules.ValidateOptions(rule.Meta(), cfg.Options); err != nil {
			return nil, err
		}
		l.rules = append(l.rules, activeRule{
			rule:     rule,
			name:     name,
			severity: cfg.Severity,
			options:  rules.WithDefaults(rule.Meta(), cfg.Options),
		})
	}

	fp, err := fingerprint(l.rules)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "failed to fingerprint rule settings")
	}
	l.fingerprint = fp
	return l, nil
}

// fingerprint identifies the enabled rules and their options, so cached
// results are dropped when the configuration changes.
func fingerprint(active []activeRule) (string, error) {
	type entry struct {
		Name     string         `json:"name"`
		Severity rules.Severity `json:"severity"`
		Options  rules.Options  `json:"options"`
	}
	entries := make([]entry, len(active))
	for i, a := range active {
		entries[i] = entry{Name: a.name, Severity: a.severity, Options: a.options}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (l *Linter) Fingerprint() string { return l.fingerprint }

// Enabled returns the names of the rules that will run, sorted.
func (l *Linter) Enabled() []string {
	out := make([]string, len(l.rules))
	for i, a := range l.rules {
		out[i] = a.name
	}
	return out
}

func (l *Linter) Parser() *parser.Parser { return l.parser }

// LintSource parses content and lints it. Only unsupported paths and parser
// failures produce an error; syntax errors in the input do not.
func (l *Linter) LintSource(ctx context.Context, path string, content []byte) (Result, error) {
	file, err := l.parser.ParseFile(path, content)
	if err != nil {
		return Result{Path: path}, err
	}
	return l.LintFile(ctx, file), nil
}

type listener struct {
	active   *activeRule
	handlers rules.Handlers
	failed   bool
}

// LintFile runs every enabled rule over file in one document-order pass.
func (l *Linter) LintFile(ctx context.Context, file *syntax.File) Result {
	_, span := observability.Tracer.Start(ctx, "lint.file", trace.WithAttributes(
		attribute.String("path", file.Path),
		attribute.String("language", file.Language),
	))
	defer span.End()
	start := time.Now()

	res := Result{Path: file.Path, SyntaxErrors: file.HasErrors}
	symbols := schema.NewSymbolTable()

	listeners := make([]*listener, 0, len(l.rules))
	for i := range l.rules {
		a := &l.rules[i]
		ln := &listener{active: a}
		rctx := rules.NewContext(file, symbols, a.options, func(r rules.Report) {
			res.Diagnostics = append(res.Diagnostics, newDiagnostic(file, a, r))
		})
		ln.guard("create", func() { ln.handlers = a.rule.Create(rctx) })
		listeners = append(listeners, ln)
	}

	syntax.Walk(file.Root, func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.KindImportDeclaration:
			symbols.Record(n)
			for _, ln := range listeners {
				if h := ln.handlers.OnImport; h != nil {
					ln.guard("import", func() { h(n) })
				}
			}
		case syntax.KindCall:
			for _, ln := range listeners {
				if h := ln.handlers.OnCall; h != nil {
					ln.guard("call", func() { h(n) })
				}
			}
		case syntax.KindVariableDeclarator:
			for _, ln := range listeners {
				if h := ln.handlers.OnDeclarator; h != nil {
					ln.guard("declarator", func() { h(n) })
				}
			}
		}
		return true
	})
	for _, ln := range listeners {
		if h := ln.handlers.OnExit; h != nil {
			ln.guard("exit", h)
		}
	}

	sortDiagnostics(res.Diagnostics)
	for _, d := range res.Diagnostics {
		observability.DiagnosticsTotal.WithLabelValues(d.Rule, string(d.Severity)).Inc()
	}
	observability.LintDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("diagnostics", len(res.Diagnostics)))
	return res
}

// guard runs fn unless the rule already failed on this file. A panic disables
// the rule for the rest of the file.
func (ln *listener) guard(phase string, fn func()) {
	if ln.failed {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			ln.failed = true
			ln.handlers = rules.Handlers{}
			observability.RuleFailuresTotal.WithLabelValues(ln.active.name).Inc()
			slog.Error("rule failed", "rule", ln.active.name, "phase", phase, "panic", rec)
		}
	}()
	fn()
}

func newDiagnostic(file *syntax.File, a *activeRule, r rules.Report) Diagnostic {
	loc := r.Location()
	line, col := file.Position(loc.Start)
	endLine, endCol := file.Position(loc.End)
	return Diagnostic{
		Rule:        a.name,
		Severity:    a.severity,
		MessageID:   r.MessageID,
		Message:     r.Message,
		Range:       loc,
		Line:        line,
		Column:      col,
		EndLine:     endLine,
		EndColumn:   endCol,
		Fix:         r.Fix,
		Suggestions: r.Suggestions,
	}
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Range.Start != b.Range.Start {
			return a.Range.Start < b.Range.Start
		}
		return a.Rule < b.Rule
	})
}
