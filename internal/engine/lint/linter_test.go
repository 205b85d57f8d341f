package lint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/parser"
	"zodlint/internal/engine/rules"
	"zodlint/internal/engine/syntax"
)

func newParser(t *testing.T) *parser.Parser {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	return parser.NewParser(loader)
}

func newLinter(t *testing.T, settings map[string]RuleConfig, registry ...rules.Rule) *Linter {
	t.Helper()
	if len(registry) == 0 {
		registry = rules.All()
	}
	l, err := NewLinter(newParser(t), registry, settings)
	require.NoError(t, err)
	return l
}

func recommended() map[string]RuleConfig {
	out := make(map[string]RuleConfig)
	for name, sev := range rules.Recommended() {
		out[name] = RuleConfig{Severity: sev}
	}
	return out
}

type panicRule struct{}

func (panicRule) Meta() rules.Meta {
	return rules.Meta{Name: "boom", Description: "always panics", Type: rules.TypeProblem}
}

func (panicRule) Create(*rules.Context) rules.Handlers {
	return rules.Handlers{OnCall: func(*syntax.Node) { panic("boom") }}
}

func TestLinter_Diagnostics(t *testing.T) {
	l := newLinter(t, map[string]RuleConfig{
		"no-any":            {Severity: rules.SeverityError},
		"prefer-meta":       {Severity: rules.SeverityWarn},
		"no-unknown-schema": {Severity: rules.SeverityOff},
	})
	assert.Equal(t, []string{"no-any", "prefer-meta"}, l.Enabled())

	src := "import * as z from \"zod\";\nconst a = z.any();\nconst b = z.string().describe(\"b\");\nconst c = z.unknown();\n"
	res, err := l.LintSource(context.Background(), "schema.ts", []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 2)

	first := res.Diagnostics[0]
	assert.Equal(t, "no-any", first.Rule)
	assert.Equal(t, rules.SeverityError, first.Severity)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 11, first.Column)
	assert.Equal(t, 2, first.EndLine)
	assert.Equal(t, 18, first.EndColumn)

	second := res.Diagnostics[1]
	assert.Equal(t, "prefer-meta", second.Rule)
	assert.Equal(t, rules.SeverityWarn, second.Severity)
	assert.NotEmpty(t, second.Fix)

	assert.Equal(t, 1, res.Count(rules.SeverityError))
	assert.Equal(t, 1, res.Count(rules.SeverityWarn))
}

func TestLinter_SymbolTableIsPerFile(t *testing.T) {
	l := newLinter(t, map[string]RuleConfig{"no-any": {Severity: rules.SeverityError}})

	res, err := l.LintSource(context.Background(), "a.ts", []byte("import * as z from \"zod\";\nz.any();\n"))
	require.NoError(t, err)
	assert.Len(t, res.Diagnostics, 1)

	res, err = l.LintSource(context.Background(), "b.ts", []byte("z.any();\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
}

func TestLinter_PanickingRuleIsIsolated(t *testing.T) {
	l := newLinter(t, map[string]RuleConfig{
		"boom":   {Severity: rules.SeverityError},
		"no-any": {Severity: rules.SeverityError},
	}, panicRule{}, rules.NoAny)

	res, err := l.LintSource(context.Background(), "a.ts", []byte("import * as z from \"zod\";\nz.any();\nz.any();\n"))
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 2)
	for _, d := range res.Diagnostics {
		assert.Equal(t, "no-any", d.Rule)
	}
}

func TestNewLinter_Errors(t *testing.T) {
	p := newParser(t)

	_, err := NewLinter(p, rules.All(), map[string]RuleConfig{"no-such-rule": {Severity: rules.SeverityError}})
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
	var de *coreerrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "no-such-rule", de.Context[coreerrors.CtxRule])

	_, err = NewLinter(p, rules.All(), map[string]RuleConfig{
		"array-style": {Severity: rules.SeverityError, Options: rules.Options{"style": "sideways"}},
	})
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "array-style", de.Context[coreerrors.CtxRule])
	assert.Equal(t, "style", de.Context[coreerrors.CtxOption])
}

func TestLinter_Fingerprint(t *testing.T) {
	a := newLinter(t, map[string]RuleConfig{"array-style": {Severity: rules.SeverityError}})
	b := newLinter(t, map[string]RuleConfig{"array-style": {Severity: rules.SeverityError}})
	c := newLinter(t, map[string]RuleConfig{
		"array-style": {Severity: rules.SeverityError, Options: rules.Options{"style": "method"}},
	})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestLinter_UnsupportedFile(t *testing.T) {
	l := newLinter(t, recommended())
	_, err := l.LintSource(context.Background(), "main.go", []byte("package main"))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotSupported))
}

func TestFixSource_MultiplePasses(t *testing.T) {
	l := newLinter(t, recommended())
	src := "import * as z from \"zod\";\nconst userSchema = z.string().describe(\"x\").trim();\n"

	out, res, err := l.FixSource(context.Background(), "a.ts", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "import * as z from \"zod\";\nconst userSchema = z.string().trim().meta({ description: \"x\" });\n", string(out))
	assert.Equal(t, 2, res.Fixed)
	assert.Empty(t, res.Diagnostics)
}

func TestFixSource_OverlappingFixesWaitForNextPass(t *testing.T) {
	l := newLinter(t, map[string]RuleConfig{
		"array-style":                      {Severity: rules.SeverityError},
		"no-optional-and-default-together": {Severity: rules.SeverityError, Options: rules.Options{"preferredMethod": "default"}},
	})
	src := "import * as z from \"zod\";\nconst a = z.string().optional().default(\"x\").array();\n"

	out, res, err := l.FixSource(context.Background(), "a.ts", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "import * as z from \"zod\";\nconst a = z.array(z.string().default(\"x\"));\n", string(out))
	assert.Equal(t, 2, res.Fixed)
	assert.Empty(t, res.Diagnostics)
}

func TestFixSource_LeavesBrokenFilesAlone(t *testing.T) {
	l := newLinter(t, recommended())
	src := "import * as z from \"zod\";\nconst a = z.string().describe(\"x\");\nconst b = (;\n"

	out, res, err := l.FixSource(context.Background(), "a.ts", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
	assert.True(t, res.SyntaxErrors)
	assert.Zero(t, res.Fixed)
}

func TestFixSource_SuggestionsAreNotApplied(t *testing.T) {
	l := newLinter(t, map[string]RuleConfig{"no-any": {Severity: rules.SeverityError}})
	src := "import * as z from \"zod\";\nconst aSchema = z.any();\n"

	out, res, err := l.FixSource(context.Background(), "a.ts", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
	require.Len(t, res.Diagnostics, 1)
	assert.NotEmpty(t, res.Diagnostics[0].Suggestions)
}
