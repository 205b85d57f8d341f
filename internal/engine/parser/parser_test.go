package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/syntax"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	loader, err := NewGrammarLoader()
	require.NoError(t, err)
	return NewParser(loader)
}

func parseTS(t *testing.T, src string) *syntax.File {
	t.Helper()
	file, err := newTestParser(t).ParseFile("schema.ts", []byte(src))
	require.NoError(t, err)
	require.False(t, file.HasErrors, "unexpected syntax error in %q", src)
	return file
}

func TestParser_LanguageFor(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"a.ts", "typescript", true},
		{"a.MTS", "typescript", true},
		{"a.tsx", "tsx", true},
		{"a.jsx", "javascript", true},
		{"a.cjs", "javascript", true},
		{"a.go", "", false},
	}
	for _, tt := range tests {
		got, ok := p.LanguageFor(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestParser_UnsupportedExtension(t *testing.T) {
	_, err := newTestParser(t).ParseFile("main.go", []byte("package main"))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotSupported))
}

func TestParser_SyntaxErrorsStillProduceTree(t *testing.T) {
	file, err := newTestParser(t).ParseFile("broken.ts", []byte("const a = z.string(;\n"))
	require.NoError(t, err)
	assert.True(t, file.HasErrors)
	require.NotNil(t, file.Root)
	assert.Equal(t, syntax.KindProgram, file.Root.Kind)
}

func TestLower_Imports(t *testing.T) {
	file := parseTS(t, `import z from "zod";
import * as zz from 'zod/v4';
import { string as str, object } from "zod";
import type { ZodType } from "zod";
`)
	imports := syntax.Collect(file.Root, syntax.KindImportDeclaration)
	require.Len(t, imports, 4)

	def := imports[0]
	assert.Equal(t, "zod", def.Source.Value)
	require.Len(t, def.Specifiers, 1)
	assert.Equal(t, syntax.KindImportDefault, def.Specifiers[0].Kind)
	assert.Equal(t, "z", def.Specifiers[0].Local.Name)

	ns := imports[1]
	assert.Equal(t, "zod/v4", ns.Source.Value)
	require.Len(t, ns.Specifiers, 1)
	assert.Equal(t, syntax.KindImportNamespace, ns.Specifiers[0].Kind)
	assert.Equal(t, "zz", ns.Specifiers[0].Local.Name)

	named := imports[2]
	require.Len(t, named.Specifiers, 2)
	assert.Equal(t, "string", named.Specifiers[0].Imported.Name)
	assert.Equal(t, "str", named.Specifiers[0].Local.Name)
	assert.Equal(t, "object", named.Specifiers[1].Local.Name)
	assert.False(t, named.TypeOnly)

	assert.True(t, imports[3].TypeOnly)
}

func TestLower_CallChain(t *testing.T) {
	file := parseTS(t, `const s = z.string().min(1, "msg");`)

	decls := syntax.Collect(file.Root, syntax.KindVariableDeclarator)
	require.Len(t, decls, 1)
	assert.Equal(t, "s", decls[0].ID.Name)

	outer := decls[0].Init
	require.Equal(t, syntax.KindCall, outer.Kind)
	assert.Equal(t, `z.string().min(1, "msg")`, file.Text(outer))
	require.Len(t, outer.Arguments, 2)
	assert.Equal(t, "msg", outer.Arguments[1].Value)

	member := outer.Callee
	require.Equal(t, syntax.KindMember, member.Kind)
	assert.Equal(t, "min", member.Property.Name)
	assert.True(t, member.IsCallee())

	inner := member.Object
	require.Equal(t, syntax.KindCall, inner.Kind)
	assert.True(t, inner.IsMemberObject())
	assert.Empty(t, inner.Arguments)
	assert.Equal(t, "z", inner.Callee.Object.Name)
}

func TestLower_ComputedAndTemplateProperties(t *testing.T) {
	file := parseTS(t, "z[\"string\"]();\nz[`number`]();\n")

	calls := syntax.Collect(file.Root, syntax.KindCall)
	require.Len(t, calls, 2)

	for i, want := range []string{"string", "number"} {
		member := calls[i].Callee
		require.Equal(t, syntax.KindMember, member.Kind)
		assert.True(t, member.Computed)
		name, ok := syntax.StaticName(member.Property)
		require.True(t, ok)
		assert.Equal(t, want, name)
	}
}

func TestLower_TemplateWithSubstitution(t *testing.T) {
	file := parseTS(t, "const m = `a${b}c`;")
	tpl := syntax.Collect(file.Root, syntax.KindTemplateLiteral)
	require.Len(t, tpl, 1)
	assert.Equal(t, []string{"a", "c"}, tpl[0].Quasis)
	require.Len(t, tpl[0].Expressions, 1)
	assert.Equal(t, "b", tpl[0].Expressions[0].Name)

	_, ok := syntax.StaticName(tpl[0])
	assert.False(t, ok)
}

func TestLower_ObjectProperties(t *testing.T) {
	file := parseTS(t, `f({ message: "m", error, ...rest });`)
	objects := syntax.Collect(file.Root, syntax.KindObject)
	require.Len(t, objects, 1)

	props := syntax.Collect(objects[0], syntax.KindProperty)
	require.Len(t, props, 2)
	assert.Equal(t, "message", props[0].Key.Name)
	assert.Equal(t, "m", props[0].ValueNode.Value)
	assert.False(t, props[0].Shorthand)
	assert.True(t, props[1].Shorthand)
	assert.Equal(t, "error", props[1].Key.Name)
	assert.Same(t, objects[0], props[1].Parent)

	assert.Len(t, syntax.Collect(objects[0], syntax.KindSpread), 1)
}

func TestLower_FunctionsAndThrow(t *testing.T) {
	file := parseTS(t, `s.refine((v) => { if (!v) { throw new Error("x"); } return true; });`)
	fns := syntax.Collect(file.Root, syntax.KindFunction)
	require.Len(t, fns, 1)
	require.NotNil(t, fns[0].Body)

	throws := syntax.Collect(fns[0], syntax.KindThrow)
	require.Len(t, throws, 1)
	assert.Equal(t, 1, throws[0].Line)
}

func TestLower_OptionalChainAndParens(t *testing.T) {
	file := parseTS(t, `const a = (z).string?.();`)
	calls := syntax.Collect(file.Root, syntax.KindCall)
	require.Len(t, calls, 1)

	assert.True(t, calls[0].Optional)
	member := calls[0].Callee
	require.Equal(t, syntax.KindMember, member.Kind)
	assert.Equal(t, syntax.KindParenthesized, member.Object.Kind)
	assert.Equal(t, "z", syntax.Unparen(member.Object).Name)
}

func TestLower_PositionsAreOneBased(t *testing.T) {
	file := parseTS(t, "\n  z.any();\n")
	calls := syntax.Collect(file.Root, syntax.KindCall)
	require.Len(t, calls, 1)
	assert.Equal(t, 2, calls[0].Line)
	assert.Equal(t, 3, calls[0].Column)

	line, col := file.Position(calls[0].Start)
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)
}
