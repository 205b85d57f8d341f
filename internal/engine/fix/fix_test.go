package fix

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "zodlint/internal/core/errors"
	"zodlint/internal/engine/parser"
	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
)

func parse(t *testing.T, src string) (*syntax.File, *schema.Resolver) {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	file, err := parser.NewParser(loader).ParseFile("input.ts", []byte(src))
	require.NoError(t, err)
	require.False(t, file.HasErrors)

	symbols := schema.NewSymbolTable()
	for _, decl := range syntax.Collect(file.Root, syntax.KindImportDeclaration) {
		symbols.Record(decl)
	}
	return file, schema.NewResolver(symbols)
}

func describe(t *testing.T, file *syntax.File, resolver *schema.Resolver, text string) *schema.SchemaDescriptor {
	t.Helper()
	for _, call := range syntax.Collect(file.Root, syntax.KindCall) {
		if file.Text(call) == text {
			desc := resolver.Resolve(call)
			require.NotNil(t, desc, text)
			return desc
		}
	}
	t.Fatalf("no call %q", text)
	return nil
}

// assertUntouched checks that every byte outside the edit spans of f is
// carried over unchanged, in order.
func assertUntouched(t *testing.T, src, out []byte, f Fix) {
	t.Helper()
	edits := append(Fix(nil), f...)
	sort.Slice(edits, func(i, j int) bool { return edits[i].Span().Start < edits[j].Span().Start })

	si, oi := 0, 0
	for _, e := range edits {
		span := e.Span()
		keep := src[si:span.Start]
		require.GreaterOrEqual(t, len(out)-oi, len(keep))
		assert.Equal(t, string(keep), string(out[oi:oi+len(keep)]))
		oi += len(keep) + len(e.Replacement())
		si = span.End
	}
	assert.Equal(t, string(src[si:]), string(out[oi:]))
}

func TestRelocateToEnd(t *testing.T) {
	src := "import * as z from \"zod\";\nconst a = z.string().describe(\"x\").trim();\n"
	file, resolver := parse(t, src)
	desc := describe(t, file, resolver, `z.string().describe("x").trim()`)

	step, ok := desc.Chain.Find("describe")
	require.True(t, ok)

	f, ok := NewSynthesizer(file).RelocateToEnd(step, desc.Chain)
	require.True(t, ok)
	require.Len(t, f, 2)

	out, err := Apply(file.Source, f)
	require.NoError(t, err)
	assert.Equal(t, "import * as z from \"zod\";\nconst a = z.string().trim().describe(\"x\");\n", string(out))
	assertUntouched(t, file.Source, out, f)
}

func TestRelocateToEnd_PreservesFormatting(t *testing.T) {
	src := "import * as z from 'zod';\nz.object({})\n  .meta({ id:  'a' })\n  .strict()\n  .optional();\n"
	file, resolver := parse(t, src)
	desc := describe(t, file, resolver, "z.object({})\n  .meta({ id:  'a' })\n  .strict()\n  .optional()")

	step, _ := desc.Chain.Find("meta")
	f, ok := NewSynthesizer(file).RelocateToEnd(step, desc.Chain)
	require.True(t, ok)

	out, err := Apply(file.Source, f)
	require.NoError(t, err)
	assert.Equal(t, "import * as z from 'zod';\nz.object({})\n  .strict()\n  .optional()\n  .meta({ id:  'a' });\n", string(out))
	assertUntouched(t, file.Source, out, f)
}

func TestRelocateToEnd_Declines(t *testing.T) {
	file, resolver := parse(t, "import * as z from \"zod\";\nz.string().describe(\"x\");\n")
	desc := describe(t, file, resolver, `z.string().describe("x")`)
	s := NewSynthesizer(file)

	last, _ := desc.Chain.Last()
	_, ok := s.RelocateToEnd(last, desc.Chain)
	assert.False(t, ok, "already last")

	_, ok = s.RelocateToEnd(schema.MethodCall{Name: "x"}, desc.Chain)
	assert.False(t, ok, "not an invoked step")
}

func TestDropRedundant(t *testing.T) {
	tests := []struct {
		name string
		drop string
		want string
	}{
		{"drop optional", "optional", "z.string().default(\"a\");"},
		{"drop default", "default", "z.string().optional();"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "import * as z from \"zod\";\nz.string().optional().default(\"a\");"
			file, resolver := parse(t, src)
			desc := describe(t, file, resolver, `z.string().optional().default("a")`)

			step, ok := desc.Chain.Find(tt.drop)
			require.True(t, ok)
			f, ok := NewSynthesizer(file).DropRedundant(step)
			require.True(t, ok)

			out, err := Apply(file.Source, f)
			require.NoError(t, err)
			assert.Equal(t, "import * as z from \"zod\";\n"+tt.want, string(out))
		})
	}
}

func TestDropRedundant_DeclinesNamedRoot(t *testing.T) {
	file, resolver := parse(t, "import { string } from \"zod\";\nstring().optional();\n")
	desc := describe(t, file, resolver, "string().optional()")

	_, ok := NewSynthesizer(file).DropRedundant(desc.Chain[0])
	assert.False(t, ok, "a bare identifier call has no receiver")
}

func TestRenameAndWrap(t *testing.T) {
	src := "import * as z from \"zod\";\nz.string().describe( 'the name' );\n"
	file, resolver := parse(t, src)
	desc := describe(t, file, resolver, "z.string().describe( 'the name' )")
	step, _ := desc.Chain.Find("describe")

	s := NewSynthesizer(file)
	rename, ok := s.RenameProperty(step, "meta")
	require.True(t, ok)
	wrap, ok := s.WrapArgument(step.Arguments()[0], "{ description: ", " }")
	require.True(t, ok)

	f := append(rename, wrap...)
	require.NoError(t, Validate(f, len(file.Source)))
	out, err := Apply(file.Source, f)
	require.NoError(t, err)
	assert.Equal(t, "import * as z from \"zod\";\nz.string().meta( { description: 'the name' } );\n", string(out))
	assertUntouched(t, file.Source, out, f)
}

func TestRenameProperty_DeclinesComputed(t *testing.T) {
	file, resolver := parse(t, "import * as z from \"zod\";\nz.string()[\"describe\"](\"x\");\n")
	desc := describe(t, file, resolver, `z.string()["describe"]("x")`)
	step, _ := desc.Chain.Find("describe")

	_, ok := NewSynthesizer(file).RenameProperty(step, "meta")
	assert.False(t, ok)
}

func TestRemoveCall(t *testing.T) {
	file, resolver := parse(t, "import * as z from \"zod\";\nz.string().brand().min(1);\n")
	desc := describe(t, file, resolver, "z.string().brand().min(1)")
	step, _ := desc.Chain.Find("brand")

	f, ok := NewSynthesizer(file).RemoveCall(step)
	require.True(t, ok)
	out, err := Apply(file.Source, f)
	require.NoError(t, err)
	assert.Equal(t, "import * as z from \"zod\";\nz.string().min(1);\n", string(out))
}

func TestNormalizeImports(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		typeOnly bool
		want     string
		edits    int
	}{
		{
			name:  "already valid, duplicate removed",
			src:   "import * as z from \"zod\";\nimport { string } from \"zod\";\n",
			want:  "import * as z from \"zod\";\n\n",
			edits: 1,
		},
		{
			name:  "named first keeps quote style",
			src:   "import { z } from 'zod/v4';\n",
			want:  "import * as z from 'zod/v4';\n",
			edits: 1,
		},
		{
			name:     "type only",
			src:      "import type { ZodType } from \"zod\";\n",
			typeOnly: true,
			want:     "import type * as ZodType from \"zod\";\n",
			edits:    1,
		},
		{
			name:  "default import",
			src:   "import zod from \"zod\";\nimport * as z from \"zod\";\n",
			want:  "import * as zod from \"zod\";\n\n",
			edits: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, _ := parse(t, tt.src)
			decls := syntax.Collect(file.Root, syntax.KindImportDeclaration)

			f, ok := NewSynthesizer(file).NormalizeImports(decls, tt.typeOnly, "z")
			require.True(t, ok)
			assert.Len(t, f, tt.edits)

			out, err := Apply(file.Source, f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestNormalizeImports_NothingToDo(t *testing.T) {
	file, _ := parse(t, "import * as z from \"zod\";\n")
	decls := syntax.Collect(file.Root, syntax.KindImportDeclaration)

	f, ok := NewSynthesizer(file).NormalizeImports(decls, false, "z")
	require.True(t, ok)
	assert.Empty(t, f)

	_, ok = NewSynthesizer(file).NormalizeImports(nil, false, "z")
	assert.False(t, ok)
}

func TestRemoveProperty(t *testing.T) {
	tests := []struct {
		name string
		src  string
		key  string
		want string
	}{
		{"first of two", `f({ message: "m", path: [] });`, "message", `f({ path: [] });`},
		{"last of two", `f({ path: [], message: "m" });`, "message", `f({ path: [] });`},
		{"only", `f({ message: "m" });`, "message", `f({  });`},
		{"trailing comma", "f({\n  message: \"m\",\n});", "message", "f({\n  });"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, _ := parse(t, tt.src)
			var prop *syntax.Node
			for _, p := range syntax.Collect(file.Root, syntax.KindProperty) {
				if p.Key.Name == tt.key {
					prop = p
				}
			}
			require.NotNil(t, prop)

			f, ok := NewSynthesizer(file).RemoveProperty(prop)
			require.True(t, ok)
			out, err := Apply(file.Source, f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		fix  Fix
		code coreerrors.ErrorCode
	}{
		{"disjoint", Fix{RemoveRange(syntax.Range{Start: 0, End: 2}), ReplaceRange(syntax.Range{Start: 2, End: 4}, "x")}, ""},
		{"insert at removal end", Fix{RemoveRange(syntax.Range{Start: 0, End: 2}), InsertAfterRange(syntax.Range{Start: 0, End: 2}, "x")}, ""},
		{"overlap", Fix{RemoveRange(syntax.Range{Start: 0, End: 3}), ReplaceRange(syntax.Range{Start: 2, End: 4}, "x")}, coreerrors.CodeConflict},
		{"double insert", Fix{InsertAfterRange(syntax.Range{Start: 1, End: 3}, "a"), InsertAfterRange(syntax.Range{Start: 3, End: 3}, "b")}, coreerrors.CodeConflict},
		{"out of bounds", Fix{RemoveRange(syntax.Range{Start: 5, End: 20})}, coreerrors.CodeValidationError},
		{"inverted", Fix{RemoveRange(syntax.Range{Start: 4, End: 2})}, coreerrors.CodeValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.fix, 10)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, coreerrors.IsCode(err, tt.code), err.Error())
		})
	}
}

func TestApply_OrderIndependent(t *testing.T) {
	src := []byte("abcdef")
	f := Fix{
		InsertAfterRange(syntax.Range{Start: 4, End: 6}, "!"),
		ReplaceRange(syntax.Range{Start: 0, End: 1}, "A"),
		RemoveRange(syntax.Range{Start: 2, End: 4}),
	}
	out, err := Apply(src, f)
	require.NoError(t, err)
	assert.Equal(t, "Abef!", string(out))
	assertUntouched(t, src, out, f)
}

func TestFix_Span(t *testing.T) {
	f := Fix{
		RemoveRange(syntax.Range{Start: 4, End: 6}),
		InsertAfterRange(syntax.Range{Start: 0, End: 9}, "x"),
	}
	assert.Equal(t, syntax.Range{Start: 4, End: 9}, f.Span())
	assert.Equal(t, syntax.Range{}, Fix(nil).Span())
}
