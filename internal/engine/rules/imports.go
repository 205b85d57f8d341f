package rules

import (
	"fmt"
	"slices"
	"strings"

	"zodlint/internal/engine/fix"
	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
)

var ConsistentImportSource Rule = definition{
	meta: Meta{
		Name:           "consistent-import-source",
		Description:    "Enforce consistent source from Zod imports",
		Type:           TypeSuggestion,
		HasSuggestions: true,
		Options: []OptionSpec{{
			Name:        "sources",
			Kind:        OptionStringList,
			Description: "An array of allowed Zod import sources",
			Enum:        schema.KnownSources,
			Default:     []string{schema.LibraryModule},
			MinItems:    1,
		}},
	},
	create: func(ctx *Context) Handlers {
		sources := ctx.Options.Strings("sources", []string{schema.LibraryModule})
		return Handlers{
			OnImport: func(decl *syntax.Node) {
				if decl.Source == nil {
					return
				}
				src := decl.Source.Value
				if !schema.IsLibrarySource(src) || slices.Contains(sources, src) {
					return
				}
				quoted := make([]string, len(sources))
				for i, s := range sources {
					quoted[i] = `"` + s + `"`
				}
				r := Report{
					Node:      decl,
					MessageID: "sourceNotAllowed",
					Message: fmt.Sprintf(`"%s" is not allowed. Available values are: %s`,
						src, strings.Join(quoted, ", ")),
				}
				for _, s := range sources {
					r.Suggestions = append(r.Suggestions, Suggestion{
						Message: fmt.Sprintf(`Replace "%s" with "%s"`, src, s),
						Fix:     fix.Fix{fix.ReplaceNode(decl.Source, requote(decl.Source.Raw, s))},
					})
				}
				ctx.Report(r)
			},
		}
	},
}

// requote swaps the content of a string literal and keeps its quote style.
func requote(raw, value string) string {
	quote := `"`
	if raw != "" && (raw[0] == '\'' || raw[0] == '`') {
		quote = raw[:1]
	}
	return quote + value + quote
}

var PreferNamespaceImport Rule = definition{
	meta: Meta{
		Name:        "prefer-namespace-import",
		Description: "Enforce importing zod as a namespace import (`import * as z from 'zod'`)",
		Type:        TypeSuggestion,
		Fixable:     true,
		Recommended: true,
	},
	create: func(ctx *Context) Handlers {
		var decls []*syntax.Node
		allTypeOnly := true
		return Handlers{
			OnImport: func(decl *syntax.Node) {
				if decl.Source == nil || !schema.IsLibrarySource(decl.Source.Value) {
					return
				}
				decls = append(decls, decl)
				if !decl.TypeOnly {
					allTypeOnly = false
				}
			},
			OnExit: func() {
				if len(decls) == 0 {
					return
				}
				normalized, ok := ctx.Fixer.NormalizeImports(decls, allTypeOnly, schema.NamespaceExport)
				first := decls[0]

				// The merged import is type-only exactly when every zod import is.
				if !fix.IsNamespaceImport(first) || first.TypeOnly != allTypeOnly {
					r := Report{
						Node:      first,
						MessageID: "useNamespace",
						Message:   "Import Zod as a namespace: `import * as z from 'zod'`",
					}
					if ok {
						r.Fix = editsFor(normalized, first)
					}
					ctx.Report(r)
				}
				for _, decl := range decls[1:] {
					r := Report{
						Node:      decl,
						MessageID: "removeDuplicate",
						Message:   "Zod is already imported in this file. Remove the duplicate import.",
					}
					if ok {
						r.Fix = editsFor(normalized, decl)
					}
					ctx.Report(r)
				}
			},
		}
	},
}

// editsFor picks the edits of f that fall inside n.
func editsFor(f fix.Fix, n *syntax.Node) fix.Fix {
	var out fix.Fix
	for _, e := range f {
		if n.Range().Contains(e.Range) {
			out = append(out, e)
		}
	}
	return out
}
