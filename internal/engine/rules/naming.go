package rules

import (
	"fmt"
	"strings"

	"zodlint/internal/engine/fix"
	"zodlint/internal/engine/syntax"
)

// Chains ending in one of these produce parsed values, not schemas.
var valueProducingMethods = []string{
	"parse", "parseAsync", "safeParse", "safeParseAsync", "spa",
	"encode", "encodeAsync", "decode", "decodeAsync",
	"safeEncode", "safeEncodeAsync", "safeDecode", "safeDecodeAsync",
	"codec",
}

var RequireSchemaSuffix Rule = definition{
	meta: Meta{
		Name:        "require-schema-suffix",
		Description: "Require schema suffix when declaring a Zod schema",
		Type:        TypeSuggestion,
		Fixable:     true,
		Recommended: true,
		Options: []OptionSpec{{
			Name:        "suffix",
			Kind:        OptionString,
			Description: "The suffix that schema variables must end with",
			Default:     "Schema",
		}},
	},
	create: func(ctx *Context) Handlers {
		suffix := ctx.Options.String("suffix", "Schema")
		return Handlers{
			OnDeclarator: func(decl *syntax.Node) {
				if !decl.ID.Is(syntax.KindIdentifier) || !decl.Init.Is(syntax.KindCall) {
					return
				}
				desc := ctx.Resolver.Resolve(decl.Init)
				if desc == nil {
					return
				}
				for _, name := range valueProducingMethods {
					if desc.Chain.Contains(name) {
						return
					}
				}
				if strings.HasSuffix(decl.ID.Name, suffix) {
					return
				}
				ctx.Report(Report{
					Node:      decl.ID,
					MessageID: "noSchemaSuffix",
					Message:   fmt.Sprintf("Variable '%s' should end with '%s' suffix", decl.ID.Name, suffix),
					Fix:       fix.Fix{fix.InsertAfterNode(decl.ID, suffix)},
				})
			},
		}
	},
}
