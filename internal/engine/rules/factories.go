package rules

import (
	"fmt"
	"slices"
	"strings"

	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
)

// Rules that only look at the root factory of a schema chain.

var NoAny Rule = definition{
	meta: Meta{
		Name:           "no-any",
		Description:    "Disallow usage of `z.any()` in Zod schemas",
		Type:           TypeSuggestion,
		HasSuggestions: true,
		Recommended:    true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil || desc.RootFactory != "any" {
					return
				}
				r := Report{
					Node:      call,
					MessageID: "noZAny",
					Message:   "Using `z.any()` is not allowed. Please use a more specific schema.",
				}
				if factory, ok := desc.Factory(); ok && desc.IsNamespace() {
					if f, ok := ctx.Fixer.RenameProperty(factory, "unknown"); ok {
						r.Suggestions = append(r.Suggestions, Suggestion{
							Message: "Replace `z.any()` with `z.unknown()`",
							Fix:     f,
						})
					}
				}
				ctx.Report(r)
			},
		}
	},
}

var NoUnknownSchema Rule = definition{
	meta: Meta{
		Name:        "no-unknown-schema",
		Description: "Disallow usage of `z.unknown()` in Zod schemas",
		Type:        TypeSuggestion,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil || desc.RootFactory != "unknown" {
					return
				}
				ctx.Report(Report{
					Node:      call,
					MessageID: "noZUnknown",
					Message:   "Using `z.unknown()` is not allowed. Please use a more specific schema.",
				})
			},
		}
	},
}

var NoEmptyCustomSchema Rule = definition{
	meta: Meta{
		Name:        "no-empty-custom-schema",
		Description: "Disallow usage of `z.custom()` without arguments",
		Type:        TypeSuggestion,
		Recommended: true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil || desc.RootFactory != "custom" {
					return
				}
				factory, ok := desc.Factory()
				if !ok || factory.ArgumentCount > 0 {
					return
				}
				ctx.Report(Report{
					Node:      call,
					MessageID: "noEmptyCustomSchema",
					Message:   "You should provide a validate function within `z.custom()`",
				})
			},
		}
	},
}

var objectFactories = []string{"object", "looseObject", "strictObject"}

var ConsistentObjectSchemaType Rule = definition{
	meta: Meta{
		Name:           "consistent-object-schema-type",
		Description:    "Enforce consistent usage of Zod schema methods",
		Type:           TypeSuggestion,
		HasSuggestions: true,
		Options: []OptionSpec{{
			Name:        "allow",
			Kind:        OptionStringList,
			Description: "Decides which object methods are allowed",
			Enum:        objectFactories,
			Default:     []string{"object"},
			MinItems:    1,
		}},
	},
	create: func(ctx *Context) Handlers {
		allowed := ctx.Options.Strings("allow", []string{"object"})
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil || !slices.Contains(objectFactories, desc.RootFactory) {
					return
				}
				if slices.Contains(allowed, desc.RootFactory) {
					return
				}
				r := Report{
					Node:      call,
					MessageID: "consistentMethod",
					Message: fmt.Sprintf("Inconsistent Zod object schema method '%s'. Allowed: %s.",
						desc.RootFactory, strings.Join(allowed, ",")),
				}
				if desc.IsNamespace() {
					r.Suggestions = renameSuggestions(ctx, desc, allowed, "Replace with '%s'.")
				}
				ctx.Report(r)
			},
		}
	},
}

var strictCandidates = []string{"object", "looseObject"}

var PreferStrictObject Rule = definition{
	meta: Meta{
		Name:           "prefer-strict-object",
		Description:    "Enforce usage of `.strictObject()` over `.object()` and/or `.looseObject()`",
		Type:           TypeSuggestion,
		HasSuggestions: true,
		Options: []OptionSpec{{
			Name:        "allow",
			Kind:        OptionStringList,
			Description: "Object factories that are still accepted",
			Enum:        strictCandidates,
			Default:     []string{},
		}},
	},
	create: func(ctx *Context) Handlers {
		allowed := ctx.Options.Strings("allow", nil)
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil || !slices.Contains(strictCandidates, desc.RootFactory) {
					return
				}
				if slices.Contains(allowed, desc.RootFactory) {
					return
				}
				r := Report{
					Node:      call,
					MessageID: "useStrictObject",
					Message:   fmt.Sprintf("Use `.strictObject()` instead of `.%s()`", desc.RootFactory),
				}
				if desc.IsNamespace() {
					r.Suggestions = renameSuggestions(ctx, desc, []string{"strictObject"}, "Replace with '%s'.")
				}
				ctx.Report(r)
			},
		}
	},
}

// renameSuggestions offers one rename of the root factory per candidate.
func renameSuggestions(ctx *Context, desc *schema.SchemaDescriptor, names []string, format string) []Suggestion {
	factory, ok := desc.Factory()
	if !ok {
		return nil
	}
	var out []Suggestion
	for _, name := range names {
		f, ok := ctx.Fixer.RenameProperty(factory, name)
		if !ok {
			return nil
		}
		out = append(out, Suggestion{Message: fmt.Sprintf(format, name), Fix: f})
	}
	return out
}
