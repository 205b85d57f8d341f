package rules

import (
	"strings"

	"zodlint/internal/engine/fix"
	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
)

var ArrayStyle Rule = definition{
	meta: Meta{
		Name:        "array-style",
		Description: "Enforce consistent Zod array style",
		Type:        TypeSuggestion,
		Fixable:     true,
		Recommended: true,
		Options: []OptionSpec{{
			Name:        "style",
			Kind:        OptionString,
			Description: "Decides which style for zod array function",
			Enum:        []string{"function", "method"},
			Default:     "function",
		}},
	},
	create: func(ctx *Context) Handlers {
		style := ctx.Options.String("style", "function")
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil {
					return
				}
				if style == "method" {
					reportArrayFunction(ctx, desc)
					return
				}
				reportArrayMethod(ctx, desc)
			},
		}
	},
}

// reportArrayMethod flags X.array() and rewrites it to z.array(X).
func reportArrayMethod(ctx *Context, desc *schema.SchemaDescriptor) {
	for _, step := range desc.Methods() {
		if step.Name != "array" || !step.Invoked || !step.Node.Callee.Is(syntax.KindMember) {
			continue
		}
		r := Report{
			Node:      step.Node,
			MessageID: "useFunction",
			Message:   "Use z.array(schema) instead of schema.array().",
		}
		if prefix, ok := arrayFactory(ctx); ok && step.ArgumentCount == 0 {
			object := step.Node.Callee.Object
			r.Fix = fix.Fix{fix.ReplaceNode(step.Node, prefix+"("+ctx.Text(object)+")")}
		}
		ctx.Report(r)
	}
}

// reportArrayFunction flags z.array(X) and rewrites it to X.array().
func reportArrayFunction(ctx *Context, desc *schema.SchemaDescriptor) {
	if desc.RootFactory != "array" {
		return
	}
	factory, ok := desc.Factory()
	if !ok {
		return
	}
	r := Report{
		Node:      factory.Node,
		MessageID: "useMethod",
		Message:   "Use schema.array() instead of z.array(schema).",
	}
	if args := factory.Arguments(); len(args) == 1 && safeReceiver(args[0]) {
		r.Fix = fix.Fix{fix.ReplaceNode(factory.Node, ctx.Text(args[0])+".array()")}
	}
	ctx.Report(r)
}

// arrayFactory returns the callee text that builds an array schema in this
// file: the namespace's `array` member or a named `array` import.
func arrayFactory(ctx *Context) (string, bool) {
	if ns, ok := ctx.NamespaceName(); ok {
		return ns + ".array", true
	}
	if ctx.Symbols.IsNamedImport("array") {
		return "array", true
	}
	return "", false
}

// safeReceiver reports whether `.method()` can be appended to n without
// changing what it binds to.
func safeReceiver(n *syntax.Node) bool {
	switch n.Kind {
	case syntax.KindCall, syntax.KindMember, syntax.KindIdentifier, syntax.KindParenthesized:
		return true
	}
	return false
}

var NoNumberSchemaWithInt Rule = definition{
	meta: Meta{
		Name:        "no-number-schema-with-int",
		Description: "Disallow usage of `z.number().int()` as it is considered legacy",
		Type:        TypeProblem,
		Fixable:     true,
		Recommended: true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil || desc.RootFactory != "number" {
					return
				}
				numberIdx := desc.Chain.Index("number")
				intIdx := desc.Chain.Index("int")
				if numberIdx < 0 || intIdx < numberIdx {
					return
				}
				number, intStep := desc.Chain[numberIdx], desc.Chain[intIdx]

				r := Report{
					Node:      intStep.Node,
					MessageID: "removeNumber",
					Message:   "`z.number().int()` is considered legacy. Use `z.int()` instead.",
				}
				if desc.IsNamespace() {
					if f, ok := numberToInt(ctx, desc.Chain[numberIdx:intIdx+1], number, intStep); ok {
						r.Fix = f
					}
				}
				ctx.Report(r)
			},
		}
	},
}

// numberToInt turns `z.number().a().int()` into `z.int().a()`.
func numberToInt(ctx *Context, span schema.CallChain, number, intStep schema.MethodCall) (fix.Fix, bool) {
	if !number.Invoked || !intStep.Invoked || !number.Node.Callee.Is(syntax.KindMember) {
		return nil, false
	}
	prefix := ctx.Text(number.Node.Callee.Object)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(".int()")
	for _, step := range span[1 : len(span)-1] {
		segment, ok := ctx.Fixer.Segment(step)
		if !ok {
			return nil, false
		}
		b.WriteString(segment)
	}
	return fix.Fix{fix.ReplaceRange(syntax.Range{Start: number.Node.Start, End: intStep.Node.End}, b.String())}, true
}

var NoOptionalAndDefaultTogether Rule = definition{
	meta: Meta{
		Name:        "no-optional-and-default-together",
		Description: "Disallow using both `.optional()` and `.default()` on the same Zod schema",
		Type:        TypeProblem,
		Fixable:     true,
		Recommended: true,
		Options: []OptionSpec{{
			Name:        "preferredMethod",
			Kind:        OptionString,
			Description: "Determines which method to keep when both are present",
			Enum:        []string{"none", "default", "optional"},
			Default:     "none",
		}},
	},
	create: func(ctx *Context) Handlers {
		preferred := ctx.Options.String("preferredMethod", "none")
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil {
					return
				}
				methods := desc.Methods()
				optIdx, defIdx := methods.Index("optional"), methods.Index("default")
				if optIdx < 0 || defIdx < 0 {
					return
				}
				later := methods[defIdx]
				if optIdx > defIdx {
					later = methods[optIdx]
				}

				r := Report{
					Node:      later.Node,
					MessageID: "noOptionalAndDefaultTogether",
					Message:   "Using both `.optional()` and `.default()` is redundant. A schema with a default value is already optional.",
				}
				var drop schema.MethodCall
				switch preferred {
				case "default":
					drop = methods[optIdx]
				case "optional":
					drop = methods[defIdx]
				}
				if drop.Node != nil {
					if f, ok := ctx.Fixer.DropRedundant(drop); ok {
						r.Fix = f
					}
				}
				ctx.Report(r)
			},
		}
	},
}

var PreferMeta Rule = definition{
	meta: Meta{
		Name:        "prefer-meta",
		Description: "Enforce usage of `.meta()` over `.describe()`",
		Type:        TypeSuggestion,
		Fixable:     true,
		Recommended: true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil {
					return
				}
				describe, ok := desc.Methods().Find("describe")
				if !ok || !describe.Invoked {
					return
				}
				r := Report{
					Node:      call,
					MessageID: "preferMeta",
					Message:   "The `.describe()` method still exists for compatibility with Zod 3, but `.meta()` is now the recommended approach.",
				}
				if args := describe.Arguments(); len(args) == 1 {
					rename, okRename := ctx.Fixer.RenameProperty(describe, "meta")
					wrap, okWrap := ctx.Fixer.WrapArgument(args[0], "{ description: ", " }")
					if okRename && okWrap {
						r.Fix = append(rename, wrap...)
					}
				}
				ctx.Report(r)
			},
		}
	},
}

var PreferMetaLast Rule = definition{
	meta: Meta{
		Name:        "prefer-meta-last",
		Description: "Enforce .meta() as last method",
		Type:        TypeSuggestion,
		Fixable:     true,
		Recommended: true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil {
					return
				}
				methods := desc.Methods()
				for i, step := range methods {
					if step.Name != "meta" || !step.Invoked || !followedByOtherMethod(methods[i+1:]) {
						continue
					}
					r := Report{
						Node:      step.Node.Callee.Property,
						MessageID: "metaNotLast",
						Message:   "The .meta() methods should be the last one called",
					}
					if f, ok := ctx.Fixer.RelocateToEnd(step, desc.Chain); ok {
						r.Fix = f
					}
					ctx.Report(r)
				}
			},
		}
	},
}

func followedByOtherMethod(rest schema.CallChain) bool {
	for _, step := range rest {
		if step.Name != "meta" {
			return true
		}
	}
	return false
}

var RequireBrandTypeParameter Rule = definition{
	meta: Meta{
		Name:           "require-brand-type-parameter",
		Description:    "Require type parameter on `.brand()` functions",
		Type:           TypeProblem,
		HasSuggestions: true,
		Recommended:    true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil {
					return
				}
				brand, ok := desc.Methods().Find("brand")
				if !ok || !brand.Invoked || hasTypeArguments(brand.Node) {
					return
				}
				r := Report{
					Node:      brand.Node.Callee.Property,
					MessageID: "missingTypeParameter",
					Message:   "Type parameter is required when using `.brand()`",
				}
				if f, ok := ctx.Fixer.RemoveCall(brand); ok {
					r.Suggestions = []Suggestion{{
						Message: "Brand is a static-only construct. If not parameter is required consider removal",
						Fix:     f,
					}}
				}
				ctx.Report(r)
			},
		}
	},
}

func hasTypeArguments(call *syntax.Node) bool {
	return call.TypeArguments != nil && len(call.TypeArguments.Children) > 0
}
