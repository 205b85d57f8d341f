package rules

import (
	"fmt"
	"strings"

	"zodlint/internal/engine/fix"
	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
)

// Rules about refinement callbacks and the error messages handed to them.

// isRefineCall matches `<anything>.refine(...)`. Refinements are often called
// on values whose schema origin cannot be traced, so the callee name is enough
// once the file imports the library at all.
func isRefineCall(ctx *Context, call *syntax.Node) bool {
	if ctx.Symbols.Empty() || !call.Is(syntax.KindCall) {
		return false
	}
	callee := call.Callee
	if !callee.Is(syntax.KindMember) || callee.Computed {
		return false
	}
	return callee.Property.Is(syntax.KindIdentifier) && callee.Property.Name == "refine"
}

// customFactory returns the descriptor whose `custom` factory is call.
func customFactory(ctx *Context, call *syntax.Node) (*schema.SchemaDescriptor, bool) {
	desc := ctx.Resolver.ResolveOutermost(call)
	if desc == nil || desc.RootFactory != "custom" {
		return nil, false
	}
	factory, ok := desc.Factory()
	if !ok || factory.Node != call {
		return nil, false
	}
	return desc, true
}

var NoThrowInRefine Rule = definition{
	meta: Meta{
		Name:        "no-throw-in-refine",
		Description: "Disallow throwing errors directly inside Zod refine callbacks",
		Type:        TypeProblem,
		Recommended: true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				if !isRefineCall(ctx, call) || len(call.Arguments) == 0 {
					return
				}
				callback := syntax.Unparen(call.Arguments[0])
				if !callback.Is(syntax.KindFunction) || callback.Body == nil {
					return
				}
				syntax.Walk(callback.Body, func(n *syntax.Node) bool {
					switch n.Kind {
					case syntax.KindFunction:
						return false
					case syntax.KindThrow:
						ctx.Report(Report{
							Node:      n,
							MessageID: "noThrowInRefine",
							Message:   "Do not throw errors directly inside a z.refine callback.",
						})
					}
					return true
				})
			},
		}
	},
}

var RequireErrorMessage Rule = definition{
	meta: Meta{
		Name:        "require-error-message",
		Description: "Enforce that custom refinements include an error message",
		Type:        TypeSuggestion,
		Fixable:     true,
		Recommended: true,
	},
	create: func(ctx *Context) Handlers {
		return Handlers{
			OnCall: func(call *syntax.Node) {
				method := "refine"
				if !isRefineCall(ctx, call) {
					if _, ok := customFactory(ctx, call); !ok {
						return
					}
					method = "custom"
				}

				if len(call.Arguments) < 2 {
					target := call.Callee
					if target.Is(syntax.KindMember) {
						target = target.Property
					}
					ctx.Report(Report{
						Node:      target,
						MessageID: "requireErrorMessage",
						Message:   fmt.Sprintf("Custom validation with `.%s()` should include an error message", method),
					})
					return
				}
				checkErrorArgument(ctx, call.Arguments[1], method)
			},
		}
	},
}

func checkErrorArgument(ctx *Context, arg *syntax.Node, method string) {
	switch arg.Kind {
	case syntax.KindLiteral, syntax.KindTemplateLiteral:
		return
	case syntax.KindObject:
	default:
		// Identifiers, calls and the like may well produce a message.
		return
	}

	errorProp := findProperty(arg, "error")
	messageProp := findProperty(arg, "message")
	switch {
	case errorProp != nil && messageProp != nil:
		r := Report{
			Node:      messageProp,
			MessageID: "removeMessage",
			Message:   "The `message` property is deprecated and `error` is already set. Remove `message`.",
		}
		if f, ok := ctx.Fixer.RemoveProperty(messageProp); ok {
			r.Fix = f
		}
		ctx.Report(r)

	case messageProp != nil:
		r := Report{
			Node:      arg,
			MessageID: "preferError",
			Message:   "Use the `error` property instead of the deprecated `message` property.",
		}
		if messageProp.Shorthand {
			r.Fix = fix.Fix{fix.ReplaceNode(messageProp, "error: "+ctx.Text(messageProp.Key))}
		} else {
			r.Fix = fix.Fix{fix.ReplaceNode(messageProp.Key, "error")}
		}
		ctx.Report(r)

	case errorProp == nil:
		ctx.Report(Report{
			Node:      arg,
			MessageID: "requireErrorMessage",
			Message:   fmt.Sprintf("Custom validation with `.%s()` should include an error message", method),
		})
	}
}

// findProperty returns the non-computed property of obj named key.
func findProperty(obj *syntax.Node, key string) *syntax.Node {
	for _, child := range obj.Children {
		if !child.Is(syntax.KindProperty) || child.Key == nil {
			continue
		}
		if child.Key.Type == "computed_property_name" {
			continue
		}
		if name, ok := syntax.StaticName(child.Key); ok && name == key {
			return child
		}
	}
	return nil
}

var SchemaErrorPropertyStyle Rule = definition{
	meta: Meta{
		Name:        "schema-error-property-style",
		Description: "Enforce consistent style for error messages in Zod schema validation",
		Type:        TypeSuggestion,
		Options: []OptionSpec{
			{
				Name:        "selector",
				Kind:        OptionString,
				Description: "Comma separated node kinds the error message may be written as",
				Default:     "Literal,TemplateLiteral",
			},
			{
				Name:        "example",
				Kind:        OptionString,
				Description: "Example shown in the report",
				Default:     "'error message'",
			},
		},
	},
	create: func(ctx *Context) Handlers {
		selector := ctx.Options.String("selector", "Literal,TemplateLiteral")
		example := ctx.Options.String("example", "'error message'")
		var accepted []string
		for _, part := range strings.Split(selector, ",") {
			if part = strings.TrimSpace(part); part != "" {
				accepted = append(accepted, part)
			}
		}

		return Handlers{
			OnCall: func(call *syntax.Node) {
				desc := ctx.Resolver.Resolve(call)
				if desc == nil {
					return
				}
				factory, hasFactory := desc.Factory()
				for _, step := range desc.Chain {
					isCustom := hasFactory && step.Node == factory.Node && desc.RootFactory == "custom"
					if !isCustom && step.Name != "refine" {
						continue
					}
					args := step.Arguments()
					if len(args) < 2 {
						continue
					}
					msg := errorMessageNode(args[1])
					if msg == nil || matchesSelector(msg, accepted) {
						continue
					}
					ctx.Report(Report{
						Node:      msg,
						MessageID: "invalidErrorPropertyStyle",
						Message: fmt.Sprintf("Error message should follow the pattern: %s (e.g., %s). Found: %s",
							selector, example, kindLabel(msg)),
					})
				}
			},
		}
	},
}

// errorMessageNode returns the node holding the message: the argument itself,
// or the value of its `error` property when it is an options object.
func errorMessageNode(arg *syntax.Node) *syntax.Node {
	if !arg.Is(syntax.KindObject) {
		return arg
	}
	if prop := findProperty(arg, "error"); prop != nil {
		return prop.ValueNode
	}
	return nil
}

func matchesSelector(n *syntax.Node, accepted []string) bool {
	for _, s := range accepted {
		if strings.EqualFold(s, n.Kind.String()) || s == n.Type {
			return true
		}
	}
	return false
}

func kindLabel(n *syntax.Node) string {
	if n.Kind == syntax.KindOther {
		return n.Type
	}
	return n.Kind.String()
}
