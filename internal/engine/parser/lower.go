package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"zodlint/internal/engine/syntax"
)

// lowerer converts a tree-sitter CST into the engine's syntax tree. Each
// grammar node is lowered once, so pointer identity in the result is stable
// for the lifetime of the syntax.File.
type lowerer struct {
	src []byte
}

func lowerTree(root *sitter.Node, src []byte) *syntax.Node {
	l := &lowerer{src: src}
	return l.lower(root, nil)
}

func (l *lowerer) text(n *sitter.Node) string {
	return string(l.src[n.StartByte():n.EndByte()])
}

func (l *lowerer) newNode(n *sitter.Node, parent *syntax.Node) *syntax.Node {
	pos := n.StartPosition()
	return &syntax.Node{
		Type:   n.Kind(),
		Start:  int(n.StartByte()),
		End:    int(n.EndByte()),
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Parent: parent,
	}
}

// lowerChildren lowers every named child except comments and returns a
// lookup from grammar node id to the lowered child so that field accessors
// can be resolved afterwards.
func (l *lowerer) lowerChildren(n *sitter.Node, out *syntax.Node) map[uintptr]*syntax.Node {
	byID := make(map[uintptr]*syntax.Node)
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "comment", "html_comment":
			continue
		case "optional_chain":
			out.Optional = true
			continue
		}
		lowered := l.lower(child, out)
		out.Children = append(out.Children, lowered)
		byID[child.Id()] = lowered
	}
	return byID
}

func field(n *sitter.Node, name string, byID map[uintptr]*syntax.Node) *syntax.Node {
	child := n.ChildByFieldName(name)
	if child == nil {
		return nil
	}
	return byID[child.Id()]
}

func (l *lowerer) lower(n *sitter.Node, parent *syntax.Node) *syntax.Node {
	out := l.newNode(n, parent)

	switch n.Kind() {
	case "program":
		out.Kind = syntax.KindProgram
		l.lowerChildren(n, out)

	case "import_statement":
		l.lowerImport(n, out)

	case "call_expression":
		byID := l.lowerChildren(n, out)
		out.Kind = syntax.KindCall
		out.Callee = field(n, "function", byID)
		out.TypeArguments = field(n, "type_arguments", byID)
		if args := n.ChildByFieldName("arguments"); args != nil {
			lowered := byID[args.Id()]
			if lowered != nil && lowered.Type == "template_string" {
				// Tagged template: the template is the single argument.
				out.Arguments = []*syntax.Node{lowered}
			} else if lowered != nil {
				out.Arguments = lowered.Children
			}
		}

	case "member_expression":
		byID := l.lowerChildren(n, out)
		out.Kind = syntax.KindMember
		out.Object = field(n, "object", byID)
		out.Property = field(n, "property", byID)

	case "subscript_expression":
		byID := l.lowerChildren(n, out)
		out.Kind = syntax.KindMember
		out.Computed = true
		out.Object = field(n, "object", byID)
		out.Property = field(n, "index", byID)

	case "identifier", "property_identifier", "shorthand_property_identifier",
		"private_property_identifier", "type_identifier", "this":
		out.Kind = syntax.KindIdentifier
		out.Name = l.text(n)

	case "string":
		out.Kind = syntax.KindLiteral
		out.Raw = l.text(n)
		out.Value = unquote(out.Raw)

	case "number", "true", "false", "null", "undefined", "regex":
		out.Kind = syntax.KindLiteral
		out.Raw = l.text(n)
		out.Value = out.Raw

	case "template_string":
		l.lowerTemplate(n, out)

	case "object":
		out.Kind = syntax.KindObject
		l.lowerChildren(n, out)

	case "pair":
		byID := l.lowerChildren(n, out)
		out.Kind = syntax.KindProperty
		out.Key = field(n, "key", byID)
		out.ValueNode = field(n, "value", byID)

	case "array":
		out.Kind = syntax.KindArray
		l.lowerChildren(n, out)
		out.Elements = out.Children

	case "spread_element":
		out.Kind = syntax.KindSpread
		l.lowerChildren(n, out)
		out.Expression = first(out.Children)

	case "arrow_function", "function_expression", "function", "function_declaration",
		"generator_function", "generator_function_declaration", "method_definition":
		byID := l.lowerChildren(n, out)
		out.Kind = syntax.KindFunction
		out.Body = field(n, "body", byID)

	case "throw_statement":
		out.Kind = syntax.KindThrow
		l.lowerChildren(n, out)
		out.Expression = first(out.Children)

	case "variable_declarator":
		byID := l.lowerChildren(n, out)
		out.Kind = syntax.KindVariableDeclarator
		out.ID = field(n, "name", byID)
		out.Init = field(n, "value", byID)

	case "parenthesized_expression":
		out.Kind = syntax.KindParenthesized
		l.lowerChildren(n, out)
		out.Expression = first(out.Children)

	default:
		out.Kind = syntax.KindOther
		l.lowerChildren(n, out)
	}

	if out.Kind == syntax.KindObject {
		l.wrapShorthand(out)
	}
	return out
}

// wrapShorthand turns `{ a }` entries into properties whose key and value are
// the same identifier, matching the shape of `{ a: a }`.
func (l *lowerer) wrapShorthand(obj *syntax.Node) {
	for i, child := range obj.Children {
		if child.Type != "shorthand_property_identifier" {
			continue
		}
		prop := &syntax.Node{
			Kind:      syntax.KindProperty,
			Type:      "pair",
			Start:     child.Start,
			End:       child.End,
			Line:      child.Line,
			Column:    child.Column,
			Parent:    obj,
			Children:  []*syntax.Node{child},
			Key:       child,
			ValueNode: child,
			Shorthand: true,
		}
		child.Parent = prop
		obj.Children[i] = prop
	}
}

func (l *lowerer) lowerImport(n *sitter.Node, out *syntax.Node) {
	out.Kind = syntax.KindImportDeclaration
	byID := l.lowerChildren(n, out)
	out.Source = field(n, "source", byID)

	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == "type" {
			out.TypeOnly = true
		}
	}

	for _, child := range out.Children {
		if child.Type != "import_clause" {
			continue
		}
		for _, spec := range child.Children {
			switch spec.Type {
			case "identifier":
				out.Specifiers = append(out.Specifiers, wrapSpecifier(spec, syntax.KindImportDefault))
			case "namespace_import":
				spec.Kind = syntax.KindImportNamespace
				spec.Local = first(spec.Children)
				out.Specifiers = append(out.Specifiers, spec)
			case "named_imports":
				for _, named := range spec.Children {
					if named.Type != "import_specifier" {
						continue
					}
					named.Kind = syntax.KindImportNamed
					out.Specifiers = append(out.Specifiers, named)
				}
			}
		}
	}

	// import_specifier fields are resolved against the grammar node, which is
	// no longer at hand here; the specifier's children are name [alias].
	for _, spec := range out.Specifiers {
		if spec.Kind != syntax.KindImportNamed {
			continue
		}
		names := make([]*syntax.Node, 0, 2)
		for _, c := range spec.Children {
			if c.Kind == syntax.KindIdentifier || c.Kind == syntax.KindLiteral {
				names = append(names, c)
			}
		}
		if len(names) == 0 {
			continue
		}
		spec.Imported = names[0]
		spec.Local = names[len(names)-1]
	}
}

// wrapSpecifier gives a default import its own specifier node around the
// bare identifier the grammar produces.
func wrapSpecifier(ident *syntax.Node, kind syntax.Kind) *syntax.Node {
	spec := &syntax.Node{
		Kind:     kind,
		Type:     "import_default_specifier",
		Start:    ident.Start,
		End:      ident.End,
		Line:     ident.Line,
		Column:   ident.Column,
		Parent:   ident.Parent,
		Children: []*syntax.Node{ident},
		Local:    ident,
	}
	if parent := ident.Parent; parent != nil {
		for i, c := range parent.Children {
			if c == ident {
				parent.Children[i] = spec
			}
		}
	}
	ident.Parent = spec
	return spec
}

func (l *lowerer) lowerTemplate(n *sitter.Node, out *syntax.Node) {
	out.Kind = syntax.KindTemplateLiteral
	if out.End-out.Start < 2 {
		// Zero-width node inserted by error recovery.
		out.Quasis = []string{""}
		return
	}
	cursor := out.Start + 1
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() != "template_substitution" {
			continue
		}
		start := int(child.StartByte())
		out.Quasis = append(out.Quasis, string(l.src[cursor:start]))
		cursor = int(child.EndByte())

		sub := l.newNode(child, out)
		sub.Kind = syntax.KindOther
		l.lowerChildren(child, sub)
		out.Children = append(out.Children, sub)
		if expr := first(sub.Children); expr != nil {
			out.Expressions = append(out.Expressions, expr)
		}
	}
	end := out.End - 1
	if end < cursor {
		end = cursor
	}
	out.Quasis = append(out.Quasis, string(l.src[cursor:end]))
}

func unquote(raw string) string {
	if len(raw) >= 2 {
		q := raw[0]
		if (q == '"' || q == '\'') && raw[len(raw)-1] == q {
			return raw[1 : len(raw)-1]
		}
	}
	return strings.Trim(raw, `"'`)
}

func first(nodes []*syntax.Node) *syntax.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}
