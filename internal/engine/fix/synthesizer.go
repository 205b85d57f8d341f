package fix

import (
	"strings"

	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
)

// Synthesizer builds fixes for one file. Replacement text is always cut from
// the original source, never printed from the tree, so untouched spacing and
// quoting survive byte for byte. Every operation returns (nil, false) when the
// input does not have the shape it knows how to rewrite.
type Synthesizer struct {
	file *syntax.File
}

func NewSynthesizer(file *syntax.File) *Synthesizer {
	return &Synthesizer{file: file}
}

// receiver returns the member access and the object a chain step is called
// on, e.g. `z.string()` for the `.describe("x")` step.
func receiver(step schema.MethodCall) (*syntax.Node, *syntax.Node, bool) {
	if !step.Invoked || !step.Node.Is(syntax.KindCall) {
		return nil, nil, false
	}
	member := step.Node.Callee
	if !member.Is(syntax.KindMember) || member.Object == nil {
		return nil, nil, false
	}
	return member, member.Object, true
}

// Segment returns the source text of a step without its receiver, e.g.
// `.describe("x")`.
func (s *Synthesizer) Segment(step schema.MethodCall) (string, bool) {
	_, object, ok := receiver(step)
	if !ok {
		return "", false
	}
	return s.file.Slice(syntax.Range{Start: object.End, End: step.Node.End}), true
}

// RelocateToEnd moves step behind the last call of chain:
//
//	z.string().describe("x").trim()  ->  z.string().trim().describe("x")
func (s *Synthesizer) RelocateToEnd(step schema.MethodCall, chain schema.CallChain) (Fix, bool) {
	segment, ok := s.Segment(step)
	if !ok {
		return nil, false
	}
	last, ok := chain.Last()
	if !ok || !last.Invoked || last.Node == step.Node {
		return nil, false
	}
	if last.Node.End <= step.Node.End {
		return nil, false
	}
	_, object, _ := receiver(step)
	return Fix{
		RemoveRange(syntax.Range{Start: object.End, End: step.Node.End}),
		InsertAfterNode(last.Node, segment),
	}, true
}

// DropRedundant replaces a step with the text of its receiver:
//
//	X.optional().default(v)  ->  X.default(v)
func (s *Synthesizer) DropRedundant(step schema.MethodCall) (Fix, bool) {
	_, object, ok := receiver(step)
	if !ok {
		return nil, false
	}
	return Fix{ReplaceNode(step.Node, s.file.Text(object))}, true
}

// RemoveCall deletes `.name(args)` from its chain and keeps everything else.
func (s *Synthesizer) RemoveCall(step schema.MethodCall) (Fix, bool) {
	_, object, ok := receiver(step)
	if !ok {
		return nil, false
	}
	return Fix{RemoveRange(syntax.Range{Start: object.End, End: step.Node.End})}, true
}

// RenameProperty renames the called method in place; arguments are not
// touched. Computed access is declined.
func (s *Synthesizer) RenameProperty(step schema.MethodCall, name string) (Fix, bool) {
	member, _, ok := receiver(step)
	if !ok || member.Computed || !member.Property.Is(syntax.KindIdentifier) {
		return nil, false
	}
	return Fix{ReplaceNode(member.Property, name)}, true
}

// RenameIdentifier replaces the name of a directly called identifier.
func (s *Synthesizer) RenameIdentifier(ident *syntax.Node, name string) (Fix, bool) {
	if !ident.Is(syntax.KindIdentifier) {
		return nil, false
	}
	return Fix{ReplaceNode(ident, name)}, true
}

// WrapArgument surrounds the original text of arg:
//
//	"desc"  ->  { description: "desc" }
func (s *Synthesizer) WrapArgument(arg *syntax.Node, prefix, suffix string) (Fix, bool) {
	if arg == nil || arg.Kind == syntax.KindSpread {
		return nil, false
	}
	return Fix{ReplaceNode(arg, prefix+s.file.Text(arg)+suffix)}, true
}

// NamespaceImportText composes the canonical namespace import for decl,
// reusing its module literal as written.
func NamespaceImportText(file *syntax.File, decl *syntax.Node, local string, typeOnly bool) string {
	parts := []string{"import"}
	if typeOnly {
		parts = append(parts, "type")
	}
	parts = append(parts, "* as", local, "from", file.Text(decl.Source))
	return strings.Join(parts, " ") + ";"
}

// IsNamespaceImport reports whether decl is a lone `* as name` import.
func IsNamespaceImport(decl *syntax.Node) bool {
	return len(decl.Specifiers) == 1 && decl.Specifiers[0].Kind == syntax.KindImportNamespace
}

// NormalizeImports rewrites the first declaration as a namespace import and
// removes the rest. The first declaration is left alone when it already is a
// namespace import of the right kind. The local name is taken from its first
// specifier, falling back to fallback.
func (s *Synthesizer) NormalizeImports(decls []*syntax.Node, typeOnly bool, fallback string) (Fix, bool) {
	if len(decls) == 0 {
		return nil, false
	}
	for _, decl := range decls {
		if !decl.Is(syntax.KindImportDeclaration) || decl.Source == nil {
			return nil, false
		}
	}

	var out Fix
	first := decls[0]
	if !IsNamespaceImport(first) || first.TypeOnly != typeOnly {
		local := fallback
		if len(first.Specifiers) > 0 && first.Specifiers[0].Local != nil {
			local = first.Specifiers[0].Local.Name
		}
		if local == "" {
			return nil, false
		}
		out = append(out, ReplaceNode(first, NamespaceImportText(s.file, first, local, typeOnly)))
	}
	for _, decl := range decls[1:] {
		out = append(out, RemoveNode(decl))
	}
	return out, true
}

// RemoveProperty deletes an object property together with the comma that
// separates it from its neighbour.
func (s *Synthesizer) RemoveProperty(prop *syntax.Node) (Fix, bool) {
	if !prop.Is(syntax.KindProperty) || !prop.Parent.Is(syntax.KindObject) {
		return nil, false
	}
	src := s.file.Source
	r := prop.Range()

	// Prefer swallowing the trailing comma and the blanks after it.
	end := skipSpace(src, r.End)
	if end < len(src) && src[end] == ',' {
		r.End = skipSpace(src, end+1)
		return Fix{RemoveRange(r)}, true
	}

	// Last property: take the comma before it instead.
	start := r.Start
	for start > prop.Parent.Start && isSpace(src[start-1]) {
		start--
	}
	if start > prop.Parent.Start && src[start-1] == ',' {
		r.Start = start - 1
	}
	return Fix{RemoveRange(r)}, true
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
