// # internal/engine/syntax/node.go
package syntax

import "strings"

// Kind is the closed set of node variants the engine switches on. Grammar
// nodes that none of the checks need to reason about are lowered to KindOther
// and keep their grammar name in Node.Type.
type Kind int

const (
	KindOther Kind = iota
	KindProgram
	KindImportDeclaration
	KindImportDefault
	KindImportNamespace
	KindImportNamed
	KindCall
	KindMember
	KindIdentifier
	KindLiteral
	KindTemplateLiteral
	KindObject
	KindProperty
	KindArray
	KindSpread
	KindFunction
	KindThrow
	KindVariableDeclarator
	KindParenthesized
)

var kindNames = map[Kind]string{
	KindOther:              "Other",
	KindProgram:            "Program",
	KindImportDeclaration:  "ImportDeclaration",
	KindImportDefault:      "ImportDefaultSpecifier",
	KindImportNamespace:    "ImportNamespaceSpecifier",
	KindImportNamed:        "ImportSpecifier",
	KindCall:               "CallExpression",
	KindMember:             "MemberExpression",
	KindIdentifier:         "Identifier",
	KindLiteral:            "Literal",
	KindTemplateLiteral:    "TemplateLiteral",
	KindObject:             "ObjectExpression",
	KindProperty:           "Property",
	KindArray:              "ArrayExpression",
	KindSpread:             "SpreadElement",
	KindFunction:           "Function",
	KindThrow:              "ThrowStatement",
	KindVariableDeclarator: "VariableDeclarator",
	KindParenthesized:      "ParenthesizedExpression",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Other"
}

// ParseKind maps a kind name (as printed by Kind.String) back to its Kind.
func ParseKind(name string) (Kind, bool) {
	name = strings.TrimSpace(name)
	for kind, kindName := range kindNames {
		if strings.EqualFold(kindName, name) {
			return kind, true
		}
	}
	return KindOther, false
}

// Range is a half-open byte span [Start, End) into the file source.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Overlaps reports whether two ranges share at least one byte. Two empty
// ranges at the same offset also overlap, since inserting twice at one
// position has no defined order.
func (r Range) Overlaps(other Range) bool {
	if r.Start == r.End && other.Start == other.End {
		return r.Start == other.Start
	}
	return r.Start < other.End && other.Start < r.End
}

func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Node is an immutable syntax node. Only the slots documented for a node's
// Kind are populated; everything else stays at its zero value.
type Node struct {
	Kind   Kind
	Type   string // grammar node kind, e.g. "call_expression"
	Start  int
	End    int
	Line   int // 1-based
	Column int // 1-based, in bytes
	Parent *Node
	// Children holds every lowered named child in source order.
	Children []*Node

	// KindCall
	Callee        *Node
	Arguments     []*Node
	TypeArguments *Node

	// KindMember
	Object   *Node
	Property *Node
	Computed bool
	Optional bool

	// KindIdentifier: Name. KindLiteral: Value (cooked string content for
	// strings, source text otherwise) and Raw (source text).
	Name  string
	Value string
	Raw   string

	// KindImportDeclaration
	Source     *Node
	Specifiers []*Node
	TypeOnly   bool

	// KindImportDefault / KindImportNamespace / KindImportNamed
	Local    *Node
	Imported *Node

	// KindProperty
	Key       *Node
	ValueNode *Node
	Shorthand bool

	// KindVariableDeclarator
	ID   *Node
	Init *Node

	// KindFunction
	Body *Node

	// KindArray: Elements. KindTemplateLiteral: Quasis and Expressions.
	// KindSpread / KindParenthesized / KindThrow: Expression.
	Elements    []*Node
	Quasis      []string
	Expressions []*Node
	Expression  *Node
}

func (n *Node) Range() Range {
	return Range{Start: n.Start, End: n.End}
}

func (n *Node) Is(kind Kind) bool {
	return n != nil && n.Kind == kind
}

// IsCallee reports whether n is the callee of its parent call.
func (n *Node) IsCallee() bool {
	return n != nil && n.Parent.Is(KindCall) && n.Parent.Callee == n
}

// IsMemberObject reports whether n is the object of its parent member access.
func (n *Node) IsMemberObject() bool {
	return n != nil && n.Parent.Is(KindMember) && n.Parent.Object == n
}

// StaticName returns the statically known name of an identifier, a string or
// number literal, or a template literal without substitutions.
func StaticName(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case KindIdentifier:
		return n.Name, n.Name != ""
	case KindLiteral:
		if n.Type == "null" || n.Type == "undefined" {
			return "", false
		}
		return n.Value, true
	case KindTemplateLiteral:
		if len(n.Expressions) == 0 && len(n.Quasis) <= 1 {
			if len(n.Quasis) == 0 {
				return "", true
			}
			return n.Quasis[0], true
		}
	}
	return "", false
}

// File is one parsed source file plus its lowered tree.
type File struct {
	Path      string
	Language  string
	Source    []byte
	Root      *Node
	HasErrors bool
}

// Text returns the exact source text of a node.
func (f *File) Text(n *Node) string {
	if n == nil {
		return ""
	}
	return f.Slice(n.Range())
}

// Slice returns the source text of a byte range, clamped to the file.
func (f *File) Slice(r Range) string {
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if end > len(f.Source) {
		end = len(f.Source)
	}
	if start >= end {
		return ""
	}
	return string(f.Source[start:end])
}

// Position converts a byte offset into a 1-based line and column.
func (f *File) Position(offset int) (int, int) {
	if offset > len(f.Source) {
		offset = len(f.Source)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if f.Source[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
