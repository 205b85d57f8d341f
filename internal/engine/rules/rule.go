// # internal/engine/rules/rule.go
package rules

import (
	"strings"

	"zodlint/internal/engine/fix"
	"zodlint/internal/engine/schema"
	"zodlint/internal/engine/syntax"
)

type Type string

const (
	TypeProblem    Type = "problem"
	TypeSuggestion Type = "suggestion"
)

type Severity string

const (
	SeverityOff   Severity = "off"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// ParseSeverity accepts the names above plus the numeric 0/1/2 form.
func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "off", "0":
		return SeverityOff, true
	case "warn", "warning", "1":
		return SeverityWarn, true
	case "error", "2":
		return SeverityError, true
	}
	return "", false
}

type OptionKind int

const (
	OptionString OptionKind = iota
	OptionStringList
)

type OptionSpec struct {
	Name        string
	Kind        OptionKind
	Description string
	Enum        []string
	Default     any
	MinItems    int
}

type Meta struct {
	Name           string
	Description    string
	Type           Type
	Fixable        bool
	HasSuggestions bool
	Recommended    bool
	Options        []OptionSpec
}

type Suggestion struct {
	Message string  `json:"message"`
	Fix     fix.Fix `json:"fix"`
}

// Report is what a rule hands to its Context. Node locates the diagnostic;
// Range overrides it when set.
type Report struct {
	Node        *syntax.Node
	Range       syntax.Range
	MessageID   string
	Message     string
	Fix         fix.Fix
	Suggestions []Suggestion
}

// Location returns the range the diagnostic points at.
func (r Report) Location() syntax.Range {
	if r.Range.End > r.Range.Start || r.Node == nil {
		return r.Range
	}
	return r.Node.Range()
}

// Handlers are the callbacks a rule registers for one file pass. Any of them
// may be nil. The host calls OnImport for every import declaration after the
// symbol table has recorded it.
type Handlers struct {
	OnImport     func(decl *syntax.Node)
	OnCall       func(call *syntax.Node)
	OnDeclarator func(decl *syntax.Node)
	OnExit       func()
}

type Rule interface {
	Meta() Meta
	Create(ctx *Context) Handlers
}

// Context is the per-file, per-rule view of the engine.
type Context struct {
	File     *syntax.File
	Symbols  *schema.SymbolTable
	Resolver *schema.Resolver
	Fixer    *fix.Synthesizer
	Options  Options

	sink func(Report)
}

func NewContext(file *syntax.File, symbols *schema.SymbolTable, opts Options, sink func(Report)) *Context {
	return &Context{
		File:     file,
		Symbols:  symbols,
		Resolver: schema.NewResolver(symbols),
		Fixer:    fix.NewSynthesizer(file),
		Options:  opts,
		sink:     sink,
	}
}

func (c *Context) Report(r Report) {
	if c.sink != nil {
		c.sink(r)
	}
}

// Text is shorthand for the source text of n.
func (c *Context) Text(n *syntax.Node) string {
	return c.File.Text(n)
}

// NamespaceName returns the local name of the first namespace or default
// import of the library, if any.
func (c *Context) NamespaceName() (string, bool) {
	for _, b := range c.Symbols.Bindings() {
		if b.Style == schema.StyleNamespace || b.Style == schema.StyleDefault {
			return b.LocalName, true
		}
	}
	for _, b := range c.Symbols.Bindings() {
		if c.Symbols.IsNamespace(b.LocalName) {
			return b.LocalName, true
		}
	}
	return "", false
}

type definition struct {
	meta   Meta
	create func(ctx *Context) Handlers
}

func (d definition) Meta() Meta                   { return d.meta }
func (d definition) Create(ctx *Context) Handlers { return d.create(ctx) }
