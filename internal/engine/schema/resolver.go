package schema

import "zodlint/internal/engine/syntax"

// SchemaDescriptor classifies one outermost call as a schema-builder chain.
type SchemaDescriptor struct {
	// ImportStyle is StyleNamespace (default imports included) or StyleNamed.
	ImportStyle ImportStyle
	// RootFactory is the first step on a namespace (`string` in
	// z.string().min(1)) or the called named import itself.
	RootFactory string
	Chain       CallChain
	// RootNode is the outermost call expression that was classified.
	RootNode *syntax.Node
	// Binding is the identifier the chain hangs off (`z`, `string`).
	Binding *syntax.Node
}

func (d *SchemaDescriptor) IsNamespace() bool { return d.ImportStyle == StyleNamespace }

// Factory returns the chain step that invokes the root factory. A named
// import that is only used as a receiver (coerce.number()) has no such step.
func (d *SchemaDescriptor) Factory() (MethodCall, bool) {
	if len(d.Chain) == 0 {
		return MethodCall{}, false
	}
	if d.ImportStyle == StyleNamespace || d.Binding.IsCallee() {
		return d.Chain[0], true
	}
	return MethodCall{}, false
}

// Methods returns the chain steps applied after the root factory.
func (d *SchemaDescriptor) Methods() CallChain {
	if _, ok := d.Factory(); ok {
		return d.Chain[1:]
	}
	return d.Chain
}

// Resolver classifies calls against the imports recorded in a SymbolTable.
// It holds no state of its own, so any number of checks may share one.
type Resolver struct {
	symbols *SymbolTable
}

func NewResolver(symbols *SymbolTable) *Resolver {
	return &Resolver{symbols: symbols}
}

func (r *Resolver) Symbols() *SymbolTable {
	return r.symbols
}

// Resolve returns the descriptor for call, or nil when call is not an
// outermost call, cannot be decomposed, or is not rooted in a tracked import.
// Calls nested in the arguments of a chain are not looked at; they are
// classified when the traversal reaches them.
func (r *Resolver) Resolve(call *syntax.Node) *SchemaDescriptor {
	if !IsOutermost(call) {
		return nil
	}
	chain, root := decompose(call)
	if root == nil || len(chain) == 0 {
		return nil
	}

	switch {
	case r.symbols.IsNamespace(root.Name):
		// z() on the namespace itself names no factory.
		if root.IsCallee() {
			return nil
		}
		return &SchemaDescriptor{
			ImportStyle: StyleNamespace,
			RootFactory: chain[0].Name,
			Chain:       chain,
			RootNode:    call,
			Binding:     root,
		}

	case r.symbols.IsNamedImport(root.Name):
		return &SchemaDescriptor{
			ImportStyle: StyleNamed,
			RootFactory: root.Name,
			Chain:       chain,
			RootNode:    call,
			Binding:     root,
		}
	}
	return nil
}

// ResolveOutermost climbs to the outermost call around node and resolves it.
func (r *Resolver) ResolveOutermost(node *syntax.Node) *SchemaDescriptor {
	return r.Resolve(FindOutermostCall(node))
}
