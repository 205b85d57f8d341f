package schema

import (
	"strings"

	"zodlint/internal/engine/syntax"
)

// MethodCall is one named step of a chain. Node is the call expression that
// invokes the step; for a property that is read but not called (the `coerce`
// in `z.coerce.number()`) Node is the member expression and Invoked is false.
type MethodCall struct {
	Name          string
	ArgumentCount int
	Invoked       bool
	Node          *syntax.Node
	Range         syntax.Range
}

// Arguments returns the argument nodes of an invoked step.
func (m MethodCall) Arguments() []*syntax.Node {
	if !m.Invoked {
		return nil
	}
	return m.Node.Arguments
}

// CallChain is ordered root first: z.string().min(1) gives [string, min].
type CallChain []MethodCall

func (c CallChain) Names() []string {
	names := make([]string, len(c))
	for i, m := range c {
		names[i] = m.Name
	}
	return names
}

// Index returns the position of the first step named name, or -1.
func (c CallChain) Index(name string) int {
	for i, m := range c {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func (c CallChain) Find(name string) (MethodCall, bool) {
	if i := c.Index(name); i >= 0 {
		return c[i], true
	}
	return MethodCall{}, false
}

func (c CallChain) Contains(name string) bool {
	return c.Index(name) >= 0
}

func (c CallChain) Last() (MethodCall, bool) {
	if len(c) == 0 {
		return MethodCall{}, false
	}
	return c[len(c)-1], true
}

// String renders the dotted shape of the chain, e.g. "string().min()".
func (c CallChain) String() string {
	var b strings.Builder
	for i, m := range c {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(m.Name)
		if m.Invoked {
			b.WriteString("()")
		}
	}
	return b.String()
}

// FindOutermostCall climbs from node through every enclosing `.name(...)`
// link and returns the last call reached, or nil if that node is not a call.
func FindOutermostCall(node *syntax.Node) *syntax.Node {
	if node == nil {
		return nil
	}
	current := node
	for {
		member := current.Parent
		if !member.Is(syntax.KindMember) || member.Object != current {
			break
		}
		call := member.Parent
		if !call.Is(syntax.KindCall) || call.Callee != member {
			break
		}
		current = call
	}
	if current.Kind != syntax.KindCall {
		return nil
	}
	return current
}

// IsOutermost reports whether call is not itself the callee or the receiver
// of a further link.
func IsOutermost(call *syntax.Node) bool {
	if !call.Is(syntax.KindCall) {
		return false
	}
	parent := call.Parent
	switch {
	case parent.Is(syntax.KindCall) && parent.Callee == call:
		return false
	case parent.Is(syntax.KindMember) && parent.Object == call:
		return false
	}
	return true
}

// Decompose splits a call into its named steps, root first. It returns nil
// when any step cannot be named statically or the chain does not start at a
// plain identifier.
func Decompose(call *syntax.Node) CallChain {
	chain, _ := decompose(call)
	return chain
}

// decompose also returns the root identifier the chain hangs off.
func decompose(call *syntax.Node) (CallChain, *syntax.Node) {
	if !call.Is(syntax.KindCall) {
		return nil, nil
	}

	var rightToLeft CallChain
	cur := call.Callee
	for cur != nil {
		switch cur.Kind {
		case syntax.KindCall:
			cur = cur.Callee
			continue

		case syntax.KindMember:
			name, ok := propertyName(cur)
			if !ok {
				return nil, nil
			}
			rightToLeft = append(rightToLeft, step(name, cur))
			cur = cur.Object
			continue

		case syntax.KindIdentifier:
			if cur.IsCallee() {
				rightToLeft = append(rightToLeft, step(cur.Name, cur))
			}
			return reverse(rightToLeft), cur
		}
		return nil, nil
	}
	return nil, nil
}

// step builds the chain entry for a member access or a directly called
// identifier; target is the callee node of the step.
func step(name string, target *syntax.Node) MethodCall {
	if target.IsCallee() {
		call := target.Parent
		return MethodCall{
			Name:          name,
			ArgumentCount: len(call.Arguments),
			Invoked:       true,
			Node:          call,
			Range:         call.Range(),
		}
	}
	return MethodCall{Name: name, Node: target, Range: target.Range()}
}

func propertyName(member *syntax.Node) (string, bool) {
	if member.Property == nil {
		return "", false
	}
	if member.Computed && member.Property.Kind == syntax.KindIdentifier {
		// z[key]: the identifier is a runtime value, not a name.
		return "", false
	}
	return syntax.StaticName(member.Property)
}

func reverse(in CallChain) CallChain {
	if len(in) == 0 {
		return nil
	}
	out := make(CallChain, len(in))
	for i, m := range in {
		out[len(in)-1-i] = m
	}
	return out
}
