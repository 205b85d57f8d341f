package syntax

// Visitor is called for every node in document order. Returning false skips
// the node's children.
type Visitor func(n *Node) bool

// Walk traverses the tree depth-first in document order.
func Walk(root *Node, visit Visitor) {
	if root == nil {
		return
	}
	if !visit(root) {
		return
	}
	for _, child := range root.Children {
		Walk(child, visit)
	}
}

// Ancestors returns the chain of parents from n's parent up to the root.
func Ancestors(n *Node) []*Node {
	var out []*Node
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// Collect returns every node of the given kind under root, in document order.
func Collect(root *Node, kind Kind) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Unparen strips any number of wrapping parentheses.
func Unparen(n *Node) *Node {
	for n != nil && n.Kind == KindParenthesized && n.Expression != nil {
		n = n.Expression
	}
	return n
}
