// Package syntax defines the parser-neutral declaration tree the analyzer
// reads. Concrete parsers (see internal/csharp) lower their own trees into
// it, which keeps model extraction testable against hand-built trees.
package syntax

import "context"

// Kind identifies a declaration node.
type Kind string

const (
	KindFile        Kind = "file"
	KindUsing       Kind = "using"
	KindNamespace   Kind = "namespace"
	KindClass       Kind = "class"
	KindConstructor Kind = "constructor"
	KindMethod      Kind = "method"
	KindParameter   Kind = "parameter"
)

// Node is one declaration.
//
// Name holds the identifier (or qualified name for usings and namespaces).
// Type holds the return type of a method or the declared type of a
// parameter. Children are in source order.
type Node struct {
	Kind      Kind
	Name      string
	Type      string
	Modifiers []string
	Children  []*Node
}

// Parser turns source text into a declaration tree.
type Parser interface {
	Parse(ctx context.Context, source string) (*Node, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, source string) (*Node, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, source string) (*Node, error) {
	return f(ctx, source)
}

// HasModifier reports whether the node carries the given modifier keyword.
func (n *Node) HasModifier(modifier string) bool {
	for _, m := range n.Modifiers {
		if m == modifier {
			return true
		}
	}
	return false
}

// ChildrenOf returns the direct children of the given kind, in order.
func (n *Node) ChildrenOf(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants in pre-order. ancestors holds the path
// from the root to the visited node's parent. Returning false from fn skips
// the node's children.
func Walk(n *Node, fn func(node *Node, ancestors []*Node) bool) {
	walk(n, nil, fn)
}

func walk(n *Node, ancestors []*Node, fn func(*Node, []*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n, ancestors) {
		return
	}
	ancestors = append(ancestors, n)
	for _, c := range n.Children {
		walk(c, ancestors, fn)
	}
}
