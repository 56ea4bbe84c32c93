package ast

import "github.com/thiremani/calculon/symbols"

// Children returns the direct children of n in evaluation order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Vector:
		return n.Elements
	case *VectorSplat:
		return []Node{n.Value}
	case *DefineVariable:
		return []Node{n.Value, n.Body}
	case *DefineFunction:
		return []Node{n.Function, n.Next}
	case *FunctionBody:
		return []Node{n.Body}
	case *Toplevel:
		return []Node{n.Body}
	case *FunctionCall:
		return n.Args
	case *Condition:
		return []Node{n.Cond, n.Then, n.Else}
	}
	return nil
}

// Link sets the parent of every node below root.
func Link(root Node) {
	for _, c := range Children(root) {
		c.SetParent(root)
		Link(c)
	}
}

// ScopeOf returns the innermost scope visible at n, or nil if n is outside
// every frame.
func ScopeOf(n Node) *symbols.Table {
	child := n
	for p := n.Parent(); p != nil; child, p = p, p.Parent() {
		if f, ok := p.(Frame); ok && f.Encloses(child) && f.Scope() != nil {
			return f.Scope()
		}
	}
	return nil
}

// FunctionOf returns the function whose body contains n.
func FunctionOf(n Node) *symbols.Function {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p := p.(type) {
		case *FunctionBody:
			return p.Symbol
		case *Toplevel:
			return p.Symbol.Function
		}
	}
	return nil
}
