package compiler

import (
	"fmt"

	"github.com/thiremani/calculon/ast"
	"github.com/thiremani/calculon/token"
	"github.com/thiremani/calculon/types"
)

// SymbolError reports an identifier that resolves in no enclosing scope.
type SymbolError struct {
	Name string
	Pos  token.Position
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("unresolved symbol '%s' at %s", e.Name, e.Pos)
}

// TypeError reports a mismatch between an expected and an actual type.
type TypeError struct {
	Node ast.Node
	Msg  string
}

func (e *TypeError) Error() string {
	return e.Msg + " at " + e.Node.Pos().String()
}

// Pos is the position of the offending node.
func (e *TypeError) Pos() token.Position {
	return e.Node.Pos()
}

func typeErrorf(n ast.Node, format string, args ...any) *TypeError {
	return &TypeError{Node: n, Msg: fmt.Sprintf(format, args...)}
}

func typeMismatch(n ast.Node, expected, got *types.Type) *TypeError {
	return typeErrorf(n, "type mismatch: expected %s, but got %s", types.Describe(expected), types.Describe(got))
}
