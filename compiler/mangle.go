package compiler

import (
	"strconv"
	"strings"

	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/types"
)

const (
	PREFIX = "$" // Prefix for function names and types
	NEST   = "." // separates the names of nested functions
	DUP    = "#" // precedes the counter of a repeated name
)

// mangleType encodes a type as R, B or V<arity>.
func mangleType(t *types.Type) string {
	switch t.Kind() {
	case types.BooleanKind:
		return "B"
	case types.VectorKind:
		return "V" + strconv.Itoa(t.Arity())
	}
	return "R"
}

// mangle builds the symbol name of a function from the names of its
// enclosing functions and its parameter types:
//
//	$<outer>.<inner> { $<Type> }
func mangle(path []string, params []*types.Type) string {
	var sb strings.Builder
	sb.WriteString(PREFIX)
	sb.WriteString(strings.Join(path, NEST))
	for _, p := range params {
		sb.WriteString(PREFIX)
		sb.WriteString(mangleType(p))
	}
	return sb.String()
}

// functionPath lists the names from the outermost function down to f.
func functionPath(f *symbols.Function) []string {
	var path []string
	for ; f != nil; f = f.Parent {
		path = append([]string{f.Name()}, path...)
	}
	return path
}

// uniqueName returns the mangled name of f, adding #<n> when a function of
// the same name and parameter types was already emitted.
func (c *Compiler) uniqueName(f *symbols.Function, params []*types.Type) string {
	name := mangle(functionPath(f), params)
	if c.module.NamedFunction(name).IsNil() {
		return name
	}
	for i := 2; ; i++ {
		dup := name + DUP + strconv.Itoa(i)
		if c.module.NamedFunction(dup).IsNil() {
			return dup
		}
	}
}
