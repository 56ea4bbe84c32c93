package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/token"
)

func pos(line, col int) token.Position {
	return token.Position{Line: line, Column: col}
}

func TestLinkAndScopeOf(t *testing.T) {
	// let x = 1 in x
	value := NewConstant(pos(1, 9), 1)
	ref := NewVariable(pos(1, 14), "x")
	def := NewDefineVariable(pos(1, 1), "x", "", value, ref)
	top := NewToplevel(nil, nil, "real", def)
	Link(top)

	require.Same(t, def, ref.Parent())
	require.Same(t, def, value.Parent())
	require.Same(t, top, def.Parent())

	top.Table = symbols.NewTable(nil, symbols.MultipleScope)
	top.Symbol = symbols.NewToplevel("toplevel")
	def.Table = symbols.NewSingleton(top.Table, symbols.NewVariable("x", nil, nil))

	assert.Same(t, def.Table, ScopeOf(ref))
	// the initializer does not see its own binding
	assert.Same(t, top.Table, ScopeOf(value))
	assert.Nil(t, ScopeOf(top))

	assert.Same(t, top.Symbol.Function, FunctionOf(ref))
}

func TestFunctionOfNested(t *testing.T) {
	// let f(a) = a in f(1)
	body := NewVariable(pos(1, 12), "a")
	fb := NewFunctionBody(pos(1, 6), []*Param{{Name: "a"}}, "", body)
	call := NewFunctionCall(pos(1, 17), "f", []Node{NewConstant(pos(1, 19), 1)})
	def := NewDefineFunction(pos(1, 1), "f", fb, call)
	top := NewToplevel(nil, nil, "real", def)
	Link(top)

	top.Symbol = symbols.NewToplevel("toplevel")
	fb.Symbol = symbols.NewFunction("f", top.Symbol.Function)

	assert.Same(t, fb.Symbol, FunctionOf(body))
	assert.Same(t, top.Symbol.Function, FunctionOf(call))
	assert.Same(t, top.Symbol.Function, FunctionOf(fb))
}

func TestString(t *testing.T) {
	tests := []struct {
		node     Node
		expected string
	}{
		{NewConstant(pos(1, 1), 2.5), "2.5"},
		{NewBoolean(pos(1, 1), true), "true"},
		{NewVectorSplat(pos(1, 1), NewVariable(pos(1, 2), "v"), 3), "[v; 3]"},
		{NewFunctionCall(pos(1, 1), "+", []Node{NewConstant(pos(1, 1), 2), NewConstant(pos(1, 5), 3)}), "+(2, 3)"},
		{NewCondition(pos(1, 1), NewBoolean(pos(1, 4), true), NewConstant(pos(1, 9), 1), NewBoolean(pos(1, 16), false)), "if true then 1 else false"},
		{NewDefineVariable(pos(1, 1), "y", "real", NewConstant(pos(1, 9), 1), NewReturn(pos(1, 12))), "let y: real = 1 in return"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.node.String())
		})
	}
}
