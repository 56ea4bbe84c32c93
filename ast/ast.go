package ast

import (
	"strconv"
	"strings"

	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/token"
)

// Node is an element of the program tree. Parent links are back-references
// used only to walk outward to the enclosing scope and function.
type Node interface {
	Pos() token.Position
	Parent() Node
	SetParent(Node)
	String() string
}

// Frame is a node that introduces a scope. Encloses reports whether the
// scope is visible to the given direct child.
type Frame interface {
	Node
	Scope() *symbols.Table
	Encloses(child Node) bool
}

type node struct {
	pos    token.Position
	parent Node
}

func (n *node) Pos() token.Position { return n.pos }
func (n *node) Parent() Node        { return n.parent }
func (n *node) SetParent(p Node)    { n.parent = p }

// Param is a declared parameter or output: a name and a type name.
type Param struct {
	Name     string
	TypeName string
	Pos      token.Position
}

func (p *Param) String() string {
	if p.TypeName == "" {
		return p.Name
	}
	return p.Name + ": " + p.TypeName
}

type Constant struct {
	node
	Value float64
}

func NewConstant(pos token.Position, v float64) *Constant {
	return &Constant{node: node{pos: pos}, Value: v}
}

func (c *Constant) String() string {
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

type Boolean struct {
	node
	Value bool
}

func NewBoolean(pos token.Position, v bool) *Boolean {
	return &Boolean{node: node{pos: pos}, Value: v}
}

func (b *Boolean) String() string {
	return strconv.FormatBool(b.Value)
}

// Variable is a reference to a named value. Symbol is the home variable,
// bound during resolution.
type Variable struct {
	node
	Name   string
	Symbol *symbols.Variable
}

func NewVariable(pos token.Position, name string) *Variable {
	return &Variable{node: node{pos: pos}, Name: name}
}

func (v *Variable) String() string { return v.Name }

type Vector struct {
	node
	Elements []Node
}

func NewVector(pos token.Position, elems []Node) *Vector {
	return &Vector{node: node{pos: pos}, Elements: elems}
}

func (v *Vector) String() string {
	return "[" + join(v.Elements) + "]"
}

// VectorSplat broadcasts Value into Arity lanes.
type VectorSplat struct {
	node
	Value Node
	Arity int
}

func NewVectorSplat(pos token.Position, value Node, arity int) *VectorSplat {
	return &VectorSplat{node: node{pos: pos}, Value: value, Arity: arity}
}

func (v *VectorSplat) String() string {
	return "[" + v.Value.String() + "; " + strconv.Itoa(v.Arity) + "]"
}

// DefineVariable binds Name to Value for Body. The new scope is not
// visible to Value.
type DefineVariable struct {
	node
	Name     string
	TypeName string
	Value    Node
	Body     Node
	Symbol   *symbols.Variable
	Table    *symbols.Table
}

func NewDefineVariable(pos token.Position, name, typeName string, value, body Node) *DefineVariable {
	return &DefineVariable{node: node{pos: pos}, Name: name, TypeName: typeName, Value: value, Body: body}
}

func (d *DefineVariable) Scope() *symbols.Table { return d.Table }
func (d *DefineVariable) Encloses(c Node) bool  { return c == d.Body }

func (d *DefineVariable) String() string {
	head := "let " + d.Name
	if d.TypeName != "" {
		head += ": " + d.TypeName
	}
	return head + " = " + d.Value.String() + " in " + d.Body.String()
}

// DefineFunction binds a function for both its own body and Next.
type DefineFunction struct {
	node
	Name     string
	Function *FunctionBody
	Next     Node
	Symbol   *symbols.Function
	Table    *symbols.Table
}

func NewDefineFunction(pos token.Position, name string, fn *FunctionBody, next Node) *DefineFunction {
	return &DefineFunction{node: node{pos: pos}, Name: name, Function: fn, Next: next}
}

func (d *DefineFunction) Scope() *symbols.Table { return d.Table }
func (d *DefineFunction) Encloses(c Node) bool  { return c == d.Function || c == d.Next }

func (d *DefineFunction) String() string {
	return "let " + d.Name + d.Function.String() + " in " + d.Next.String()
}

// FunctionBody is the parameter scope and body of a nested function.
type FunctionBody struct {
	node
	Params         []*Param
	ReturnTypeName string
	Body           Node
	Symbol         *symbols.Function
	Table          *symbols.Table
}

func NewFunctionBody(pos token.Position, params []*Param, returnTypeName string, body Node) *FunctionBody {
	return &FunctionBody{node: node{pos: pos}, Params: params, ReturnTypeName: returnTypeName, Body: body}
}

func (f *FunctionBody) Scope() *symbols.Table { return f.Table }
func (f *FunctionBody) Encloses(c Node) bool  { return c == f.Body }

func (f *FunctionBody) String() string {
	s := "(" + joinParams(f.Params) + ")"
	if f.ReturnTypeName != "" {
		s += ": " + f.ReturnTypeName
	}
	return s + " = " + f.Body.String()
}

// Toplevel is the program root. With ReturnTypeName set the program is an
// expression yielding that type; otherwise it must end in 'return' and
// writes Outputs.
type Toplevel struct {
	node
	Params         []*Param
	Outputs        []*Param
	ReturnTypeName string
	Body           Node
	Symbol         *symbols.Toplevel
	Table          *symbols.Table
}

func NewToplevel(params, outputs []*Param, returnTypeName string, body Node) *Toplevel {
	return &Toplevel{node: node{pos: body.Pos()}, Params: params, Outputs: outputs, ReturnTypeName: returnTypeName, Body: body}
}

func (t *Toplevel) Scope() *symbols.Table { return t.Table }
func (t *Toplevel) Encloses(c Node) bool  { return c == t.Body }

func (t *Toplevel) String() string {
	return t.Body.String()
}

// Return writes the toplevel outputs from the same-named variables in scope.
type Return struct {
	node
}

func NewReturn(pos token.Position) *Return {
	return &Return{node: node{pos: pos}}
}

func (r *Return) String() string { return "return" }

// FunctionCall calls a user function or an intrinsic. Operators are
// calls to intrinsics named after the operator.
type FunctionCall struct {
	node
	Name   string
	Args   []Node
	Callee symbols.Callable
}

func NewFunctionCall(pos token.Position, name string, args []Node) *FunctionCall {
	return &FunctionCall{node: node{pos: pos}, Name: name, Args: args}
}

func (f *FunctionCall) String() string {
	return f.Name + "(" + join(f.Args) + ")"
}

type Condition struct {
	node
	Cond Node
	Then Node
	Else Node
}

func NewCondition(pos token.Position, cond, then, els Node) *Condition {
	return &Condition{node: node{pos: pos}, Cond: cond, Then: then, Else: els}
}

func (c *Condition) String() string {
	return "if " + c.Cond.String() + " then " + c.Then.String() + " else " + c.Else.String()
}

func join(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

func joinParams(params []*Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
