package symbols

import (
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

type Kind int

const (
	VariableKind Kind = iota
	FunctionKind
	ToplevelKind
	IntrinsicKind
)

func (k Kind) String() string {
	switch k {
	case VariableKind:
		return "variable"
	case FunctionKind:
		return "function"
	case ToplevelKind:
		return "toplevel"
	case IntrinsicKind:
		return "intrinsic"
	}
	return "unknown"
}

// Symbol is one of *Variable, *Function, *Toplevel or *Intrinsic.
type Symbol interface {
	Name() string
	Kind() Kind
}

// Callable is a symbol that can appear in call position.
type Callable interface {
	Symbol
	Arity() int
}

// Variable is a named value. Type stays nil until the defining
// initializer has been generated when no type was declared.
type Variable struct {
	name  string
	Type  *types.Type
	Owner *Function
}

func NewVariable(name string, typ *types.Type, owner *Function) *Variable {
	return &Variable{name: name, Type: typ, Owner: owner}
}

func (v *Variable) Name() string { return v.name }
func (v *Variable) Kind() Kind   { return VariableKind }

// Function is a user-defined function. Locals maps every variable visible
// in the body to the symbol the body reads it through: parameters and
// body-local definitions map to themselves, captured outer variables map
// to a proxy.
type Function struct {
	name       string
	Params     []*Variable
	ReturnType *types.Type
	Locals     *Locals
	Parent     *Function

	top *Toplevel
}

func NewFunction(name string, parent *Function) *Function {
	return &Function{name: name, Parent: parent, Locals: NewLocals()}
}

func (f *Function) Name() string { return f.name }
func (f *Function) Kind() Kind   { return FunctionKind }
func (f *Function) Arity() int   { return len(f.Params) }

// AddParam declares a parameter, bound to itself in Locals.
func (f *Function) AddParam(name string, typ *types.Type) *Variable {
	v := NewVariable(name, typ, f)
	f.Params = append(f.Params, v)
	f.Locals.Put(v, v)
	return v
}

// Define records a variable introduced inside the body.
func (f *Function) Define(v *Variable) {
	v.Owner = f
	f.Locals.Put(v, v)
}

// Import makes home readable inside f. A variable not yet in Locals gets a
// fresh proxy appended as an upvalue. It reports whether Locals changed.
func (f *Function) Import(home *Variable) bool {
	if _, ok := f.Locals.Get(home); ok {
		return false
	}
	f.Locals.Put(home, NewVariable(home.name, home.Type, f))
	return true
}

// Upvalues lists the captured home variables in capture order.
func (f *Function) Upvalues() []*Variable {
	return f.Locals.Upvalues()
}

// Toplevel returns the toplevel symbol if f is the program's outermost
// function.
func (f *Function) Toplevel() (*Toplevel, bool) {
	return f.top, f.top != nil
}

// Toplevel is the outermost compiled function. Outputs are written through
// pointer destinations by 'return'. In expression mode there are no outputs
// and ReturnType is the program's value type.
type Toplevel struct {
	*Function
	Outputs []*Variable
}

func NewToplevel(name string) *Toplevel {
	t := &Toplevel{Function: NewFunction(name, nil)}
	t.top = t
	return t
}

func (t *Toplevel) Kind() Kind { return ToplevelKind }

// AddOutput declares a named output slot.
func (t *Toplevel) AddOutput(name string, typ *types.Type) *Variable {
	v := NewVariable(name, typ, t.Function)
	t.Outputs = append(t.Outputs, v)
	return v
}

// ExpressionMode reports whether the program yields a value instead of
// ending in 'return'.
func (t *Toplevel) ExpressionMode() bool {
	return t.ReturnType != nil
}

// Emitter is the view of the code generator handed to intrinsics.
type Emitter interface {
	Context() llvm.Context
	Module() llvm.Module
	Builder() llvm.Builder
	Types() *types.Catalogue
}

// EmitFunc generates an intrinsic call. Errors are reported as type errors
// at the call site.
type EmitFunc func(e Emitter, args []llvm.Value) (llvm.Value, error)

// Intrinsic is a built-in callable with a fixed arity.
type Intrinsic struct {
	name  string
	arity int
	Emit  EmitFunc
}

func NewIntrinsic(name string, arity int, emit EmitFunc) *Intrinsic {
	return &Intrinsic{name: name, arity: arity, Emit: emit}
}

func (i *Intrinsic) Name() string { return i.name }
func (i *Intrinsic) Kind() Kind   { return IntrinsicKind }
func (i *Intrinsic) Arity() int   { return i.arity }
