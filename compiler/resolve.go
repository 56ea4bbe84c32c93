package compiler

import (
	"github.com/thiremani/calculon/ast"
	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/token"
	"github.com/thiremani/calculon/types"
)

// ToplevelName is the symbol name of the outermost function.
const ToplevelName = "toplevel"

// Resolve binds every identifier in the program to a symbol, creates the
// scope tables and computes the captured variables of every function.
func (c *Compiler) Resolve(top *ast.Toplevel) error {
	sym := symbols.NewToplevel(ToplevelName)
	top.Symbol = sym
	top.Table = symbols.NewTable(c.globals, symbols.MultipleScope)

	for _, p := range top.Params {
		t, err := c.lookupType(p.TypeName, p.Pos)
		if err != nil {
			return err
		}
		v := sym.AddParam(p.Name, t)
		if !top.Table.Put(v) {
			return token.Errorf(p.Pos, "parameter '%s' is declared more than once", p.Name)
		}
	}
	for _, o := range top.Outputs {
		t, err := c.lookupType(o.TypeName, o.Pos)
		if err != nil {
			return err
		}
		sym.AddOutput(o.Name, t)
	}
	if top.ReturnTypeName != "" {
		t, err := c.lookupType(top.ReturnTypeName, top.Pos())
		if err != nil {
			return err
		}
		sym.ReturnType = t
	}

	if err := c.resolve(top.Body); err != nil {
		return err
	}
	c.closeCaptures()
	return nil
}

// lookupType maps a declared type name to its type. An omitted name means
// real.
func (c *Compiler) lookupType(name string, pos token.Position) (*types.Type, error) {
	if name == "" {
		return c.types.Real(), nil
	}
	t, err := c.types.Lookup(name)
	if err != nil {
		return nil, token.Errorf(pos, "%s", err.Error())
	}
	return t, nil
}

// scopeOf is the scope visible at n, falling back to the globals.
func (c *Compiler) scopeOf(n ast.Node) *symbols.Table {
	if s := ast.ScopeOf(n); s != nil {
		return s
	}
	return c.globals
}

func (c *Compiler) resolve(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Constant, *ast.Boolean:
		return nil
	case *ast.Variable:
		return c.resolveVariable(n)
	case *ast.DefineVariable:
		return c.resolveDefineVariable(n)
	case *ast.DefineFunction:
		return c.resolveDefineFunction(n)
	case *ast.FunctionBody:
		return c.resolveFunctionBody(n)
	case *ast.Return:
		return c.resolveReturn(n)
	case *ast.FunctionCall:
		return c.resolveCall(n)
	}

	for _, child := range ast.Children(n) {
		if err := c.resolve(child); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) resolveVariable(n *ast.Variable) error {
	sym, ok := c.scopeOf(n).Get(n.Name)
	if !ok {
		return &SymbolError{Name: n.Name, Pos: n.Pos()}
	}
	v, ok := sym.(*symbols.Variable)
	if !ok {
		return token.Errorf(n.Pos(), "attempt to get the value of '%s', which is not a variable", n.Name)
	}
	n.Symbol = v
	ast.FunctionOf(n).Import(v)
	return nil
}

func (c *Compiler) resolveDefineVariable(n *ast.DefineVariable) error {
	if err := c.resolve(n.Value); err != nil {
		return err
	}

	var t *types.Type
	if n.TypeName != "" {
		var err error
		if t, err = c.lookupType(n.TypeName, n.Pos()); err != nil {
			return err
		}
	}
	v := symbols.NewVariable(n.Name, t, nil)
	ast.FunctionOf(n).Define(v)
	n.Symbol = v
	n.Table = symbols.NewSingleton(c.scopeOf(n), v)

	return c.resolve(n.Body)
}

func (c *Compiler) resolveDefineFunction(n *ast.DefineFunction) error {
	fn := symbols.NewFunction(n.Name, ast.FunctionOf(n))
	n.Symbol = fn
	n.Function.Symbol = fn
	n.Table = symbols.NewSingleton(c.scopeOf(n), fn)

	if err := c.resolve(n.Function); err != nil {
		return err
	}
	return c.resolve(n.Next)
}

func (c *Compiler) resolveFunctionBody(n *ast.FunctionBody) error {
	fn := n.Symbol
	n.Table = symbols.NewTable(c.scopeOf(n), symbols.MultipleScope)
	for _, p := range n.Params {
		t, err := c.lookupType(p.TypeName, p.Pos)
		if err != nil {
			return err
		}
		if !n.Table.Put(fn.AddParam(p.Name, t)) {
			return token.Errorf(p.Pos, "parameter '%s' is declared more than once", p.Name)
		}
	}
	rt, err := c.lookupType(n.ReturnTypeName, n.Pos())
	if err != nil {
		return err
	}
	fn.ReturnType = rt

	return c.resolve(n.Body)
}

func (c *Compiler) resolveReturn(n *ast.Return) error {
	top, ok := ast.FunctionOf(n).Toplevel()
	if !ok {
		return token.Errorf(n.Pos(), "'return' can only be used in top level code")
	}
	if top.ExpressionMode() {
		return token.Errorf(n.Pos(), "'return' can't be used in a program that returns a value")
	}
	return nil
}

func (c *Compiler) resolveCall(n *ast.FunctionCall) error {
	sym, ok := c.scopeOf(n).Get(n.Name)
	if !ok {
		return &SymbolError{Name: n.Name, Pos: n.Pos()}
	}
	callee, ok := sym.(symbols.Callable)
	if !ok {
		return token.Errorf(n.Pos(), "attempt to call '%s', which is not a function", n.Name)
	}
	n.Callee = callee

	for _, a := range n.Args {
		if err := c.resolve(a); err != nil {
			return err
		}
	}

	if fn, ok := callee.(*symbols.Function); ok {
		caller := ast.FunctionOf(n)
		for _, home := range fn.Upvalues() {
			caller.Import(home)
		}
		c.calls = append(c.calls, callSite{caller: caller, callee: fn})
	}
	return nil
}

// closeCaptures makes every caller import the captured variables of its
// callees until nothing changes. Calls resolved before the callee's body was
// complete (recursion, or callees that later gained captures through their
// own calls) are fixed up here.
func (c *Compiler) closeCaptures() {
	for changed := true; changed; {
		changed = false
		for _, cs := range c.calls {
			for _, home := range cs.callee.Upvalues() {
				if home.Owner == cs.caller {
					continue
				}
				if cs.caller.Import(home) {
					changed = true
				}
			}
		}
	}
}
