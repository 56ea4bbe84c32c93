package compiler

import (
	"github.com/thiremani/calculon/ast"
	"github.com/thiremani/calculon/intrinsics"
	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/token"
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

// Compile resolves and generates the program, returning the toplevel
// function. It has internal linkage and takes the declared parameters in
// their internal representation followed, in statement mode, by one
// pointer per output.
func (c *Compiler) Compile(top *ast.Toplevel) (llvm.Value, error) {
	if err := c.Resolve(top); err != nil {
		return llvm.Value{}, err
	}
	return c.generateToplevel(top)
}

func (c *Compiler) typeOf(v llvm.Value) *types.Type {
	return c.types.MustFind(v.Type())
}

// OutputType is the LLVM type of the pointer an output is written through.
func OutputType(t *types.Type) llvm.Type {
	if t.IsVector() {
		return t.External()
	}
	return llvm.PointerType(t.Internal(), 0)
}

func (c *Compiler) generateToplevel(top *ast.Toplevel) (llvm.Value, error) {
	sym := top.Symbol

	var params []llvm.Type
	var paramTypes []*types.Type
	for _, p := range sym.Params {
		params = append(params, p.Type.Internal())
		paramTypes = append(paramTypes, p.Type)
	}
	for _, o := range sym.Outputs {
		params = append(params, OutputType(o.Type))
	}
	ret := c.ctx.VoidType()
	if sym.ExpressionMode() {
		ret = sym.ReturnType.Internal()
	}

	fnType := llvm.FunctionType(ret, params, false)
	fn := llvm.AddFunction(c.module, c.uniqueName(sym.Function, paramTypes), fnType)
	fn.SetLinkage(llvm.InternalLinkage)
	c.funcs[sym.Function] = function{Val: fn, Type: fnType}

	c.env = make(map[*symbols.Variable]llvm.Value)
	for i, p := range sym.Params {
		fn.Param(i).SetName(p.Name())
		c.env[p] = fn.Param(i)
	}
	for i, o := range sym.Outputs {
		dst := fn.Param(len(sym.Params) + i)
		dst.SetName(o.Name())
		c.outputs[o] = dst
	}

	c.builder.SetInsertPointAtEnd(c.ctx.AddBasicBlock(fn, "entry"))
	val, err := c.generate(top.Body)
	if err != nil {
		return llvm.Value{}, err
	}

	if !sym.ExpressionMode() {
		if !val.IsNil() {
			return llvm.Value{}, token.Errorf(top.Body.Pos(), "toplevel code must end in a 'return' statement")
		}
		c.builder.CreateRetVoid()
		return fn, nil
	}

	if got := c.typeOf(val); got != sym.ReturnType {
		return llvm.Value{}, typeErrorf(top.Body, "toplevel code is declared to return %s but actually returns %s",
			types.Describe(sym.ReturnType), types.Describe(got))
	}
	c.builder.CreateRet(val)
	return fn, nil
}

// generate emits n and returns its value. Only 'return' and definitions
// whose body ends in 'return' yield no value.
func (c *Compiler) generate(n ast.Node) (llvm.Value, error) {
	switch n := n.(type) {
	case *ast.Constant:
		return llvm.ConstFloat(c.types.Real().Internal(), n.Value), nil
	case *ast.Boolean:
		var v uint64
		if n.Value {
			v = 1
		}
		return llvm.ConstInt(c.types.Boolean().Internal(), v, false), nil
	case *ast.Variable:
		return c.generateVariable(n), nil
	case *ast.Vector:
		return c.generateVector(n)
	case *ast.VectorSplat:
		v, err := c.generateReal(n.Value)
		if err != nil {
			return llvm.Value{}, err
		}
		return intrinsics.Splat(c, v, c.types.Vector(n.Arity)), nil
	case *ast.DefineVariable:
		return c.generateDefineVariable(n)
	case *ast.DefineFunction:
		if err := c.generateFunction(n.Function); err != nil {
			return llvm.Value{}, err
		}
		return c.generate(n.Next)
	case *ast.FunctionCall:
		return c.generateCall(n)
	case *ast.Condition:
		return c.generateCondition(n)
	case *ast.Return:
		return llvm.Value{}, c.generateReturn(n)
	}
	panic("internal error: cannot generate " + n.String())
}

// endsInReturn reports whether n yields no value: a 'return', possibly
// inside definitions.
func endsInReturn(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Return:
		return true
	case *ast.DefineVariable:
		return endsInReturn(n.Body)
	case *ast.DefineFunction:
		return endsInReturn(n.Next)
	}
	return false
}

// generateValue is generate for positions that need a value.
func (c *Compiler) generateValue(n ast.Node) (llvm.Value, error) {
	if endsInReturn(n) {
		return llvm.Value{}, token.Errorf(n.Pos(), "can't use 'return' where a value is required")
	}
	return c.generate(n)
}

func (c *Compiler) generateReal(n ast.Node) (llvm.Value, error) {
	v, err := c.generateValue(n)
	if err != nil {
		return llvm.Value{}, err
	}
	if t := c.typeOf(v); t != c.types.Real() {
		return llvm.Value{}, typeMismatch(n, c.types.Real(), t)
	}
	return v, nil
}

func (c *Compiler) generateVariable(n *ast.Variable) llvm.Value {
	local, ok := ast.FunctionOf(n).Locals.Get(n.Symbol)
	if !ok {
		panic("internal error: variable '" + n.Name + "' was not imported")
	}
	v, ok := c.env[local]
	if !ok {
		panic("internal error: no value for variable '" + n.Name + "'")
	}
	return v
}

func (c *Compiler) generateVector(n *ast.Vector) (llvm.Value, error) {
	t := c.types.Vector(len(n.Elements))
	vec := llvm.Undef(t.Internal())
	for i, e := range n.Elements {
		v, err := c.generateReal(e)
		if err != nil {
			return llvm.Value{}, err
		}
		vec = c.builder.CreateInsertElement(vec, v, llvm.ConstInt(c.ctx.Int32Type(), uint64(i), false), "")
	}
	return vec, nil
}

func (c *Compiler) generateDefineVariable(n *ast.DefineVariable) (llvm.Value, error) {
	if endsInReturn(n.Value) {
		return llvm.Value{}, token.Errorf(n.Value.Pos(), "you can't assign 'return' to anything")
	}
	v, err := c.generate(n.Value)
	if err != nil {
		return llvm.Value{}, err
	}

	got := c.typeOf(v)
	sym := n.Symbol
	if sym.Type == nil {
		sym.Type = got
	} else if sym.Type != got {
		return llvm.Value{}, typeErrorf(n.Value, "variable '%s' is declared as %s but has been set to %s",
			n.Name, types.Describe(sym.Type), types.Describe(got))
	}
	if v.Name() == "" {
		v.SetName(n.Name)
	}
	c.env[sym] = v

	return c.generate(n.Body)
}

// generateFunction emits a nested function. Its parameters are the declared
// ones followed by one per captured variable, in capture order.
func (c *Compiler) generateFunction(n *ast.FunctionBody) error {
	f := n.Symbol
	ups := f.Upvalues()

	params := make([]llvm.Type, 0, len(f.Params)+len(ups))
	paramTypes := make([]*types.Type, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p.Type.Internal())
		paramTypes = append(paramTypes, p.Type)
	}
	for _, home := range ups {
		if home.Type == nil {
			panic("internal error: captured variable '" + home.Name() + "' has no type")
		}
		proxy, _ := f.Locals.Get(home)
		proxy.Type = home.Type
		params = append(params, home.Type.Internal())
	}

	fnType := llvm.FunctionType(f.ReturnType.Internal(), params, false)
	fn := llvm.AddFunction(c.module, c.uniqueName(f, paramTypes), fnType)
	fn.SetLinkage(llvm.InternalLinkage)
	c.funcs[f] = function{Val: fn, Type: fnType}

	savedBlock := c.builder.GetInsertBlock()
	savedEnv := c.env
	defer func() {
		c.env = savedEnv
		c.builder.SetInsertPointAtEnd(savedBlock)
	}()

	c.env = make(map[*symbols.Variable]llvm.Value)
	for i, p := range f.Params {
		fn.Param(i).SetName(p.Name())
		c.env[p] = fn.Param(i)
	}
	for i, home := range ups {
		arg := fn.Param(len(f.Params) + i)
		arg.SetName(home.Name())
		proxy, _ := f.Locals.Get(home)
		c.env[proxy] = arg
	}

	c.builder.SetInsertPointAtEnd(c.ctx.AddBasicBlock(fn, "entry"))
	val, err := c.generateValue(n.Body)
	if err != nil {
		return err
	}
	if got := c.typeOf(val); got != f.ReturnType {
		return typeErrorf(n.Body, "function '%s' is declared to return %s but actually returns %s",
			f.Name(), types.Describe(f.ReturnType), types.Describe(got))
	}
	c.builder.CreateRet(val)
	return nil
}

func (c *Compiler) generateArgs(n *ast.FunctionCall) ([]llvm.Value, error) {
	if want := n.Callee.Arity(); want != len(n.Args) {
		return nil, token.Errorf(n.Pos(), "function '%s' expects %d arguments but was called with %d", n.Name, want, len(n.Args))
	}
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := c.generateValue(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (c *Compiler) generateCall(n *ast.FunctionCall) (llvm.Value, error) {
	args, err := c.generateArgs(n)
	if err != nil {
		return llvm.Value{}, err
	}

	switch callee := n.Callee.(type) {
	case *symbols.Intrinsic:
		v, err := callee.Emit(c, args)
		if err != nil {
			return llvm.Value{}, &TypeError{Node: n, Msg: err.Error()}
		}
		return v, nil
	case *symbols.Function:
		for i, p := range callee.Params {
			if got := c.typeOf(args[i]); got != p.Type {
				return llvm.Value{}, typeMismatch(n.Args[i], p.Type, got)
			}
		}
		caller := ast.FunctionOf(n)
		for _, home := range callee.Upvalues() {
			local, ok := caller.Locals.Get(home)
			if !ok {
				panic("internal error: '" + home.Name() + "' is not visible to the caller of '" + callee.Name() + "'")
			}
			args = append(args, c.env[local])
		}
		fn, ok := c.funcs[callee]
		if !ok {
			panic("internal error: function '" + callee.Name() + "' called before definition")
		}
		return c.builder.CreateCall(fn.Type, fn.Val, args, n.Name), nil
	}
	panic("internal error: cannot call " + n.Callee.Kind().String())
}

func (c *Compiler) generateBranch(n ast.Node) (llvm.Value, llvm.BasicBlock, error) {
	if endsInReturn(n) {
		return llvm.Value{}, llvm.BasicBlock{}, token.Errorf(n.Pos(), "you can't use 'return' inside conditionals")
	}
	v, err := c.generate(n)
	if err != nil {
		return llvm.Value{}, llvm.BasicBlock{}, err
	}
	return v, c.builder.GetInsertBlock(), nil
}

func (c *Compiler) generateCondition(n *ast.Condition) (llvm.Value, error) {
	cond, err := c.generateValue(n.Cond)
	if err != nil {
		return llvm.Value{}, err
	}
	if t := c.typeOf(cond); t != c.types.Boolean() {
		return llvm.Value{}, typeMismatch(n.Cond, c.types.Boolean(), t)
	}

	thenBlock, elseBlock, mergeBlock := c.createIfElseCont(cond, "then", "else", "merge")

	c.builder.SetInsertPointAtEnd(thenBlock)
	thenVal, thenEnd, err := c.generateBranch(n.Then)
	if err != nil {
		return llvm.Value{}, err
	}
	c.builder.CreateBr(mergeBlock)

	c.builder.SetInsertPointAtEnd(elseBlock)
	elseVal, elseEnd, err := c.generateBranch(n.Else)
	if err != nil {
		return llvm.Value{}, err
	}
	c.builder.CreateBr(mergeBlock)

	tt, et := c.typeOf(thenVal), c.typeOf(elseVal)
	if tt != et {
		return llvm.Value{}, typeErrorf(n, "the true and false values of a conditional must be the same type, but got %s and %s",
			types.Describe(tt), types.Describe(et))
	}

	c.builder.SetInsertPointAtEnd(mergeBlock)
	phi := c.builder.CreatePHI(tt.Internal(), "if")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

// generateReturn writes every output from the same-named variable visible
// at the 'return'.
func (c *Compiler) generateReturn(n *ast.Return) error {
	top, _ := ast.FunctionOf(n).Toplevel()
	scope := c.scopeOf(n)
	for _, o := range top.Outputs {
		sym, ok := scope.Get(o.Name())
		v, isVar := sym.(*symbols.Variable)
		if !ok || !isVar {
			return token.Errorf(n.Pos(), "output value '%s' was not set", o.Name())
		}
		local, ok := top.Locals.Get(v)
		if !ok {
			return token.Errorf(n.Pos(), "output value '%s' was not set", o.Name())
		}
		val := c.env[local]
		if got := c.typeOf(val); got != o.Type {
			return typeErrorf(n, "output '%s' is declared as %s but has been set to %s",
				o.Name(), types.Describe(o.Type), types.Describe(got))
		}

		dst := c.outputs[o]
		if o.Type.IsVector() {
			c.StoreVector(val, dst, o.Type)
		} else {
			c.CreateStore(val, dst, o.Type)
		}
	}
	return nil
}
