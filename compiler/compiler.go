package compiler

import (
	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

// function is a generated LLVM function and its type.
type function struct {
	Val  llvm.Value
	Type llvm.Type
}

// callSite records a resolved call from one user function to another so
// that captures can be propagated to a fixpoint after resolution.
type callSite struct {
	caller *symbols.Function
	callee *symbols.Function
}

// Compiler runs resolution and code generation for one program. It owns an
// LLVM module and builder inside a context owned by the caller.
type Compiler struct {
	ctx     llvm.Context
	module  llvm.Module
	builder llvm.Builder
	types   *types.Catalogue
	globals *symbols.Table

	funcs   map[*symbols.Function]function
	env     map[*symbols.Variable]llvm.Value // values of the function being generated
	outputs map[*symbols.Variable]llvm.Value // toplevel output destinations
	calls   []callSite
}

func NewCompiler(cat *types.Catalogue, moduleName string, globals *symbols.Table) *Compiler {
	ctx := cat.Context()
	if globals == nil {
		globals = symbols.NewTable(nil, symbols.MultipleScope)
	}
	return &Compiler{
		ctx:     ctx,
		module:  ctx.NewModule(moduleName),
		builder: ctx.NewBuilder(),
		types:   cat,
		globals: globals,
		funcs:   make(map[*symbols.Function]function),
		env:     make(map[*symbols.Variable]llvm.Value),
		outputs: make(map[*symbols.Variable]llvm.Value),
	}
}

func (c *Compiler) Context() llvm.Context   { return c.ctx }
func (c *Compiler) Module() llvm.Module     { return c.module }
func (c *Compiler) Builder() llvm.Builder   { return c.builder }
func (c *Compiler) Types() *types.Catalogue { return c.types }

// Function returns the generated LLVM function for f.
func (c *Compiler) Function(f *symbols.Function) (llvm.Value, llvm.Type, bool) {
	fn, ok := c.funcs[f]
	return fn.Val, fn.Type, ok
}

func (c *Compiler) GenerateIR() string {
	return c.module.String()
}

// Dispose releases the builder. The module belongs to whoever takes it over
// (normally an execution engine) or goes away with the context.
func (c *Compiler) Dispose() {
	c.builder.Dispose()
}

func (c *Compiler) realAlign() int {
	if c.types.Width() == types.F32 {
		return 4
	}
	return 8
}

func (c *Compiler) setInstAlignment(inst llvm.Value, t *types.Type) {
	switch t.Kind() {
	case types.BooleanKind:
		inst.SetAlignment(1)
	case types.RealKind:
		inst.SetAlignment(c.realAlign())
	default:
		panic("Unsupported type for alignment " + t.String())
	}
}

// CreateStore is a simple helper that creates an LLVM store instruction and
// sets its alignment. Vectors go through StoreVector.
func (c *Compiler) CreateStore(val llvm.Value, ptr llvm.Value, valType *types.Type) llvm.Value {
	storeInst := c.builder.CreateStore(val, ptr)
	c.setInstAlignment(storeInst, valType)
	return storeInst
}

// CreateLoad is a simple helper that creates an LLVM load instruction and
// sets its alignment.
func (c *Compiler) CreateLoad(ptr llvm.Value, elemType *types.Type, name string) llvm.Value {
	loadInst := c.builder.CreateLoad(elemType.Internal(), ptr, name)
	c.setInstAlignment(loadInst, elemType)
	return loadInst
}

// RealPtr addresses the i-th real after ptr.
func (c *Compiler) RealPtr(ptr llvm.Value, i int) llvm.Value {
	idx := llvm.ConstInt(c.ctx.Int32Type(), uint64(i), false)
	return c.builder.CreateInBoundsGEP(c.types.Real().Internal(), ptr, []llvm.Value{idx}, "lane")
}

// LoadVector reads a vector from its external by-address representation.
func (c *Compiler) LoadVector(ptr llvm.Value, t *types.Type) llvm.Value {
	vec := llvm.Undef(t.Internal())
	for i := 0; i < t.Arity(); i++ {
		lane := c.CreateLoad(c.RealPtr(ptr, i), c.types.Real(), "")
		vec = c.builder.CreateInsertElement(vec, lane, llvm.ConstInt(c.ctx.Int32Type(), uint64(i), false), "")
	}
	return vec
}

// StoreVector writes each lane of vec to consecutive reals at ptr.
func (c *Compiler) StoreVector(vec llvm.Value, ptr llvm.Value, t *types.Type) {
	for i := 0; i < t.Arity(); i++ {
		lane := c.builder.CreateExtractElement(vec, llvm.ConstInt(c.ctx.Int32Type(), uint64(i), false), "")
		c.CreateStore(lane, c.RealPtr(ptr, i), c.types.Real())
	}
}

// EntryAlloca creates a stack slot in the entry block of the current
// function, leaving the insert point unchanged.
func (c *Compiler) EntryAlloca(ty llvm.Type, name string) llvm.Value {
	current := c.builder.GetInsertBlock()
	fn := current.Parent()
	entry := fn.EntryBasicBlock()
	first := entry.FirstInstruction()

	if first.IsNil() {
		c.builder.SetInsertPointAtEnd(entry)
	} else {
		c.builder.SetInsertPointBefore(first)
	}

	alloca := c.builder.CreateAlloca(ty, name)
	c.builder.SetInsertPointAtEnd(current)
	return alloca
}

// createIfElseCont emits a conditional branch and creates if/else/cont blocks
// in the current function.
func (c *Compiler) createIfElseCont(cond llvm.Value, ifName, elseName, contName string) (llvm.BasicBlock, llvm.BasicBlock, llvm.BasicBlock) {
	fn := c.builder.GetInsertBlock().Parent()
	ifBlock := c.ctx.AddBasicBlock(fn, ifName)
	elseBlock := c.ctx.AddBasicBlock(fn, elseName)
	contBlock := c.ctx.AddBasicBlock(fn, contName)
	c.builder.CreateCondBr(cond, ifBlock, elseBlock)
	return ifBlock, elseBlock, contBlock
}
