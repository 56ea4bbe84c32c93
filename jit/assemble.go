package jit

import (
	"github.com/thiremani/calculon/compiler"
	"github.com/thiremani/calculon/symbols"
	"tinygo.org/x/go-llvm"
)

const (
	EntrypointName = "Entrypoint"
	InvokeName     = "Invoke"
)

// buildEntrypoint emits the host-callable wrapper around the toplevel
// function. Vector parameters arrive by address and are loaded before the
// call. A vector result is written through an extra leading pointer.
func buildEntrypoint(c *compiler.Compiler, top *symbols.Toplevel) (llvm.Value, llvm.Type) {
	inner, innerType, ok := c.Function(top.Function)
	if !ok {
		panic("internal error: toplevel function was not generated")
	}
	ctx, b := c.Context(), c.Builder()
	vectorReturn := top.ExpressionMode() && top.ReturnType.IsVector()

	var params []llvm.Type
	if vectorReturn {
		params = append(params, top.ReturnType.External())
	}
	for _, p := range top.Params {
		params = append(params, p.Type.External())
	}
	for _, o := range top.Outputs {
		params = append(params, compiler.OutputType(o.Type))
	}
	ret := ctx.VoidType()
	if top.ExpressionMode() && !vectorReturn {
		ret = top.ReturnType.Internal()
	}

	fnType := llvm.FunctionType(ret, params, false)
	fn := llvm.AddFunction(c.Module(), EntrypointName, fnType)
	b.SetInsertPointAtEnd(ctx.AddBasicBlock(fn, "entry"))

	i := 0
	var dst llvm.Value
	if vectorReturn {
		dst = fn.Param(0)
		dst.SetName("result")
		i++
	}
	args := make([]llvm.Value, 0, len(top.Params)+len(top.Outputs))
	for _, p := range top.Params {
		arg := fn.Param(i)
		arg.SetName(p.Name())
		if p.Type.IsVector() {
			arg = c.LoadVector(arg, p.Type)
		}
		args = append(args, arg)
		i++
	}
	for _, o := range top.Outputs {
		arg := fn.Param(i)
		arg.SetName(o.Name())
		args = append(args, arg)
		i++
	}

	result := b.CreateCall(innerType, inner, args, "")
	switch {
	case vectorReturn:
		c.StoreVector(result, dst, top.ReturnType)
		b.CreateRetVoid()
	case top.ExpressionMode():
		b.CreateRet(result)
	default:
		b.CreateRetVoid()
	}
	return fn, fnType
}

// buildInvoke emits Invoke(frame), which reads the parameters from the
// frame, calls the entry point and writes the result and outputs back.
func buildInvoke(c *compiler.Compiler, top *symbols.Toplevel, entry llvm.Value, entryType llvm.Type, l *layout) llvm.Value {
	ctx, b, cat := c.Context(), c.Builder(), c.Types()
	realT, boolT := cat.Real(), cat.Boolean()

	fnType := llvm.FunctionType(ctx.VoidType(), []llvm.Type{llvm.PointerType(realT.Internal(), 0)}, false)
	fn := llvm.AddFunction(c.Module(), InvokeName, fnType)
	frame := fn.Param(0)
	frame.SetName("frame")
	b.SetInsertPointAtEnd(ctx.AddBasicBlock(fn, "entry"))

	vectorReturn := top.ExpressionMode() && top.ReturnType.IsVector()

	var args []llvm.Value
	if vectorReturn {
		args = append(args, c.RealPtr(frame, l.ret.offset))
	}
	for i, p := range top.Params {
		s := l.params[i]
		ptr := c.RealPtr(frame, s.offset)
		switch {
		case p.Type.IsVector():
			args = append(args, ptr)
		case p.Type == boolT:
			v := c.CreateLoad(ptr, realT, "")
			args = append(args, b.CreateFCmp(llvm.FloatONE, v, llvm.ConstFloat(realT.Internal(), 0), p.Name()))
		default:
			args = append(args, c.CreateLoad(ptr, realT, p.Name()))
		}
	}

	type flag struct {
		tmp    llvm.Value
		offset int
	}
	var flags []flag
	for i, o := range top.Outputs {
		s := l.outputs[i]
		if o.Type == boolT {
			tmp := c.EntryAlloca(boolT.Internal(), o.Name())
			flags = append(flags, flag{tmp, s.offset})
			args = append(args, tmp)
			continue
		}
		args = append(args, c.RealPtr(frame, s.offset))
	}

	result := b.CreateCall(entryType, entry, args, "")
	if l.ret != nil && !vectorReturn {
		if top.ReturnType == boolT {
			result = b.CreateUIToFP(result, realT.Internal(), "")
		}
		c.CreateStore(result, c.RealPtr(frame, l.ret.offset), realT)
	}
	for _, f := range flags {
		v := c.CreateLoad(f.tmp, boolT, "")
		c.CreateStore(b.CreateUIToFP(v, realT.Internal(), ""), c.RealPtr(frame, f.offset), realT)
	}
	b.CreateRetVoid()
	return fn
}
