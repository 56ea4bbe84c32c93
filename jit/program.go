// Package jit compiles Calculon programs to native code and calls them.
package jit

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/thiremani/calculon/compiler"
	"github.com/thiremani/calculon/intrinsics"
	"github.com/thiremani/calculon/parser"
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

var ErrClosed = errors.New("program is closed")

// Program is a compiled, callable program. It owns its LLVM context,
// target machine and execution engine until Close.
type Program struct {
	ctx       llvm.Context
	tm        llvm.TargetMachine
	hasTM     bool
	engine    llvm.ExecutionEngine
	hasEngine bool

	entry  unsafe.Pointer
	invoke unsafe.Pointer
	ir     string
	width  types.RealWidth
	layout *layout
	closed bool
}

// Compile parses, compiles, optimises and JIT-compiles source against the
// signature text, e.g. "(x, v: vector*3): (r)".
func Compile(source, signature string, opts ...Option) (*Program, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := initNative(); err != nil {
		return nil, err
	}
	h, err := hostTarget()
	if err != nil {
		return nil, err
	}

	sig, err := parser.ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	top, err := parser.Parse(source, sig)
	if err != nil {
		return nil, err
	}

	p := &Program{ctx: llvm.NewContext(), width: o.width}
	done := false
	defer func() {
		if !done {
			p.Close()
		}
	}()

	globals := o.globals
	if globals == nil {
		globals = intrinsics.NewGlobals()
	}
	c := compiler.NewCompiler(types.NewCatalogue(p.ctx, o.width), o.moduleName, globals)
	defer c.Dispose()

	if _, err := c.Compile(top); err != nil {
		return nil, err
	}
	entry, entryType := buildEntrypoint(c, top.Symbol)
	p.layout = newLayout(top.Symbol)
	buildInvoke(c, top.Symbol, entry, entryType, p.layout)

	mod := c.Module()
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		if !fn.IsDeclaration() {
			o.logger.Debugf("generated %s", compiler.Demangle(fn.Name()))
		}
	}
	o.logger.Debugf("unoptimised IR:\n%s", mod.String())
	verify(mod)

	p.tm = newTargetMachine(h, mod, o.optLevel)
	p.hasTM = true
	if n := markInlinable(p.ctx, mod, o.inlineThreshold); n > 0 {
		o.logger.Debugf("marked %d functions alwaysinline", n)
	}
	if err := optimize(mod, p.tm, o.optLevel); err != nil {
		return nil, err
	}
	p.ir = mod.String()
	o.logger.Debugf("optimised IR:\n%s", p.ir)

	if p.engine, err = newEngine(mod, o.optLevel); err != nil {
		return nil, err
	}
	p.hasEngine = true
	p.entry = p.engine.PointerToGlobal(mod.NamedFunction(EntrypointName))
	p.invoke = p.engine.PointerToGlobal(mod.NamedFunction(InvokeName))
	if p.entry == nil || p.invoke == nil {
		return nil, fmt.Errorf("no native code for %s", EntrypointName)
	}

	done = true
	return p, nil
}

// Pointer is the address of the native entry point. Its C signature
// follows the program signature: reals and booleans by value, vectors by
// address, outputs as trailing pointers and a vector result as a leading
// pointer.
func (p *Program) Pointer() unsafe.Pointer {
	return p.entry
}

// IR returns the optimised module text.
func (p *Program) IR() string {
	return p.ir
}

func (p *Program) Signature() Signature {
	return p.layout.signature()
}

// Call runs the program. Arguments are float64, float32 or int for reals,
// bool for booleans and []float64 or []float32 for vectors. The results are
// the value in expression mode or the outputs in declaration order, as
// float64, bool or []float64.
func (p *Program) Call(args ...any) ([]any, error) {
	if p.closed {
		return nil, ErrClosed
	}
	l := p.layout
	if len(args) != len(l.params) {
		return nil, fmt.Errorf("expected %d arguments but got %d", len(l.params), len(args))
	}

	frame := make([]float64, max(l.size, 1))
	for i := range l.params {
		if err := l.params[i].put(frame, args[i]); err != nil {
			return nil, fmt.Errorf("argument %d ('%s'): %w", i+1, l.params[i].name, err)
		}
	}
	p.run(frame)

	var results []any
	if l.ret != nil {
		results = append(results, l.ret.get(frame))
	}
	for i := range l.outputs {
		results = append(results, l.outputs[i].get(frame))
	}
	return results, nil
}

func (p *Program) run(frame []float64) {
	if p.width == types.F64 {
		invoke(p.invoke, unsafe.Pointer(&frame[0]))
		return
	}

	narrow := make([]float32, len(frame))
	for i, f := range frame {
		narrow[i] = float32(f)
	}
	invoke(p.invoke, unsafe.Pointer(&narrow[0]))
	for i, f := range narrow {
		frame[i] = float64(f)
	}
}

// Close releases the native code and every LLVM object of the program.
func (p *Program) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.hasEngine {
		// the engine owns the module
		p.engine.Dispose()
	}
	if p.hasTM {
		p.tm.Dispose()
	}
	p.ctx.Dispose()
}
