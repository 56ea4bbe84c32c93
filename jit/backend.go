package jit

import (
	"fmt"
	"sync"

	"tinygo.org/x/go-llvm"
)

// SetupError reports that the native backend could not be initialised.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return "jit setup failed: " + e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }

var (
	nativeOnce sync.Once
	nativeErr  error
)

// initNative initialises the host target once per process.
func initNative() error {
	nativeOnce.Do(func() {
		if err := llvm.InitializeNativeTarget(); err != nil {
			nativeErr = fmt.Errorf("initialize native target: %w", err)
			return
		}
		if err := llvm.InitializeNativeAsmPrinter(); err != nil {
			nativeErr = fmt.Errorf("initialize native asm printer: %w", err)
			return
		}
		llvm.LinkInMCJIT()
	})
	if nativeErr != nil {
		return &SetupError{Err: nativeErr}
	}
	return nil
}

var targetFromTriple = llvm.GetTargetFromTriple

// host is the target the JIT compiles for.
type host struct {
	triple string
	target llvm.Target
}

// hostTarget looks up the target for the host triple.
func hostTarget() (host, error) {
	triple := llvm.DefaultTargetTriple()
	target, err := targetFromTriple(triple)
	if err != nil {
		return host{}, &SetupError{Err: fmt.Errorf("target for %s: %w", triple, err)}
	}
	return host{triple: triple, target: target}, nil
}

// newTargetMachine creates a machine for h and configures mod for it.
func newTargetMachine(h host, mod llvm.Module, level int) llvm.TargetMachine {
	tm := h.target.CreateTargetMachine(h.triple, "", "", codeGenLevel(level), llvm.RelocDefault, llvm.CodeModelJITDefault)

	td := tm.CreateTargetData()
	defer td.Dispose()
	mod.SetTarget(h.triple)
	mod.SetDataLayout(td.String())
	return tm
}

func codeGenLevel(level int) llvm.CodeGenOptLevel {
	switch level {
	case 0:
		return llvm.CodeGenLevelNone
	case 1:
		return llvm.CodeGenLevelLess
	case 2:
		return llvm.CodeGenLevelDefault
	}
	return llvm.CodeGenLevelAggressive
}

// verify checks the module. A malformed module is a compiler defect, not a
// user error.
func verify(mod llvm.Module) {
	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		panic("internal error: generated module does not verify: " + err.Error())
	}
}

// instructionCount counts the instructions of fn and reports whether it
// calls itself.
func instructionCount(fn llvm.Value) (n int, recursive bool) {
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		for inst := bb.FirstInstruction(); !inst.IsNil(); inst = llvm.NextInstruction(inst) {
			n++
			if inst.InstructionOpcode() == llvm.Call && inst.Operand(inst.OperandsCount()-1) == fn {
				recursive = true
			}
		}
	}
	return n, recursive
}

// markInlinable flags small non-recursive internal functions alwaysinline
// and returns how many were marked.
func markInlinable(ctx llvm.Context, mod llvm.Module, threshold int) int {
	if threshold <= 0 {
		return 0
	}
	attr := ctx.CreateEnumAttribute(llvm.AttributeKindID("alwaysinline"), 0)
	marked := 0
	for fn := mod.FirstFunction(); !fn.IsNil(); fn = llvm.NextFunction(fn) {
		if fn.IsDeclaration() || fn.Linkage() != llvm.InternalLinkage {
			continue
		}
		if n, recursive := instructionCount(fn); n <= threshold && !recursive {
			fn.AddFunctionAttr(attr)
			marked++
		}
	}
	return marked
}

// optimize runs the function-level cleanups then the module pipeline.
func optimize(mod llvm.Module, tm llvm.TargetMachine, level int) error {
	pbo := llvm.NewPassBuilderOptions()
	defer pbo.Dispose()

	if level > 0 {
		if err := mod.RunPasses("function(sroa,early-cse,instcombine,simplifycfg)", tm, pbo); err != nil {
			return fmt.Errorf("function passes: %w", err)
		}
	}
	if err := mod.RunPasses(fmt.Sprintf("default<O%d>", level), tm, pbo); err != nil {
		return fmt.Errorf("module passes: %w", err)
	}
	return nil
}

// newEngine hands mod over to an MCJIT execution engine.
func newEngine(mod llvm.Module, level int) (llvm.ExecutionEngine, error) {
	opts := llvm.NewMCJITCompilerOptions()
	opts.SetMCJITOptimizationLevel(uint(level))
	opts.SetMCJITCodeModel(llvm.CodeModelJITDefault)
	ee, err := llvm.NewMCJITCompiler(mod, opts)
	if err != nil {
		return llvm.ExecutionEngine{}, &SetupError{Err: fmt.Errorf("create execution engine: %w", err)}
	}
	return ee, nil
}
