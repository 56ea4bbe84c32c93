// Package intrinsics provides the built-in callables available to every
// program: operators, the math library and vector helpers.
package intrinsics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

// Register binds every intrinsic in t, which should be the outermost scope.
func Register(t *symbols.Table) {
	for _, i := range All() {
		t.Put(i)
	}
}

// All returns a fresh set of intrinsic symbols.
func All() []*symbols.Intrinsic {
	var all []*symbols.Intrinsic
	all = append(all, operators()...)
	all = append(all, mathFuncs()...)
	all = append(all, vectorFuncs()...)
	return all
}

// NewGlobals returns an outermost scope holding the intrinsics.
func NewGlobals() *symbols.Table {
	t := symbols.NewTable(nil, symbols.MultipleScope)
	Register(t)
	return t
}

func typeOf(e symbols.Emitter, v llvm.Value) *types.Type {
	return e.Types().MustFind(v.Type())
}

func typesOf(e symbols.Emitter, args []llvm.Value) []*types.Type {
	ts := make([]*types.Type, len(args))
	for i, a := range args {
		ts[i] = typeOf(e, a)
	}
	return ts
}

// cannotApply reports an operand type error for the named intrinsic.
func cannotApply(name string, ts ...*types.Type) error {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = types.Describe(t)
	}
	return fmt.Errorf("can't apply '%s' to %s", name, strings.Join(parts, " and "))
}

func laneIndex(e symbols.Emitter, i int) llvm.Value {
	return llvm.ConstInt(e.Context().Int32Type(), uint64(i), false)
}

// Splat broadcasts the scalar v into every lane of vt.
func Splat(e symbols.Emitter, v llvm.Value, vt *types.Type) llvm.Value {
	b := e.Builder()
	vec := llvm.Undef(vt.Internal())
	for i := 0; i < vt.Arity(); i++ {
		vec = b.CreateInsertElement(vec, v, laneIndex(e, i), "")
	}
	return vec
}

// sumLanes adds the lanes of v from first to last.
func sumLanes(e symbols.Emitter, v llvm.Value, n int) llvm.Value {
	b := e.Builder()
	acc := b.CreateExtractElement(v, laneIndex(e, 0), "")
	for i := 1; i < n; i++ {
		acc = b.CreateFAdd(acc, b.CreateExtractElement(v, laneIndex(e, i), ""), "sum")
	}
	return acc
}

// llvmSuffix is the overload suffix of an LLVM math intrinsic for t,
// e.g. f64 or v3f32.
func llvmSuffix(e symbols.Emitter, t *types.Type) string {
	s := "f64"
	if e.Types().Width() == types.F32 {
		s = "f32"
	}
	if t.IsVector() {
		return "v" + strconv.Itoa(t.Arity()) + s
	}
	return s
}

// callLLVM calls llvm.<base>.<suffix>, declaring it on first use. All
// operands and the result share type t.
func callLLVM(e symbols.Emitter, base string, t *types.Type, args ...llvm.Value) llvm.Value {
	name := "llvm." + base + "." + llvmSuffix(e, t)
	params := make([]llvm.Type, len(args))
	for i := range params {
		params[i] = t.Internal()
	}
	fnType := llvm.FunctionType(t.Internal(), params, false)
	fn := e.Module().NamedFunction(name)
	if fn.IsNil() {
		fn = llvm.AddFunction(e.Module(), name, fnType)
	}
	return e.Builder().CreateCall(fnType, fn, args, base+"_tmp")
}

// numeric reports whether t is real or a vector.
func numeric(t *types.Type) bool {
	return t.Kind() == types.RealKind || t.Kind() == types.VectorKind
}

// broadcast brings a real/vector operand pair to a common type by splatting
// a scalar against a vector. ok is false for incompatible operands.
func broadcast(e symbols.Emitter, l, r llvm.Value) (llvm.Value, llvm.Value, *types.Type, bool) {
	lt, rt := typeOf(e, l), typeOf(e, r)
	switch {
	case !numeric(lt) || !numeric(rt):
		return l, r, nil, false
	case lt == rt:
		return l, r, lt, true
	case lt.IsVector() && rt.Kind() == types.RealKind:
		return l, Splat(e, r, lt), lt, true
	case rt.IsVector() && lt.Kind() == types.RealKind:
		return Splat(e, l, rt), r, rt, true
	}
	return l, r, nil, false
}
