package intrinsics

import (
	"github.com/thiremani/calculon/symbols"
	"tinygo.org/x/go-llvm"
)

// unaryMath maps source names to LLVM math intrinsics. They apply to reals
// and lane-wise to vectors.
var unaryMath = map[string]string{
	"sqrt":  "sqrt",
	"sin":   "sin",
	"cos":   "cos",
	"exp":   "exp",
	"exp2":  "exp2",
	"log":   "log",
	"log2":  "log2",
	"abs":   "fabs",
	"floor": "floor",
	"ceil":  "ceil",
	"round": "round",
	"trunc": "trunc",
}

// binaryMath take two reals, two vectors of one arity, or a mix that is
// splatted as for arithmetic.
var binaryMath = map[string]string{
	"pow": "pow",
	"min": "minnum",
	"max": "maxnum",
}

func mathFuncs() []*symbols.Intrinsic {
	var fns []*symbols.Intrinsic
	for name, base := range unaryMath {
		fns = append(fns, symbols.NewIntrinsic(name, 1, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			t := typeOf(e, args[0])
			if !numeric(t) {
				return llvm.Value{}, cannotApply(name, t)
			}
			return callLLVM(e, base, t, args[0]), nil
		}))
	}
	for name, base := range binaryMath {
		fns = append(fns, symbols.NewIntrinsic(name, 2, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			l, r, t, ok := broadcast(e, args[0], args[1])
			if !ok {
				return llvm.Value{}, cannotApply(name, typesOf(e, args)...)
			}
			return callLLVM(e, base, t, l, r), nil
		}))
	}
	return fns
}
