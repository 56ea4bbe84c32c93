package intrinsics

import (
	"fmt"

	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

var lanes = []string{"x", "y", "z", "w"}

func vectorFuncs() []*symbols.Intrinsic {
	fns := []*symbols.Intrinsic{
		symbols.NewIntrinsic("dot", 2, emitDot),
		symbols.NewIntrinsic("sum", 1, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			t := typeOf(e, args[0])
			if !t.IsVector() {
				return llvm.Value{}, cannotApply("sum", t)
			}
			return sumLanes(e, args[0], t.Arity()), nil
		}),
		symbols.NewIntrinsic("length", 1, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			t := typeOf(e, args[0])
			if !t.IsVector() {
				return llvm.Value{}, cannotApply("length", t)
			}
			return length(e, args[0], t), nil
		}),
		symbols.NewIntrinsic("norm", 1, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			t := typeOf(e, args[0])
			if !t.IsVector() {
				return llvm.Value{}, cannotApply("norm", t)
			}
			l := Splat(e, length(e, args[0], t), t)
			return e.Builder().CreateFDiv(args[0], l, "norm"), nil
		}),
		symbols.NewIntrinsic("cross", 2, emitCross),
	}

	for i, lane := range lanes {
		name := "." + lane
		fns = append(fns, symbols.NewIntrinsic(name, 1, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			t := typeOf(e, args[0])
			if !t.IsVector() {
				return llvm.Value{}, cannotApply(name, t)
			}
			if i >= t.Arity() {
				return llvm.Value{}, fmt.Errorf("%s has no lane '%s'", types.Describe(t), lane)
			}
			return e.Builder().CreateExtractElement(args[0], laneIndex(e, i), lane), nil
		}))
	}
	return fns
}

func sameVectors(e symbols.Emitter, name string, args []llvm.Value) (*types.Type, error) {
	lt, rt := typeOf(e, args[0]), typeOf(e, args[1])
	if !lt.IsVector() || lt != rt {
		return nil, cannotApply(name, lt, rt)
	}
	return lt, nil
}

func emitDot(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
	t, err := sameVectors(e, "dot", args)
	if err != nil {
		return llvm.Value{}, err
	}
	prod := e.Builder().CreateFMul(args[0], args[1], "dot_mul")
	return sumLanes(e, prod, t.Arity()), nil
}

func length(e symbols.Emitter, v llvm.Value, t *types.Type) llvm.Value {
	sq := sumLanes(e, e.Builder().CreateFMul(v, v, "sq"), t.Arity())
	return callLLVM(e, "sqrt", e.Types().Real(), sq)
}

func emitCross(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
	t, err := sameVectors(e, "cross", args)
	if err != nil {
		return llvm.Value{}, err
	}
	if t.Arity() != 3 {
		return llvm.Value{}, fmt.Errorf("'cross' needs vector*3 operands, got %s", types.Describe(t))
	}

	b := e.Builder()
	lane := func(v llvm.Value, i int) llvm.Value {
		return b.CreateExtractElement(v, laneIndex(e, i), "")
	}
	a, c := args[0], args[1]
	term := func(i, j int) llvm.Value {
		return b.CreateFSub(
			b.CreateFMul(lane(a, i), lane(c, j), ""),
			b.CreateFMul(lane(a, j), lane(c, i), ""),
			"",
		)
	}

	out := llvm.Undef(t.Internal())
	out = b.CreateInsertElement(out, term(1, 2), laneIndex(e, 0), "")
	out = b.CreateInsertElement(out, term(2, 0), laneIndex(e, 1), "")
	out = b.CreateInsertElement(out, term(0, 1), laneIndex(e, 2), "cross")
	return out, nil
}
