package intrinsics

import (
	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

// opKey is used as the key for operator functions.
type opKey struct {
	Operator  string
	LeftKind  types.Kind
	RightKind types.Kind
}

// opFunc emits an operator over operands of the keyed kinds. Mixed
// real/vector arithmetic is splatted to vector/vector before lookup.
type opFunc func(b llvm.Builder, left, right llvm.Value) llvm.Value

func fbin(create func(llvm.Builder, llvm.Value, llvm.Value, string) llvm.Value, name string) opFunc {
	return func(b llvm.Builder, left, right llvm.Value) llvm.Value {
		return create(b, left, right, name)
	}
}

func fcmp(pred llvm.FloatPredicate) opFunc {
	return func(b llvm.Builder, left, right llvm.Value) llvm.Value {
		return b.CreateFCmp(pred, left, right, "fcmp_tmp")
	}
}

func icmp(pred llvm.IntPredicate) opFunc {
	return func(b llvm.Builder, left, right llvm.Value) llvm.Value {
		return b.CreateICmp(pred, left, right, "icmp_tmp")
	}
}

const (
	realK = types.RealKind
	boolK = types.BooleanKind
	vecK  = types.VectorKind
)

var defaultOps = func() map[opKey]opFunc {
	ops := map[opKey]opFunc{
		// --- Comparison ---
		{"<", realK, realK}:  fcmp(llvm.FloatOLT),
		{"<=", realK, realK}: fcmp(llvm.FloatOLE),
		{">", realK, realK}:  fcmp(llvm.FloatOGT),
		{">=", realK, realK}: fcmp(llvm.FloatOGE),
		{"==", realK, realK}: fcmp(llvm.FloatOEQ),
		{"!=", realK, realK}: fcmp(llvm.FloatUNE),
		{"==", boolK, boolK}: icmp(llvm.IntEQ),
		{"!=", boolK, boolK}: icmp(llvm.IntNE),

		// --- Logic ---
		{"and", boolK, boolK}: fbin(llvm.Builder.CreateAnd, "and_tmp"),
		{"or", boolK, boolK}:  fbin(llvm.Builder.CreateOr, "or_tmp"),
	}

	// --- Arithmetic ---
	arith := map[string]opFunc{
		"+": fbin(llvm.Builder.CreateFAdd, "fadd_tmp"),
		"-": fbin(llvm.Builder.CreateFSub, "fsub_tmp"),
		"*": fbin(llvm.Builder.CreateFMul, "fmul_tmp"),
		"/": fbin(llvm.Builder.CreateFDiv, "fdiv_tmp"),
		"%": fbin(llvm.Builder.CreateFRem, "frem_tmp"),
	}
	for op, fn := range arith {
		ops[opKey{op, realK, realK}] = fn
		ops[opKey{op, vecK, vecK}] = fn
	}
	return ops
}()

func binaryOp(name string) *symbols.Intrinsic {
	return symbols.NewIntrinsic(name, 2, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
		l, r := args[0], args[1]
		lt, rt := typeOf(e, l), typeOf(e, r)
		if lt.IsVector() != rt.IsVector() {
			var ok bool
			if l, r, _, ok = broadcast(e, l, r); !ok {
				return llvm.Value{}, cannotApply(name, lt, rt)
			}
		} else if lt.IsVector() && lt != rt {
			return llvm.Value{}, cannotApply(name, lt, rt)
		}

		key := opKey{Operator: name, LeftKind: typeOf(e, l).Kind(), RightKind: typeOf(e, r).Kind()}
		fn, ok := defaultOps[key]
		if !ok {
			return llvm.Value{}, cannotApply(name, lt, rt)
		}
		return fn(e.Builder(), l, r), nil
	})
}

func operators() []*symbols.Intrinsic {
	ops := []*symbols.Intrinsic{
		symbols.NewIntrinsic("unary-", 1, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			t := typeOf(e, args[0])
			if !numeric(t) {
				return llvm.Value{}, cannotApply("-", t)
			}
			return e.Builder().CreateFNeg(args[0], "fneg_tmp"), nil
		}),
		symbols.NewIntrinsic("!", 1, func(e symbols.Emitter, args []llvm.Value) (llvm.Value, error) {
			t := typeOf(e, args[0])
			if t.Kind() != types.BooleanKind {
				return llvm.Value{}, cannotApply("not", t)
			}
			return e.Builder().CreateNot(args[0], "not_tmp"), nil
		}),
	}
	for _, name := range []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "and", "or"} {
		ops = append(ops, binaryOp(name))
	}
	return ops
}
