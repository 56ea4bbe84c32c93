package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiremani/calculon/intrinsics"
	"github.com/thiremani/calculon/parser"
	"github.com/thiremani/calculon/token"
	"github.com/thiremani/calculon/types"
	"tinygo.org/x/go-llvm"
)

func compileSource(t *testing.T, sigSrc, src string) (*Compiler, error) {
	t.Helper()

	ctx := llvm.NewContext()
	t.Cleanup(ctx.Dispose)

	sig, err := parser.ParseSignature(sigSrc)
	require.NoError(t, err)
	top, err := parser.Parse(src, sig)
	require.NoError(t, err)

	c := NewCompiler(types.NewCatalogue(ctx, types.F64), "test", intrinsics.NewGlobals())
	t.Cleanup(c.Dispose)
	_, err = c.Compile(top)
	return c, err
}

func mustCompile(t *testing.T, sigSrc, src string) *Compiler {
	t.Helper()
	c, err := compileSource(t, sigSrc, src)
	require.NoError(t, err)
	require.NoError(t, llvm.VerifyModule(c.Module(), llvm.ReturnStatusAction), c.GenerateIR())
	return c
}

func namedFunction(t *testing.T, c *Compiler, name string) llvm.Value {
	t.Helper()
	fn := c.Module().NamedFunction(name)
	require.False(t, fn.IsNil(), "no function %s in\n%s", name, c.GenerateIR())
	return fn
}

// callsTo returns the call instructions in fn whose callee is target.
func callsTo(fn, target llvm.Value) []llvm.Value {
	var calls []llvm.Value
	for bb := fn.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		for inst := bb.FirstInstruction(); !inst.IsNil(); inst = llvm.NextInstruction(inst) {
			if inst.InstructionOpcode() != llvm.Call {
				continue
			}
			if inst.Operand(inst.OperandsCount()-1) == target {
				calls = append(calls, inst)
			}
		}
	}
	return calls
}

func TestCompileStatementMode(t *testing.T) {
	c := mustCompile(t, "(x, v: vector*2): (r, o: vector*2)", "return r = x + 1, o = v * x")

	fn := namedFunction(t, c, "$toplevel$R$V2")
	assert.Equal(t, llvm.InternalLinkage, fn.Linkage())
	assert.Equal(t, 4, fn.ParamsCount())
	ir := c.GenerateIR()
	assert.Contains(t, ir, "fadd double")
	assert.Contains(t, ir, "ret void")
}

func TestCompileExpressionMode(t *testing.T) {
	c := mustCompile(t, "(a: boolean, b: boolean): boolean", "a and not b")
	fn := namedFunction(t, c, "$toplevel$B$B")
	assert.Equal(t, 2, fn.ParamsCount())
	assert.Contains(t, c.GenerateIR(), "define internal i1 @\"$toplevel$B$B\"")
}

func TestCompileCondition(t *testing.T) {
	c := mustCompile(t, "(x): real", "if x < 0 then -x else x")
	ir := c.GenerateIR()
	assert.Contains(t, ir, "fcmp olt")
	assert.Contains(t, ir, "phi double")
}

func TestUpvalueOrder(t *testing.T) {
	c := mustCompile(t, "(): (r)", "let a = 1; let b = 2; let f() = b + a; return r = f()")

	f := namedFunction(t, c, "$toplevel.f")
	require.Equal(t, 2, f.ParamsCount())
	assert.Equal(t, "b", f.Param(0).Name())
	assert.Equal(t, "a", f.Param(1).Name())
}

func TestTransitiveCapture(t *testing.T) {
	src := "let f(a) = let y = a * 2; let h() = y + 1; let g(b) = h() + b; g(1) in return r = f(3)"
	c := mustCompile(t, "(): (r)", src)

	f := namedFunction(t, c, "$toplevel.f$R")
	h := namedFunction(t, c, "$toplevel.f.h")
	g := namedFunction(t, c, "$toplevel.f.g$R")

	assert.Equal(t, 1, f.ParamsCount())
	assert.Equal(t, 1, h.ParamsCount())
	// b and the captured y
	assert.Equal(t, 2, g.ParamsCount())

	calls := callsTo(f, g)
	require.Len(t, calls, 1)
	assert.Equal(t, 2, calls[0].OperandsCount()-1)

	calls = callsTo(g, h)
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].OperandsCount()-1)
}

func TestRecursiveCapture(t *testing.T) {
	src := "let k = 2; let f(n) = if n < 1 then k else f(n - 1) * k in return r = f(3)"
	c := mustCompile(t, "(): (r)", src)

	f := namedFunction(t, c, "$toplevel.f$R")
	require.Equal(t, 2, f.ParamsCount())
	calls := callsTo(f, f)
	require.Len(t, calls, 1)
	assert.Equal(t, 2, calls[0].OperandsCount()-1)
}

func TestSiblingFunctionsGetDistinctNames(t *testing.T) {
	src := "return r = if true then (let f() = 1 in f()) else (let f() = 2 in f())"
	c := mustCompile(t, "(): (r)", src)
	namedFunction(t, c, "$toplevel.f")
	namedFunction(t, c, "$toplevel.f#2")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		sig  string
		src  string
		msg  string
	}{
		{"branch types", "(): (r)", "return r = if true then 1.0 else false",
			"the true and false values of a conditional must be the same type, but got a real and a boolean"},
		{"branch types parenthesized", "(): (r)", "return r = if (true) 1.0 else false",
			"the true and false values of a conditional must be the same type, but got a real and a boolean"},
		{"too many arguments", "(): (r)", "let f(a, b) = a + b in return r = f(1, 2, 3)",
			"function 'f' expects 2 arguments but was called with 3"},
		{"arity", "(): (r)", "let f(a, b) = a + b in return r = f(1)",
			"function 'f' expects 2 arguments but was called with 1"},
		{"intrinsic arity", "(): (r)", "return r = sqrt(1, 2)",
			"function 'sqrt' expects 1 arguments but was called with 2"},
		{"missing return", "(): (r)", "let y = 1.0 in y",
			"toplevel code must end in a 'return' statement"},
		{"return in function", "(): (r)", "let f() = return in return r = 1",
			"'return' can only be used in top level code"},
		{"return in conditional", "()", "if true then return else return",
			"you can't use 'return' inside conditionals"},
		{"return assigned", "(): (r)", "let x = return in return r = 1",
			"you can't assign 'return' to anything"},
		{"return in expression mode", "(): real", "return",
			"'return' can't be used in a program that returns a value"},
		{"not callable", "(): (r)", "let x = 1 in return r = x(2)",
			"attempt to call 'x', which is not a function"},
		{"not a variable", "(): (r)", "return r = sqrt",
			"attempt to get the value of 'sqrt', which is not a variable"},
		{"declared variable", "(): (r)", "let x: boolean = 1 in return r = 1",
			"variable 'x' is declared as a boolean but has been set to a real"},
		{"declared function", "(): (r)", "let f(): boolean = 1 in return r = 1",
			"function 'f' is declared to return a boolean but actually returns a real"},
		{"declared toplevel", "(): boolean", "1",
			"toplevel code is declared to return a boolean but actually returns a real"},
		{"output not set", "(): (r)", "return",
			"output value 'r' was not set"},
		{"output not a variable", "(): (sqrt)", "return",
			"output value 'sqrt' was not set"},
		{"output type", "(): (r: boolean)", "return r = 1",
			"output 'r' is declared as a boolean but has been set to a real"},
		{"argument type", "(): (r)", "let f(a: vector*2) = a.x in return r = f(1)",
			"type mismatch: expected a vector*2, but got a real"},
		{"operand type", "(): (r)", "return r = 1 + true",
			"can't apply '+' to a real and a boolean"},
		{"condition type", "(): (r)", "return r = if 1 then 2 else 3",
			"type mismatch: expected a boolean, but got a real"},
		{"vector element", "(): (r: vector*2)", "return r = [1, true]",
			"type mismatch: expected a real, but got a boolean"},
		{"duplicate parameter", "(): (r)", "let f(a, a) = a in return r = 1",
			"parameter 'a' is declared more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, tt.sig, tt.src)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), tt.msg), "got %q", err.Error())
		})
	}
}

func TestUnresolvedSymbol(t *testing.T) {
	_, err := compileSource(t, "(): (r)", "return r = q + 1")
	require.Error(t, err)

	var symErr *SymbolError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, "q", symErr.Name)
	assert.Equal(t, "unresolved symbol 'q' at 1:12", err.Error())
}

func TestScopeNotVisibleToInitializer(t *testing.T) {
	_, err := compileSource(t, "(): (r)", "let x = x + 1 in return r = x")
	var symErr *SymbolError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, "x", symErr.Name)
}

func TestTypeErrorPosition(t *testing.T) {
	_, err := compileSource(t, "(): (r)", "return r =\n  if true then 1 else false")
	var typeErr *TypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, token.Position{Line: 2, Column: 3}, typeErr.Pos())
}

func TestStructuralErrorsArePositioned(t *testing.T) {
	_, err := compileSource(t, "(): (r)", "let f(a, b) = a + b in\nreturn r = f(1, 2, 3)")
	var compileErr *token.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, token.Position{Line: 2, Column: 12}, compileErr.Pos)

	_, err = compileSource(t, "(): (r)", "let y = 1.0 in y")
	require.True(t, errors.As(err, &compileErr))
	var typeErr *TypeError
	assert.False(t, errors.As(err, &typeErr))
}

func TestUnknownDeclaredType(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()

	sig := &parser.Signature{}
	top, err := parser.Parse("1", sig)
	require.NoError(t, err)
	top.ReturnTypeName = "vector*x"

	c := NewCompiler(types.NewCatalogue(ctx, types.F64), "test", intrinsics.NewGlobals())
	defer c.Dispose()
	_, err = c.Compile(top)
	var compileErr *token.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Contains(t, compileErr.Msg, "invalid vector arity")
}
