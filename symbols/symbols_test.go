package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(vs []*Variable) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.Name())
	}
	return out
}

func TestImportPreservesOrder(t *testing.T) {
	f := NewFunction("f", nil)
	f.AddParam("p", nil)

	a := NewVariable("a", nil, nil)
	b := NewVariable("b", nil, nil)
	c := NewVariable("c", nil, nil)

	require.True(t, f.Import(c))
	require.True(t, f.Import(a))
	require.False(t, f.Import(c))
	require.True(t, f.Import(b))
	require.False(t, f.Import(f.Params[0]))

	if diff := cmp.Diff([]string{"c", "a", "b"}, names(f.Upvalues())); diff != "" {
		t.Errorf("upvalue order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, f.Locals.Len())

	proxy, ok := f.Locals.Get(a)
	require.True(t, ok)
	assert.NotSame(t, a, proxy)
	assert.Equal(t, "a", proxy.Name())
	assert.Same(t, f, proxy.Owner)
}

func TestDefineIsSelfMapped(t *testing.T) {
	f := NewFunction("f", nil)
	v := NewVariable("x", nil, nil)
	f.Define(v)

	proxy, ok := f.Locals.Get(v)
	require.True(t, ok)
	assert.Same(t, v, proxy)
	assert.Empty(t, f.Upvalues())
	assert.False(t, f.Import(v))
}

func TestToplevel(t *testing.T) {
	top := NewToplevel("toplevel")
	assert.Equal(t, ToplevelKind, top.Kind())
	assert.False(t, top.ExpressionMode())

	got, ok := top.Function.Toplevel()
	require.True(t, ok)
	assert.Same(t, top, got)

	_, ok = NewFunction("g", top.Function).Toplevel()
	assert.False(t, ok)

	out := top.AddOutput("r", nil)
	assert.Equal(t, []*Variable{out}, top.Outputs)
	_, inLocals := top.Locals.Get(out)
	assert.False(t, inLocals)
}

func TestTableShadowing(t *testing.T) {
	global := NewTable(nil, MultipleScope)
	outer := NewVariable("x", nil, nil)
	require.True(t, global.Put(outer))
	require.False(t, global.Put(NewVariable("x", nil, nil)))

	inner := NewVariable("x", nil, nil)
	scope := NewSingleton(global, inner)

	sym, ok := scope.Get("x")
	require.True(t, ok)
	assert.Same(t, inner, sym)

	sym, ok = global.Get("x")
	require.True(t, ok)
	assert.Same(t, outer, sym)

	_, ok = scope.Get("y")
	assert.False(t, ok)
	assert.Same(t, global, scope.Parent())
}

func TestSingletonHoldsOne(t *testing.T) {
	scope := NewSingleton(nil, NewVariable("x", nil, nil))
	assert.Panics(t, func() { scope.Put(NewVariable("y", nil, nil)) })
}

func TestIntrinsic(t *testing.T) {
	i := NewIntrinsic("sqrt", 1, nil)
	var c Callable = i
	assert.Equal(t, 1, c.Arity())
	assert.Equal(t, IntrinsicKind, c.Kind())
	assert.Equal(t, "intrinsic", c.Kind().String())
}
