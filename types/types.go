package types

import (
	"fmt"
	"strconv"
	"strings"

	"tinygo.org/x/go-llvm"
)

// MaxArity is the largest vector arity a program may use.
const MaxArity = 1 << 10

type Kind int

const (
	RealKind Kind = iota
	BooleanKind
	VectorKind
)

// RealWidth selects the floating point representation of Real.
type RealWidth int

const (
	F64 RealWidth = iota
	F32
)

func (w RealWidth) String() string {
	if w == F32 {
		return "float"
	}
	return "double"
}

// ParseRealWidth accepts "double"/"f64" and "float"/"f32".
func ParseRealWidth(s string) (RealWidth, error) {
	switch strings.ToLower(s) {
	case "", "double", "f64":
		return F64, nil
	case "float", "f32":
		return F32, nil
	}
	return F64, fmt.Errorf("unknown real type %q (want double or float)", s)
}

// Type is a catalogue entry. Entries are compared by pointer identity.
type Type struct {
	kind     Kind
	arity    int
	name     string
	internal llvm.Type
	external llvm.Type
}

func (t *Type) Kind() Kind { return t.kind }

// Arity is the lane count of a vector and 1 for scalars.
func (t *Type) Arity() int { return t.arity }

func (t *Type) Name() string { return t.name }

func (t *Type) String() string { return t.name }

func (t *Type) IsVector() bool { return t.kind == VectorKind }

// Internal is the representation used inside generated code.
func (t *Type) Internal() llvm.Type { return t.internal }

// External is the host calling-convention representation. Vectors are
// passed by address.
func (t *Type) External() llvm.Type { return t.external }

// Catalogue owns the types of one compilation.
type Catalogue struct {
	ctx     llvm.Context
	width   RealWidth
	real    *Type
	boolean *Type
	vectors map[int]*Type
	byLLVM  map[llvm.Type]*Type
}

func NewCatalogue(ctx llvm.Context, width RealWidth) *Catalogue {
	c := &Catalogue{
		ctx:     ctx,
		width:   width,
		vectors: make(map[int]*Type),
		byLLVM:  make(map[llvm.Type]*Type),
	}

	realLLVM := ctx.DoubleType()
	if width == F32 {
		realLLVM = ctx.FloatType()
	}
	c.real = c.add(&Type{kind: RealKind, arity: 1, name: realName, internal: realLLVM, external: realLLVM})
	i1 := ctx.Int1Type()
	c.boolean = c.add(&Type{kind: BooleanKind, arity: 1, name: booleanName, internal: i1, external: i1})
	return c
}

func (c *Catalogue) add(t *Type) *Type {
	c.byLLVM[t.internal] = t
	return t
}

func (c *Catalogue) Context() llvm.Context { return c.ctx }

func (c *Catalogue) Width() RealWidth { return c.width }

func (c *Catalogue) Real() *Type { return c.real }

func (c *Catalogue) Boolean() *Type { return c.boolean }

// Vector interns the vector type of arity n. n must be in [1, MaxArity].
func (c *Catalogue) Vector(n int) *Type {
	if t, ok := c.vectors[n]; ok {
		return t
	}
	if n < 1 || n > MaxArity {
		panic("vector arity out of range: " + strconv.Itoa(n))
	}
	internal := llvm.VectorType(c.real.internal, n)
	t := c.add(&Type{
		kind:     VectorKind,
		arity:    n,
		name:     VectorName(n),
		internal: internal,
		external: llvm.PointerType(c.real.internal, 0),
	})
	c.vectors[n] = t
	return t
}

// Find maps an internal representation back to its catalogue entry.
func (c *Catalogue) Find(t llvm.Type) (*Type, bool) {
	if typ, ok := c.byLLVM[t]; ok {
		return typ, true
	}
	if t.TypeKind() == llvm.VectorTypeKind && t.ElementType() == c.real.internal {
		return c.Vector(t.VectorSize()), true
	}
	return nil, false
}

// MustFind is Find for values produced by the compiler itself.
func (c *Catalogue) MustFind(t llvm.Type) *Type {
	typ, ok := c.Find(t)
	if !ok {
		panic("internal error: no catalogue type for " + t.String())
	}
	return typ
}

// Lookup resolves a source-level type name such as "real" or "vector*4".
// A bare "vector" means a three-lane vector.
func (c *Catalogue) Lookup(name string) (*Type, error) {
	switch name {
	case realName:
		return c.real, nil
	case booleanName:
		return c.boolean, nil
	case vectorName:
		return c.Vector(3), nil
	}
	if rest, ok := strings.CutPrefix(name, vectorName+"*"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid vector arity in type '%s'", name)
		}
		if n > MaxArity {
			return nil, fmt.Errorf("vector arity in type '%s' exceeds the maximum of %d", name, MaxArity)
		}
		return c.Vector(n), nil
	}
	return nil, fmt.Errorf("unknown type '%s'", name)
}

func VectorName(n int) string {
	return vectorName + "*" + strconv.Itoa(n)
}

// Describe returns the type name with an indefinite article, as used in
// diagnostics ("a real", "a vector*3").
func Describe(t *Type) string {
	if t == nil {
		return "an unknown type"
	}
	switch t.name[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + t.name
	}
	return "a " + t.name
}
