package jit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/thiremani/calculon/symbols"
	"github.com/thiremani/calculon/types"
)

// slot is a value's place in the Invoke frame: lanes consecutive reals
// starting at offset. Booleans are stored as 0 or 1.
type slot struct {
	name     string
	typeName string
	kind     types.Kind
	lanes    int
	offset   int
}

func (s *slot) put(frame []float64, v any) error {
	switch s.kind {
	case types.RealKind:
		switch v := v.(type) {
		case float64:
			frame[s.offset] = v
		case float32:
			frame[s.offset] = float64(v)
		case int:
			frame[s.offset] = float64(v)
		default:
			return fmt.Errorf("expected a real, got %T", v)
		}
	case types.BooleanKind:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		frame[s.offset] = 0
		if b {
			frame[s.offset] = 1
		}
	case types.VectorKind:
		var lanes []float64
		switch v := v.(type) {
		case []float64:
			lanes = v
		case []float32:
			lanes = make([]float64, len(v))
			for i, f := range v {
				lanes[i] = float64(f)
			}
		default:
			return fmt.Errorf("expected a %s, got %T", s.typeName, v)
		}
		if len(lanes) != s.lanes {
			return fmt.Errorf("expected a %s, got %d lanes", s.typeName, len(lanes))
		}
		copy(frame[s.offset:], lanes)
	}
	return nil
}

func (s *slot) get(frame []float64) any {
	switch s.kind {
	case types.BooleanKind:
		return frame[s.offset] != 0
	case types.VectorKind:
		return slices.Clone(frame[s.offset : s.offset+s.lanes])
	}
	return frame[s.offset]
}

// layout is the frame of a program: the result in expression mode, then the
// parameters, then the outputs.
type layout struct {
	ret     *slot
	params  []slot
	outputs []slot
	size    int
}

func newLayout(top *symbols.Toplevel) *layout {
	l := &layout{}
	add := func(name string, t *types.Type) slot {
		s := slot{name: name, typeName: t.Name(), kind: t.Kind(), lanes: t.Arity(), offset: l.size}
		l.size += t.Arity()
		return s
	}
	if top.ExpressionMode() {
		s := add("result", top.ReturnType)
		l.ret = &s
	}
	for _, p := range top.Params {
		l.params = append(l.params, add(p.Name(), p.Type))
	}
	for _, o := range top.Outputs {
		l.outputs = append(l.outputs, add(o.Name(), o.Type))
	}
	return l
}

// Param is a named, typed parameter or output.
type Param struct {
	Name string
	Type string
}

// Signature describes the host interface of a compiled program. Return is
// set in expression mode.
type Signature struct {
	Params  []Param
	Outputs []Param
	Return  string
}

func (s Signature) String() string {
	join := func(ps []Param) string {
		parts := make([]string, len(ps))
		for i, p := range ps {
			parts[i] = p.Name + ": " + p.Type
		}
		return strings.Join(parts, ", ")
	}
	str := "(" + join(s.Params) + ")"
	switch {
	case s.Return != "":
		str += ": " + s.Return
	case len(s.Outputs) > 0:
		str += ": (" + join(s.Outputs) + ")"
	}
	return str
}

func (l *layout) signature() Signature {
	var sig Signature
	for _, p := range l.params {
		sig.Params = append(sig.Params, Param{Name: p.name, Type: p.typeName})
	}
	for _, o := range l.outputs {
		sig.Outputs = append(sig.Outputs, Param{Name: o.name, Type: o.typeName})
	}
	if l.ret != nil {
		sig.Return = l.ret.typeName
	}
	return sig
}
