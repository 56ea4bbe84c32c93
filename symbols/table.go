package symbols

type ScopeKind int

const (
	// SingletonScope holds the one symbol a definition introduces.
	SingletonScope ScopeKind = iota
	// MultipleScope holds a function's parameters, or the globals.
	MultipleScope
)

// Table is one scope in a chain. Lookup walks from the innermost scope
// outward so inner definitions shadow outer ones.
type Table struct {
	Elems     map[string]Symbol
	ScopeKind ScopeKind
	parent    *Table
}

func NewTable(parent *Table, sk ScopeKind) *Table {
	return &Table{
		Elems:     make(map[string]Symbol),
		ScopeKind: sk,
		parent:    parent,
	}
}

// NewSingleton creates a scope holding only sym.
func NewSingleton(parent *Table, sym Symbol) *Table {
	t := NewTable(parent, SingletonScope)
	t.Put(sym)
	return t
}

func (t *Table) Parent() *Table {
	return t.parent
}

// Put adds sym to this scope. It returns false if the name is already
// bound here.
func (t *Table) Put(sym Symbol) bool {
	if t.ScopeKind == SingletonScope && len(t.Elems) > 0 {
		panic("singleton scope already holds a symbol")
	}
	if _, ok := t.Elems[sym.Name()]; ok {
		return false
	}
	t.Elems[sym.Name()] = sym
	return true
}

func (t *Table) Get(name string) (Symbol, bool) {
	for s := t; s != nil; s = s.parent {
		if e, ok := s.Elems[name]; ok {
			return e, true
		}
	}
	return nil, false
}
