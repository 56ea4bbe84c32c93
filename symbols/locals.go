package symbols

import "iter"

// Locals is an insertion-ordered map from home variable to local proxy.
// The order fixes the upvalue parameter order of a function and the
// argument order at each of its call sites.
type Locals struct {
	homes   []*Variable
	proxies map[*Variable]*Variable
}

func NewLocals() *Locals {
	return &Locals{proxies: make(map[*Variable]*Variable)}
}

// Put inserts home -> proxy. Re-inserting an existing home keeps its
// original position.
func (l *Locals) Put(home, proxy *Variable) {
	if _, ok := l.proxies[home]; !ok {
		l.homes = append(l.homes, home)
	}
	l.proxies[home] = proxy
}

func (l *Locals) Get(home *Variable) (*Variable, bool) {
	p, ok := l.proxies[home]
	return p, ok
}

func (l *Locals) Len() int {
	return len(l.homes)
}

// All iterates home/proxy pairs in insertion order.
func (l *Locals) All() iter.Seq2[*Variable, *Variable] {
	return func(yield func(*Variable, *Variable) bool) {
		for _, h := range l.homes {
			if !yield(h, l.proxies[h]) {
				return
			}
		}
	}
}

// Upvalues returns the homes whose proxy is distinct, in insertion order.
func (l *Locals) Upvalues() []*Variable {
	var ups []*Variable
	for home, proxy := range l.All() {
		if home != proxy {
			ups = append(ups, home)
		}
	}
	return ups
}
