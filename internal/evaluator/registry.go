package evaluator

import "sort"

// Callback implements a builtin. It works directly on the evaluator's state
// and reports bad input through State.Logf, never by panicking.
type Callback func(e *Evaluator)

// Registry is one interpreter's builtin table. The lexer resolves names to
// indices through Lookup, so indices are stable once registered.
type Registry struct {
	names []string
	fns   []Callback
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds fn under name, replacing an existing entry in place.
func (r *Registry) Register(name string, fn Callback) int {
	if idx, ok := r.index[name]; ok {
		r.fns[idx] = fn
		return idx
	}
	idx := len(r.fns)
	r.names = append(r.names, name)
	r.fns = append(r.fns, fn)
	r.index[name] = idx
	return idx
}

func (r *Registry) Lookup(name string) (int, bool) {
	idx, ok := r.index[name]
	return idx, ok
}

func (r *Registry) Get(idx int) (Callback, string, bool) {
	if idx < 0 || idx >= len(r.fns) {
		return nil, "", false
	}
	return r.fns[idx], r.names[idx], true
}

// Clone returns an independent copy with the same indices.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		names: append([]string(nil), r.names...),
		fns:   append([]Callback(nil), r.fns...),
		index: make(map[string]int, len(r.index)),
	}
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	out := append([]string(nil), r.names...)
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int { return len(r.fns) }
