package vm

import "xdtrace/internal/host"

// Scope is an insertion-ordered binding table. Frames expose their Scope to
// the instrumentation hook directly, so lookups observe live values.
type Scope struct {
	names []string
	vals  map[string]Value
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{vals: make(map[string]Value)}
}

// Lookup implements host.Bindings.
func (s *Scope) Lookup(name string) (host.Value, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.vals[name]
	return v, ok
}

// Store implements host.Namespace.
func (s *Scope) Store(name string, v host.Value) {
	if _, ok := s.vals[name]; !ok {
		s.names = append(s.names, name)
	}
	s.vals[name] = v
}

// Delete removes name; it reports whether the binding existed.
func (s *Scope) Delete(name string) bool {
	if _, ok := s.vals[name]; !ok {
		return false
	}
	delete(s.vals, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the bound names in insertion order.
func (s *Scope) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of bindings.
func (s *Scope) Len() int { return len(s.names) }
