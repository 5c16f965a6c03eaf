package instrument

import (
	"fmt"
)

// Registry maps instrument names to their scorers
type Registry struct {
	order   []string
	scorers map[string]Scorer
}

// NewRegistry builds a registry of the given scorers. Duplicate names are
// rejected.
func NewRegistry(scorers ...Scorer) (*Registry, error) {
	r := &Registry{scorers: make(map[string]Scorer, len(scorers))}
	for _, s := range scorers {
		name := s.Name()
		if name == "" {
			return nil, fmt.Errorf("scorer %T has no name", s)
		}
		if _, dup := r.scorers[name]; dup {
			return nil, fmt.Errorf("duplicate scorer for %s", name)
		}
		r.scorers[name] = s
		r.order = append(r.order, name)
	}
	return r, nil
}

// Default returns the registry of all ten supported instruments
func Default() *Registry {
	r, err := NewRegistry(
		whodas{}, whodasKids{}, cans{}, honos{}, lsp{},
		lawton{}, bbs{}, lefs{}, frat{}, casp{},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the scorer for name
func (r *Registry) Lookup(name string) (Scorer, error) {
	s, ok := r.scorers[name]
	if !ok {
		return nil, fmt.Errorf("unknown instrument %q", name)
	}
	return s, nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.scorers[name]
	return ok
}

// Names returns registered names in registration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
