package domain

import "sort"

// Registry is the report-wide lookup of concepts and abstracts. Both live
// in one id space so "fact-bearing or abstract?" is a single map lookup.
// Builders receive the registry explicitly; RegisterConcept, RegisterAbstract
// and AttachFact are its only write paths.
type Registry struct {
	concepts  map[string]*Concept
	abstracts map[string]*Concept
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		concepts:  make(map[string]*Concept),
		abstracts: make(map[string]*Concept),
	}
}

// RegisterConcept adds c unless its id is already known, returning the
// registered instance.
func (r *Registry) RegisterConcept(c *Concept) *Concept {
	if c.Abstract {
		return r.RegisterAbstract(c)
	}
	if existing, ok := r.concepts[c.ID]; ok {
		return existing
	}
	r.concepts[c.ID] = c
	return c
}

// RegisterAbstract adds an abstract concept unless already known.
func (r *Registry) RegisterAbstract(c *Concept) *Concept {
	if existing, ok := r.abstracts[c.ID]; ok {
		return existing
	}
	r.abstracts[c.ID] = c
	return c
}

// AttachFact records f on its concept's fact list.
func (r *Registry) AttachFact(c *Concept, f *Fact) {
	c.attach(f)
}

// Concept returns a fact-bearing concept by id.
func (r *Registry) Concept(id string) (*Concept, bool) {
	c, ok := r.concepts[id]
	return c, ok
}

// Abstract returns an abstract concept by id.
func (r *Registry) Abstract(id string) (*Concept, bool) {
	c, ok := r.abstracts[id]
	return c, ok
}

// Lookup returns either kind of concept by id.
func (r *Registry) Lookup(id string) (*Concept, bool) {
	if c, ok := r.concepts[id]; ok {
		return c, true
	}
	c, ok := r.abstracts[id]
	return c, ok
}

// Concepts returns fact-bearing concepts sorted by id.
func (r *Registry) Concepts() []*Concept {
	return sortedConcepts(r.concepts)
}

// Abstracts returns abstract concepts sorted by id.
func (r *Registry) Abstracts() []*Concept {
	return sortedConcepts(r.abstracts)
}

func sortedConcepts(m map[string]*Concept) []*Concept {
	out := make([]*Concept, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
