package taxonomy

import "sort"

// MemSource is an in-memory Source. Decoders fill it; tests build it directly.
type MemSource struct {
	URI         string
	ElementList []Element
	ContextList []ContextElement
	UnitList    []UnitElement
	FactList    []FactElement
	ArcList     []Arc
	Roles       map[string]string // role URI -> definition

	elements map[QName]Element
}

// NewMemSource creates an empty source for documentURI.
func NewMemSource(documentURI string) *MemSource {
	return &MemSource{URI: documentURI, Roles: make(map[string]string)}
}

// AddElement appends a taxonomy element.
func (s *MemSource) AddElement(el Element) *MemSource {
	s.ElementList = append(s.ElementList, el)
	s.elements = nil
	return s
}

// AddArc appends an arc, stamping its source position.
func (s *MemSource) AddArc(a Arc) *MemSource {
	a.Seq = len(s.ArcList)
	s.ArcList = append(s.ArcList, a)
	return s
}

// AddRole registers a role definition.
func (s *MemSource) AddRole(uri, definition string) *MemSource {
	if s.Roles == nil {
		s.Roles = make(map[string]string)
	}
	s.Roles[uri] = definition
	return s
}

// AddContext appends a context.
func (s *MemSource) AddContext(c ContextElement) *MemSource {
	s.ContextList = append(s.ContextList, c)
	return s
}

// AddUnit appends a unit.
func (s *MemSource) AddUnit(u UnitElement) *MemSource {
	s.UnitList = append(s.UnitList, u)
	return s
}

// AddFact appends a fact.
func (s *MemSource) AddFact(f FactElement) *MemSource {
	s.FactList = append(s.FactList, f)
	return s
}

func (s *MemSource) DocumentURI() string { return s.URI }
func (s *MemSource) Elements() []Element { return s.ElementList }
func (s *MemSource) Contexts() []ContextElement { return s.ContextList }
func (s *MemSource) Units() []UnitElement { return s.UnitList }
func (s *MemSource) Facts() []FactElement { return s.FactList }

// Element looks up an element by qname. Lookups match on prefix and local
// name when the namespace is absent on either side.
func (s *MemSource) Element(q QName) (Element, bool) {
	if s.elements == nil {
		s.elements = make(map[QName]Element, len(s.ElementList)*2)
		for _, el := range s.ElementList {
			s.elements[el.QName] = el
			s.elements[QName{Prefix: el.QName.Prefix, Local: el.QName.Local}] = el
		}
	}
	if el, ok := s.elements[q]; ok {
		return el, true
	}
	el, ok := s.elements[QName{Prefix: q.Prefix, Local: q.Local}]
	return el, ok
}

// Arcs returns arcs of role in source order, filtered by linkRole if set.
func (s *MemSource) Arcs(role ArcRole, linkRole string) []Arc {
	var out []Arc
	for _, a := range s.ArcList {
		if a.ArcRole != role {
			continue
		}
		if linkRole != "" && a.LinkRole != linkRole {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// RoleName resolves a role URI to its definition.
func (s *MemSource) RoleName(uri string) (string, bool) {
	name, ok := s.Roles[uri]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

var _ Source = (*MemSource)(nil)
