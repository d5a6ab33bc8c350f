// Package dimension builds the taxonomy-wide dimension graph of one filer:
// every dimension with its domain, member hierarchy and default member.
// The graph is independent of any single report. Once built it is read-only
// and may be shared by every report of the same filer.
package dimension

import (
	"sort"

	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// ArcSource is the part of the taxonomy engine the builder reads.
type ArcSource interface {
	Elements() []taxonomy.Element
	Arcs(role taxonomy.ArcRole, linkRole string) []taxonomy.Arc
}

// Graph holds every dimension of one filer keyed by dimension qname.
type Graph struct {
	CIK        string
	dimensions map[string]*domain.Dimension
	// Cycles counts domain-member edges skipped because they closed a loop.
	Cycles int
}

// Build walks the taxonomy once and returns the filer's dimension graph.
func Build(src ArcSource, cik string, log *logging.Logger) *Graph {
	if log == nil {
		log = logging.Nop()
	}
	g := &Graph{CIK: cik, dimensions: make(map[string]*domain.Dimension)}

	domainArcs := indexByFrom(src.Arcs(taxonomy.ArcDimensionDomain, ""))
	memberArcs := indexByFrom(src.Arcs(taxonomy.ArcDomainMember, ""))
	defaultArcs := indexByFrom(src.Arcs(taxonomy.ArcDimensionDefault, ""))

	for _, el := range src.Elements() {
		el := el
		if taxonomy.Classify(&el) != taxonomy.CategoryDimension {
			continue
		}
		qname := el.QName.String()
		dim := domain.NewDimension(cik, qname)
		dim.Label = el.Label
		dim.Typed = el.TypedDomainRef != ""
		dim.Explicit = !dim.Typed

		if arcs := domainArcs[qname]; len(arcs) > 0 {
			dom := domain.NewDomain(cik, qname, arcs[0].To.String())
			dim.Domain = dom
			g.Cycles += walkMembers(dim, dom.QName, 0, memberArcs, map[string]bool{dom.QName: true}, log)
		}

		if arcs := defaultArcs[qname]; len(arcs) > 0 {
			def := arcs[0].To.String()
			if m, ok := dim.Member(def); ok {
				dim.Default = m
			} else {
				parent := ""
				if dim.Domain != nil {
					parent = dim.Domain.QName
				}
				m := domain.NewMember(cik, qname, def, parent, 1)
				dim.AddMember(m)
				dim.Default = m
			}
		}

		g.dimensions[qname] = dim
	}

	log.Info("dimension_graph_built", map[string]any{
		"cik":        cik,
		"dimensions": len(g.dimensions),
		"cycles":     g.Cycles,
	})
	return g
}

// walkMembers adds the children of parent recursively and returns the number
// of edges skipped because they revisited a member on the current path.
func walkMembers(dim *domain.Dimension, parent string, level int, arcs map[string][]taxonomy.Arc, onPath map[string]bool, log *logging.Logger) int {
	skipped := 0
	for _, arc := range arcs[parent] {
		child := arc.To.String()
		if onPath[child] {
			log.Warn("member_cycle", map[string]any{
				"dimension": dim.QName,
				"parent":    parent,
				"child":     child,
			}, nil)
			skipped++
			continue
		}
		m := domain.NewMember(dim.CIK, dim.QName, child, parent, level+1)
		if !dim.AddMember(m) {
			continue
		}
		onPath[child] = true
		skipped += walkMembers(dim, child, level+1, arcs, onPath, log)
		delete(onPath, child)
	}
	return skipped
}

func indexByFrom(arcs []taxonomy.Arc) map[string][]taxonomy.Arc {
	out := make(map[string][]taxonomy.Arc)
	for _, a := range arcs {
		k := a.From.String()
		out[k] = append(out[k], a)
	}
	return out
}

// Dimension returns the dimension named qname.
func (g *Graph) Dimension(qname string) (*domain.Dimension, bool) {
	d, ok := g.dimensions[qname]
	return d, ok
}

// Dimensions returns every dimension sorted by qname.
func (g *Graph) Dimensions() []*domain.Dimension {
	out := make([]*domain.Dimension, 0, len(g.dimensions))
	for _, d := range g.dimensions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QName < out[j].QName })
	return out
}

// Len returns the number of dimensions.
func (g *Graph) Len() int {
	return len(g.dimensions)
}

// IsValidMember reports whether member is a known value of dimension.
func (g *Graph) IsValidMember(dimension, member string) bool {
	d, ok := g.dimensions[dimension]
	if !ok {
		return false
	}
	return d.HasMember(member)
}

// DefaultMember returns the default member of dimension, if any.
func (g *Graph) DefaultMember(dimension string) (*domain.Member, bool) {
	d, ok := g.dimensions[dimension]
	if !ok || d.Default == nil {
		return nil, false
	}
	return d.Default, true
}

// DimensionDomainRelationships returns dimension -> domain edges.
func (g *Graph) DimensionDomainRelationships() []domain.Relationship {
	var out []domain.Relationship
	for _, d := range g.Dimensions() {
		if d.Domain == nil {
			continue
		}
		out = append(out, domain.Relationship{From: d.ID, To: d.Domain.ID, Type: domain.RelHasDomain})
	}
	return out
}

// DimensionMemberRelationships returns domain -> top-level member edges.
// Members with a parent below the domain are covered by the hierarchy edges.
func (g *Graph) DimensionMemberRelationships() []domain.Relationship {
	var out []domain.Relationship
	for _, d := range g.Dimensions() {
		if d.Domain == nil {
			continue
		}
		for _, m := range d.SortedMembers() {
			if m.Parent != d.Domain.QName {
				continue
			}
			out = append(out, domain.Relationship{From: d.Domain.ID, To: m.ID, Type: domain.RelHasMember})
		}
	}
	return out
}

// MemberHierarchyRelationships returns parent member -> child member edges.
func (g *Graph) MemberHierarchyRelationships() []domain.Relationship {
	var out []domain.Relationship
	for _, d := range g.Dimensions() {
		for _, m := range d.SortedMembers() {
			if m.Parent == "" || (d.Domain != nil && m.Parent == d.Domain.QName) {
				continue
			}
			parent, ok := d.Member(m.Parent)
			if !ok {
				continue
			}
			out = append(out, domain.Relationship{From: parent.ID, To: m.ID, Type: domain.RelParentOf})
		}
	}
	return out
}

// DefaultRelationships returns dimension -> default member edges.
func (g *Graph) DefaultRelationships() []domain.Relationship {
	var out []domain.Relationship
	for _, d := range g.Dimensions() {
		if d.Default == nil {
			continue
		}
		out = append(out, domain.Relationship{From: d.ID, To: d.Default.ID, Type: domain.RelHasDefault})
	}
	return out
}
