package network

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/joss/xbrlgraph/internal/dimension"
	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// ErrHypercubeArcRole is returned when a hypercube is not reached by an
// all or notAll arc.
var ErrHypercubeArcRole = errors.New("hypercube has neither all nor notAll relationship")

// CubeDimension is one dimension declared by a hypercube, with the member
// values the network allows for it.
type CubeDimension struct {
	QName   string
	Members map[string]bool // member qnames, domain included
	Default string
}

// Hypercube is one dimensional table of a definition network.
type Hypercube struct {
	QName       string
	PrimaryItem string
	IsAll       bool
	Closed      bool
	Dimensions  map[string]*CubeDimension
	Concepts    map[string]*domain.Concept // by concept id
	Abstracts   map[string]*domain.Concept
	LineItems   []string // qnames of anchors that are neither concept nor abstract
}

// NewHypercube starts a hypercube from the arc that reaches it.
func NewHypercube(arc taxonomy.Arc) (*Hypercube, error) {
	hc := &Hypercube{
		QName:       arc.To.String(),
		PrimaryItem: arc.From.String(),
		Dimensions:  make(map[string]*CubeDimension),
		Concepts:    make(map[string]*domain.Concept),
		Abstracts:   make(map[string]*domain.Concept),
	}
	switch arc.ArcRole {
	case taxonomy.ArcAll:
		hc.IsAll = true
	case taxonomy.ArcNotAll:
		hc.IsAll = false
	default:
		return nil, fmt.Errorf("hypercube %s via %s: %w", hc.QName, arc.ArcRole.Short(), ErrHypercubeArcRole)
	}
	hc.Closed = parseClosed(arc.Closed)
	return hc, nil
}

func parseClosed(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return v
}

// ID is the graph identifier of the hypercube within one report network.
func (hc *Hypercube) ID(cik, reportID, networkURI string) string {
	return domain.HashID(cik, reportID, networkURI, hc.QName, hc.PrimaryItem)
}

// Declares reports whether dim is one of the hypercube's dimensions.
func (hc *Hypercube) Declares(dim string) bool {
	_, ok := hc.Dimensions[dim]
	return ok
}

// DeclaresMember reports whether member is allowed for the declared dim.
func (hc *Hypercube) DeclaresMember(dim, member string) bool {
	cd, ok := hc.Dimensions[dim]
	return ok && cd.Members[member]
}

// HasConcept reports whether the concept id is qualified by the hypercube.
func (hc *Hypercube) HasConcept(id string) bool {
	_, ok := hc.Concepts[id]
	return ok
}

// DimensionNames returns the declared dimension qnames, sorted.
func (hc *Hypercube) DimensionNames() []string {
	out := make([]string, 0, len(hc.Dimensions))
	for q := range hc.Dimensions {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// ConceptIDs returns the qualified concept ids, sorted.
func (hc *Hypercube) ConceptIDs() []string {
	out := make([]string, 0, len(hc.Concepts))
	for id := range hc.Concepts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HypercubeStats counts hypercubes that could not be built.
type HypercubeStats struct {
	Built  int
	Failed int
}

// BuildHypercubes derives the hypercubes of a definition network. Concepts
// and abstracts are matched against reg; member sets fall back to the
// filer's dimension graph when the network declares no domain for an axis.
// A hypercube that fails construction is logged and skipped.
func BuildHypercubes(src taxonomy.Source, net *Network, reg *domain.Registry, dims *dimension.Graph, log *logging.Logger) ([]*Hypercube, HypercubeStats) {
	if log == nil {
		log = logging.Nop()
	}
	var stats HypercubeStats
	b := &cubeBuilder{
		src:      src,
		reg:      reg,
		dims:     dims,
		hcDims:   indexArcs(src.Arcs(taxonomy.ArcHypercubeDimension, net.URI)),
		domains:  indexArcs(src.Arcs(taxonomy.ArcDimensionDomain, net.URI)),
		members:  indexArcs(src.Arcs(taxonomy.ArcDomainMember, net.URI)),
		defaults: indexArcs(src.Arcs(taxonomy.ArcDimensionDefault, net.URI)),
	}

	var anchors []taxonomy.Arc
	anchors = append(anchors, src.Arcs(taxonomy.ArcAll, net.URI)...)
	anchors = append(anchors, src.Arcs(taxonomy.ArcNotAll, net.URI)...)
	sort.SliceStable(anchors, func(i, j int) bool { return anchors[i].Seq < anchors[j].Seq })

	reached := make(map[string]bool)
	var out []*Hypercube
	for _, arc := range anchors {
		if el, ok := src.Element(arc.To); ok && taxonomy.Classify(&el) != taxonomy.CategoryHypercube {
			log.Debug("hypercube_target_skipped", map[string]any{"network": net.Name, "target": arc.To.String()})
			continue
		}
		reached[arc.To.String()] = true
		hc, err := NewHypercube(arc)
		if err != nil {
			stats.Failed++
			log.Warn("hypercube_skipped", map[string]any{"network": net.Name, "hypercube": arc.To.String()}, err)
			continue
		}
		b.fillDimensions(hc)
		b.fillConcepts(hc, arc.From)
		out = append(out, hc)
		stats.Built++
	}

	// Tables declaring dimensions without an all or notAll arc cannot be
	// given semantics.
	var orphans []string
	for q := range b.hcDims {
		if !reached[q] {
			orphans = append(orphans, q)
		}
	}
	sort.Strings(orphans)
	for _, q := range orphans {
		stats.Failed++
		log.Warn("hypercube_skipped", map[string]any{"network": net.Name, "hypercube": q},
			fmt.Errorf("hypercube %s: %w", q, ErrHypercubeArcRole))
	}

	return out, stats
}

type cubeBuilder struct {
	src      taxonomy.Source
	reg      *domain.Registry
	dims     *dimension.Graph
	hcDims   map[string][]taxonomy.Arc
	domains  map[string][]taxonomy.Arc
	members  map[string][]taxonomy.Arc
	defaults map[string][]taxonomy.Arc
}

func (b *cubeBuilder) fillDimensions(hc *Hypercube) {
	for _, arc := range b.hcDims[hc.QName] {
		q := arc.To.String()
		cd := &CubeDimension{QName: q, Members: make(map[string]bool)}

		if doms := b.domains[q]; len(doms) > 0 {
			root := doms[0].To.String()
			cd.Members[root] = true
			b.walk(root, map[string]bool{root: true}, func(child taxonomy.QName) {
				cd.Members[child.String()] = true
			})
		} else if b.dims != nil {
			if d, ok := b.dims.Dimension(q); ok {
				if d.Domain != nil {
					cd.Members[d.Domain.QName] = true
				}
				for mq := range d.Members {
					cd.Members[mq] = true
				}
			}
		}

		if defs := b.defaults[q]; len(defs) > 0 {
			cd.Default = defs[0].To.String()
		} else if b.dims != nil {
			if m, ok := b.dims.DefaultMember(q); ok {
				cd.Default = m.QName
			}
		}
		if cd.Default != "" {
			cd.Members[cd.Default] = true
		}
		hc.Dimensions[q] = cd
	}
}

func (b *cubeBuilder) fillConcepts(hc *Hypercube, anchor taxonomy.QName) {
	lineItems := make(map[string]bool)
	visit := func(q taxonomy.QName) {
		id := q.ID()
		if b.reg != nil {
			if c, ok := b.reg.Concept(id); ok {
				hc.Concepts[id] = c
				return
			}
			if a, ok := b.reg.Abstract(id); ok {
				hc.Abstracts[id] = a
				return
			}
		}
		if el, ok := b.src.Element(q); ok && el.Abstract {
			lineItems[q.String()] = true
		}
	}
	visit(anchor)
	b.walk(anchor.String(), map[string]bool{anchor.String(): true}, visit)

	for q := range lineItems {
		hc.LineItems = append(hc.LineItems, q)
	}
	sort.Strings(hc.LineItems)
}

// walk visits every domain-member descendant of from once.
func (b *cubeBuilder) walk(from string, seen map[string]bool, visit func(taxonomy.QName)) {
	for _, arc := range b.members[from] {
		child := arc.To.String()
		if seen[child] {
			continue
		}
		seen[child] = true
		visit(arc.To)
		b.walk(child, seen, visit)
	}
}

func indexArcs(arcs []taxonomy.Arc) map[string][]taxonomy.Arc {
	out := make(map[string][]taxonomy.Arc)
	for _, a := range arcs {
		k := a.From.String()
		out[k] = append(out[k], a)
	}
	return out
}
