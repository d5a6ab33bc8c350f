// Package validate decides which facts belong to a network under its
// hypercubes, and reconciles calculation networks against their facts.
package validate

import (
	"sort"

	"github.com/joss/xbrlgraph/internal/dimension"
	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/network"
)

// Reason names the stage that rejected a fact.
type Reason string

const (
	ReasonOutsideHypercube Reason = "dimensioned_outside_hypercube"
	ReasonNoDefault        Reason = "no_default_member"
	ReasonClosed           Reason = "closed_hypercube"
	ReasonMissingDimension Reason = "missing_dimension"
	ReasonInvalidMember    Reason = "invalid_member"
	ReasonUnknownMember    Reason = "unknown_member"
)

// Result is the validated fact set of one network hierarchy.
type Result struct {
	Network    string
	Kind       network.Kind
	Candidates int
	Valid      []*domain.Fact
	Rejected   map[Reason]int
	// Completed holds the default-completed dimensions of facts whose
	// context named a dimension without a member.
	Completed map[string][]domain.DimensionMember

	byConcept map[string][]*domain.Fact
	byID      map[string]bool
}

func newResult(net *network.Network, kind network.Kind) *Result {
	return &Result{
		Network:   net.Name,
		Kind:      kind,
		Rejected:  make(map[Reason]int),
		Completed: make(map[string][]domain.DimensionMember),
		byConcept: make(map[string][]*domain.Fact),
		byID:      make(map[string]bool),
	}
}

func (r *Result) accept(f *domain.Fact) {
	r.Valid = append(r.Valid, f)
	r.byConcept[f.ConceptID] = append(r.byConcept[f.ConceptID], f)
	r.byID[f.ID] = true
}

// FactsFor returns the valid facts of one concept.
func (r *Result) FactsFor(conceptID string) []*domain.Fact {
	return r.byConcept[conceptID]
}

// Contains reports whether the fact id was validated.
func (r *Result) Contains(id string) bool {
	return r.byID[id]
}

// RejectedTotal sums the rejection counts.
func (r *Result) RejectedTotal() int {
	n := 0
	for _, c := range r.Rejected {
		n += c
	}
	return n
}

// Engine validates facts against network hypercubes using the filer's
// dimension graph.
type Engine struct {
	dims   *dimension.Graph
	filter func(*domain.Fact) bool
	log    *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFilter restricts candidates, e.g. to primary facts.
func WithFilter(fn func(*domain.Fact) bool) Option {
	return func(e *Engine) { e.filter = fn }
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine. dims may be nil when the filer has no
// dimensions; extra-dimension members then never resolve.
func NewEngine(dims *dimension.Graph, opts ...Option) *Engine {
	e := &Engine{dims: dims, log: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dimensions returns the dimension graph the engine validates against.
func (e *Engine) Dimensions() *dimension.Graph {
	return e.dims
}

// Validate returns the facts that legitimately belong to net's hierarchy h.
// Input facts are never modified.
func (e *Engine) Validate(net *network.Network, h *network.Hierarchy, reg *domain.Registry) *Result {
	res := newResult(net, h.Kind)
	candidates := e.candidates(h, reg)
	res.Candidates = len(candidates)

	inCube := make(map[string]bool)
	for _, hc := range net.Hypercubes {
		for id := range hc.Concepts {
			inCube[id] = true
		}
	}

	for _, f := range candidates {
		if !inCube[f.ConceptID] {
			if f.HasDimensions() {
				res.Rejected[ReasonOutsideHypercube]++
				continue
			}
			res.accept(f)
			continue
		}

		completed, ok := e.complete(f, net.Hypercubes)
		if !ok {
			res.Rejected[ReasonNoDefault]++
			continue
		}
		if completed != f {
			res.Completed[f.ID] = completed.Dimensions
		}

		if reason := e.check(completed, cubesFor(f.ConceptID, net.Hypercubes)); reason != "" {
			res.Rejected[reason]++
			continue
		}
		res.accept(f)
	}

	e.log.Debug("network_validated", map[string]any{
		"network":    net.Name,
		"kind":       string(h.Kind),
		"candidates": res.Candidates,
		"valid":      len(res.Valid),
		"rejected":   res.RejectedTotal(),
	})
	return res
}

// candidates collects the facts of every non-abstract concept in h.
func (e *Engine) candidates(h *network.Hierarchy, reg *domain.Registry) []*domain.Fact {
	var out []*domain.Fact
	seen := make(map[string]bool)
	for _, id := range h.ConceptIDs() {
		c, ok := reg.Concept(id)
		if !ok {
			continue
		}
		for _, f := range c.Facts() {
			if seen[f.ID] {
				continue
			}
			if e.filter != nil && !e.filter(f) {
				continue
			}
			seen[f.ID] = true
			out = append(out, f)
		}
	}
	return out
}

// complete substitutes default members for dimensions asserted without a
// member. It returns f itself when nothing needed completing, and false if
// some dimension has no default.
func (e *Engine) complete(f *domain.Fact, cubes []*network.Hypercube) (*domain.Fact, bool) {
	needs := false
	for _, dm := range f.Dimensions {
		if !dm.HasMember() {
			needs = true
			break
		}
	}
	if !needs {
		return f, true
	}

	dims := make([]domain.DimensionMember, len(f.Dimensions))
	for i, dm := range f.Dimensions {
		if !dm.HasMember() {
			def := e.defaultMember(dm.Dimension, cubes)
			if def == "" {
				return nil, false
			}
			dm.Member = def
		}
		dims[i] = dm
	}
	return f.WithDimensions(dims), true
}

func (e *Engine) defaultMember(dim string, cubes []*network.Hypercube) string {
	if e.dims != nil {
		if m, ok := e.dims.DefaultMember(dim); ok {
			return m.QName
		}
	}
	for _, hc := range cubes {
		if cd, ok := hc.Dimensions[dim]; ok && cd.Default != "" {
			return cd.Default
		}
	}
	return ""
}

// check runs the closed, all-dimensions and member stages in order over
// every hypercube that qualifies the fact's concept.
func (e *Engine) check(f *domain.Fact, cubes []*network.Hypercube) Reason {
	asserted := f.DimensionSet()

	for _, hc := range cubes {
		if !hc.Closed {
			continue
		}
		for d := range asserted {
			if !hc.Declares(d) {
				return ReasonClosed
			}
		}
	}

	for _, hc := range cubes {
		if !hc.IsAll {
			continue
		}
		// Only dimensions the fact names were default-completed; an
		// unnamed one is missing even when it has a default.
		for q := range hc.Dimensions {
			if _, ok := asserted[q]; !ok {
				return ReasonMissingDimension
			}
		}
	}

	for _, hc := range cubes {
		for _, dm := range f.Dimensions {
			if hc.Declares(dm.Dimension) {
				if !hc.DeclaresMember(dm.Dimension, dm.Member) {
					return ReasonInvalidMember
				}
				continue
			}
			if e.dims == nil || !e.dims.IsValidMember(dm.Dimension, dm.Member) {
				return ReasonUnknownMember
			}
		}
	}
	return ""
}

func cubesFor(conceptID string, cubes []*network.Hypercube) []*network.Hypercube {
	var out []*network.Hypercube
	for _, hc := range cubes {
		if hc.HasConcept(conceptID) {
			out = append(out, hc)
		}
	}
	return out
}

// SortedReasons returns the rejection reasons with non-zero counts.
func (r *Result) SortedReasons() []Reason {
	out := make([]Reason, 0, len(r.Rejected))
	for reason, n := range r.Rejected {
		if n > 0 {
			out = append(out, reason)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
