// Package report builds the per-report aggregate: periods, units, canonical
// contexts and facts, the concept registry that owns them, and the primary
// fact selection. One Report belongs to exactly one processing run.
package report

import (
	"sort"

	"github.com/joss/xbrlgraph/internal/dimension"
	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// Meta identifies the filing. CIK is required; it is never derived from the
// document path.
type Meta struct {
	CIK            string `json:"cik" yaml:"cik"`
	ReportID       string `json:"report_id" yaml:"report_id"`
	FormType       string `json:"form_type,omitempty" yaml:"form_type,omitempty"`
	PeriodOfReport string `json:"period_of_report,omitempty" yaml:"period_of_report,omitempty"`
}

// Stats counts lookup misses and construction failures. None of them stop
// the build.
type Stats struct {
	Facts            int `json:"facts"`
	Primary          int `json:"primary"`
	Duplicates       int `json:"duplicates"`
	MissingConcept   int `json:"missing_concept"`
	AbstractFact     int `json:"abstract_fact"`
	MissingContext   int `json:"missing_context"`
	MissingUnit      int `json:"missing_unit"`
	InvalidPeriod    int `json:"invalid_period"`
	UnresolvedMember int `json:"unresolved_member"`
}

// Report is the aggregate root of one filing.
type Report struct {
	Meta        Meta
	ID          string
	DocumentURI string
	Registry    *domain.Registry
	Stats       Stats

	periods  map[string]*domain.Period
	units    map[string]*domain.Unit    // raw unit id -> unit
	contexts map[string]*domain.Context // canonical id -> context
	rawCtx   map[string]*domain.Context // raw context id -> context
	facts    []*domain.Fact
	byID     map[string]*domain.Fact
	dedup    *Deduplicator
	log      *logging.Logger
}

// Build converts the source's contexts, units and facts into entities and
// selects primary facts. Elements that fail to convert are logged, counted
// and skipped.
func Build(src taxonomy.Source, meta Meta, log *logging.Logger) *Report {
	if log == nil {
		log = logging.Nop()
	}
	if meta.CIK == "" {
		meta.CIK = entityFromContexts(src.Contexts())
	}
	id := meta.ReportID
	if id == "" {
		id = domain.HashID(meta.CIK, src.DocumentURI())
		meta.ReportID = id
	}

	r := &Report{
		Meta:        meta,
		ID:          id,
		DocumentURI: src.DocumentURI(),
		Registry:    domain.NewRegistry(),
		periods:     make(map[string]*domain.Period),
		units:       make(map[string]*domain.Unit),
		contexts:    make(map[string]*domain.Context),
		rawCtx:      make(map[string]*domain.Context),
		byID:        make(map[string]*domain.Fact),
		dedup:       NewDeduplicator(),
		log:         log.WithReport(meta.CIK, id),
	}

	r.buildContexts(src.Contexts())
	r.buildUnits(src.Units())
	r.buildFacts(src)
	r.dedup.AddAll(r.facts)

	r.Stats.Facts = len(r.facts)
	r.Stats.Primary = r.dedup.Primaries()
	r.Stats.Duplicates = r.dedup.Duplicates()

	r.log.Info("report_built", map[string]any{
		"facts":           r.Stats.Facts,
		"primary":         r.Stats.Primary,
		"duplicates":      r.Stats.Duplicates,
		"contexts":        len(r.contexts),
		"periods":         len(r.periods),
		"units":           len(r.units),
		"missing_concept": r.Stats.MissingConcept,
		"missing_context": r.Stats.MissingContext,
	})
	return r
}

// entityFromContexts falls back to the entity identifier the contexts carry.
func entityFromContexts(ctxs []taxonomy.ContextElement) string {
	for _, c := range ctxs {
		if c.EntityID != "" {
			return c.EntityID
		}
	}
	return ""
}

func (r *Report) buildContexts(ctxs []taxonomy.ContextElement) {
	for _, ce := range ctxs {
		p, err := periodOf(ce)
		if err != nil {
			r.Stats.InvalidPeriod++
			r.log.Warn("context_skipped", map[string]any{"context": ce.ID}, err)
			continue
		}
		if existing, ok := r.periods[p.ID]; ok {
			p = existing
		} else {
			r.periods[p.ID] = p
		}

		dims := make([]string, 0, len(ce.Dimensions))
		members := make([]string, 0, len(ce.Dimensions))
		for _, dv := range ce.Dimensions {
			dim := dv.Dimension.String()
			dims = append(dims, domain.DimensionID(r.Meta.CIK, dim))
			switch {
			case !dv.Member.IsZero():
				members = append(members, domain.MemberID(r.Meta.CIK, dim, dv.Member.String()))
			case dv.TypedValue != "":
				members = append(members, domain.TypedMemberID(r.Meta.CIK, dim, dv.TypedValue))
			}
		}

		c := domain.NewContext(r.Meta.CIK, ce.ID, p.ID, dims, members)
		if existing, ok := r.contexts[c.ID]; ok {
			c = existing
		} else {
			r.contexts[c.ID] = c
		}
		r.rawCtx[ce.ID] = c
	}
}

func periodOf(ce taxonomy.ContextElement) (*domain.Period, error) {
	switch {
	case ce.Forever:
		return domain.NewPeriodFromStrings(domain.PeriodForever, "", "")
	case ce.Instant != "":
		return domain.NewPeriodFromStrings(domain.PeriodInstant, ce.Instant, "")
	default:
		return domain.NewPeriodFromStrings(domain.PeriodDuration, ce.Start, ce.End)
	}
}

func (r *Report) buildUnits(units []taxonomy.UnitElement) {
	for _, ue := range units {
		r.units[ue.ID] = domain.NewUnit(ue.Namespace, ue.Value)
	}
}

func (r *Report) buildFacts(src taxonomy.Source) {
	dimsByRaw := make(map[string][]domain.DimensionMember, len(src.Contexts()))
	for _, ce := range src.Contexts() {
		dims := make([]domain.DimensionMember, 0, len(ce.Dimensions))
		for _, dv := range ce.Dimensions {
			dm := domain.DimensionMember{Dimension: dv.Dimension.String(), Typed: dv.TypedValue}
			if !dv.Member.IsZero() {
				dm.Member = dv.Member.String()
			}
			dims = append(dims, dm)
		}
		dimsByRaw[ce.ID] = dims
	}

	for _, fe := range src.Facts() {
		el, ok := src.Element(fe.QName)
		if !ok {
			r.Stats.MissingConcept++
			r.log.Warn("concept_not_found", map[string]any{"fact": fe.ID, "concept": fe.QName.String()}, nil)
			continue
		}
		if el.Abstract {
			r.Stats.AbstractFact++
			r.log.Warn("abstract_fact", map[string]any{"fact": fe.ID, "concept": fe.QName.String()}, nil)
			continue
		}
		ctx, ok := r.rawCtx[fe.ContextID]
		if !ok {
			r.Stats.MissingContext++
			r.log.Warn("context_not_found", map[string]any{"fact": fe.ID, "context": fe.ContextID}, nil)
			continue
		}
		var unitID string
		if fe.UnitID != "" {
			u, ok := r.units[fe.UnitID]
			if !ok {
				r.Stats.MissingUnit++
				r.log.Warn("unit_not_found", map[string]any{"fact": fe.ID, "unit": fe.UnitID}, nil)
				continue
			}
			unitID = u.ID
		}

		concept := r.Registry.RegisterConcept(domain.NewConcept(el))
		qname := el.QName.String()
		f := &domain.Fact{
			ID:          domain.FactID(src.DocumentURI(), qname, ctx.ID, unitID, fe.ID),
			SourceID:    fe.ID,
			ReportID:    r.ID,
			ConceptID:   concept.ID,
			QName:       qname,
			Concept:     concept,
			ContextID:   ctx.ID,
			UnitID:      unitID,
			Period:      ctx.PeriodID,
			Value:       fe.Value,
			Decimals:    domain.ParseDecimals(fe.Decimals),
			Nil:         fe.Nil,
			Numeric:     fe.Numeric,
			Dimensions:  dimsByRaw[fe.ContextID],
			DocumentURI: src.DocumentURI(),
		}
		if _, dup := r.byID[f.ID]; dup {
			continue
		}
		r.Registry.AttachFact(concept, f)
		r.facts = append(r.facts, f)
		r.byID[f.ID] = f
	}
}

// ResolveMembers checks every explicit (dimension, member) pair against the
// filer's dimension graph and counts the ones it does not know. It returns
// the number of unresolved pairs.
func (r *Report) ResolveMembers(g *dimension.Graph) int {
	seen := make(map[string]bool)
	unresolved := 0
	for _, f := range r.facts {
		for _, dm := range f.Dimensions {
			if !dm.HasMember() {
				continue
			}
			key := dm.Dimension + "=" + dm.Member
			if seen[key] {
				continue
			}
			seen[key] = true
			if g.IsValidMember(dm.Dimension, dm.Member) {
				continue
			}
			unresolved++
			r.log.Warn("member_not_resolved", map[string]any{"dimension": dm.Dimension, "member": dm.Member}, nil)
		}
	}
	r.Stats.UnresolvedMember = unresolved
	return unresolved
}

// Facts returns every fact in source order, duplicates included.
func (r *Report) Facts() []*domain.Fact {
	return r.facts
}

// Fact returns a fact by id.
func (r *Report) Fact(id string) (*domain.Fact, bool) {
	f, ok := r.byID[id]
	return f, ok
}

// PrimaryFacts returns primary facts in source order.
func (r *Report) PrimaryFacts() []*domain.Fact {
	out := make([]*domain.Fact, 0, len(r.facts))
	for _, f := range r.facts {
		if r.dedup.IsPrimary(f) {
			out = append(out, f)
		}
	}
	return out
}

// IsPrimary reports whether f is the primary of its key.
func (r *Report) IsPrimary(f *domain.Fact) bool {
	return r.dedup.IsPrimary(f)
}

// PrimaryOf resolves f to its key's primary.
func (r *Report) PrimaryOf(f *domain.Fact) *domain.Fact {
	return r.dedup.PrimaryOf(f)
}

// Dedup exposes the deduplicator for re-runs.
func (r *Report) Dedup() *Deduplicator {
	return r.dedup
}

// Periods returns the unique periods sorted by id.
func (r *Report) Periods() []*domain.Period {
	out := make([]*domain.Period, 0, len(r.periods))
	for _, p := range r.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Units returns the unique units sorted by id.
func (r *Report) Units() []*domain.Unit {
	seen := make(map[string]*domain.Unit, len(r.units))
	for _, u := range r.units {
		seen[u.ID] = u
	}
	out := make([]*domain.Unit, 0, len(seen))
	for _, u := range seen {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Contexts returns the canonical contexts sorted by id.
func (r *Report) Contexts() []*domain.Context {
	out := make([]*domain.Context, 0, len(r.contexts))
	for _, c := range r.contexts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Context resolves a raw or canonical context id.
func (r *Report) Context(id string) (*domain.Context, bool) {
	if c, ok := r.contexts[id]; ok {
		return c, true
	}
	c, ok := r.rawCtx[id]
	return c, ok
}

// Logger returns the report-scoped logger.
func (r *Report) Logger() *logging.Logger {
	return r.log
}
