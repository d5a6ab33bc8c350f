package materialize

import (
	"sort"
	"strings"

	"github.com/joss/xbrlgraph/internal/dimension"
	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/network"
	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/validate"
)

// NetworkResult is what validation produced for one network.
type NetworkResult struct {
	Network      *network.Network
	Presentation *validate.Result
	Calculation  *validate.Result
	Groups       []*validate.Group // reconciled calculation groups
}

// Input is everything one report contributes to the graph.
type Input struct {
	Report     *report.Report
	Dimensions *dimension.Graph
	Networks   []NetworkResult
}

// Materializer builds plans for one report.
type Materializer struct {
	CIK      string
	ReportID string
}

// New creates a materializer for one report.
func New(cik, reportID string) *Materializer {
	return &Materializer{CIK: cik, ReportID: reportID}
}

// Build assembles the complete write plan. It fails only when an edge
// misses a uniqueness property or carries a nested value.
func (m *Materializer) Build(in Input) (*Plan, error) {
	p := &Plan{}
	rep := in.Report

	nodeBatches := []NodeBatch{
		m.ReportNode(rep),
		m.ConceptNodes(rep.Registry.Concepts(), domain.NodeConcept),
		m.ConceptNodes(rep.Registry.Abstracts(), domain.NodeAbstract),
		m.PeriodNodes(rep.Periods()),
		m.UnitNodes(rep.Units()),
		m.ContextNodes(rep.Contexts()),
		m.FactNodes(rep.PrimaryFacts()),
	}
	if in.Dimensions != nil {
		nodeBatches = append(nodeBatches, m.DimensionNodes(in.Dimensions)...)
	}
	nets := make([]*network.Network, 0, len(in.Networks))
	for _, nr := range in.Networks {
		nets = append(nets, nr.Network)
	}
	nodeBatches = append(nodeBatches, m.NetworkNodes(nets), m.HypercubeNodes(nets))
	for _, b := range nodeBatches {
		if err := p.AddNodes(b); err != nil {
			return nil, err
		}
	}

	completed := make(map[string][]domain.DimensionMember)
	for _, nr := range in.Networks {
		for _, res := range []*validate.Result{nr.Presentation, nr.Calculation} {
			if res == nil {
				continue
			}
			for id, dims := range res.Completed {
				completed[id] = dims
			}
		}
	}

	var edgeBatches []EdgeBatch
	edgeBatches = append(edgeBatches, m.FactEdges(rep)...)
	edgeBatches = append(edgeBatches, m.FactDimensionEdges(rep.PrimaryFacts(), completed, in.Dimensions)...)
	if in.Dimensions != nil {
		edgeBatches = append(edgeBatches, m.DimensionEdges(in.Dimensions)...)
		edgeBatches = append(edgeBatches, m.ContextEdges(rep.Contexts(), in.Dimensions)...)
	}
	edgeBatches = append(edgeBatches, m.NetworkEdges(rep, nets)...)

	for _, nr := range in.Networks {
		edgeBatches = append(edgeBatches, m.MembershipEdges(nr)...)
		if nr.Network.Presentation != nil {
			edgeBatches = append(edgeBatches, m.PresentationEdges(nr.Network, nr.Network.Presentation)...)
		}
		if len(nr.Groups) > 0 {
			edgeBatches = append(edgeBatches, m.CalculationEdges(nr.Network, nr.Groups))
		}
	}

	for _, b := range edgeBatches {
		if err := p.AddEdges(b); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// --- nodes ---

// ReportNode is the single report node.
func (m *Materializer) ReportNode(rep *report.Report) NodeBatch {
	return NodeBatch{Type: domain.NodeReport, Nodes: []Node{{
		ID: rep.ID,
		Props: Props{
			"cik":              m.CIK,
			"report_id":        rep.ID,
			"form_type":        rep.Meta.FormType,
			"period_of_report": rep.Meta.PeriodOfReport,
			"document_uri":     rep.DocumentURI,
		},
	}}}
}

// ConceptNodes converts concepts or abstracts.
func (m *Materializer) ConceptNodes(concepts []*domain.Concept, typ domain.NodeType) NodeBatch {
	b := NodeBatch{Type: typ}
	for _, c := range concepts {
		b.Nodes = append(b.Nodes, Node{ID: c.ID, Props: Props{
			"qname":       c.QName,
			"namespace":   c.Namespace,
			"local_name":  c.LocalName,
			"type_name":   c.TypeName,
			"base_type":   c.BaseType,
			"period_type": c.PeriodType,
			"balance":     c.Balance,
			"label":       c.Label,
			"category":    string(c.Category),
		}})
	}
	return b
}

// PeriodNodes converts the unique period set.
func (m *Materializer) PeriodNodes(periods []*domain.Period) NodeBatch {
	b := NodeBatch{Type: domain.NodePeriod}
	for _, p := range periods {
		b.Nodes = append(b.Nodes, Node{ID: p.ID, Props: Props{
			"period_type": string(p.Type),
			"start_date":  p.StartDate(),
			"end_date":    p.EndDate(),
		}})
	}
	return b
}

// UnitNodes converts the unique unit set.
func (m *Materializer) UnitNodes(units []*domain.Unit) NodeBatch {
	b := NodeBatch{Type: domain.NodeUnit}
	for _, u := range units {
		b.Nodes = append(b.Nodes, Node{ID: u.ID, Props: Props{"namespace": u.Namespace, "value": u.Value}})
	}
	return b
}

// ContextNodes converts canonical contexts. Dimension and member id lists
// are joined with commas.
func (m *Materializer) ContextNodes(ctxs []*domain.Context) NodeBatch {
	b := NodeBatch{Type: domain.NodeContext}
	for _, c := range ctxs {
		b.Nodes = append(b.Nodes, Node{ID: c.ID, Props: Props{
			"cik":        c.CIK,
			"raw_id":     c.RawID,
			"period_id":  c.PeriodID,
			"dimensions": strings.Join(c.Dimensions, ","),
			"members":    strings.Join(c.Members, ","),
		}})
	}
	return b
}

// FactNodes converts facts.
func (m *Materializer) FactNodes(facts []*domain.Fact) NodeBatch {
	b := NodeBatch{Type: domain.NodeFact}
	for _, f := range facts {
		var decimals any
		if f.Decimals != nil {
			decimals = *f.Decimals
		}
		b.Nodes = append(b.Nodes, Node{ID: f.ID, Props: Props{
			"cik":        m.CIK,
			"report_id":  m.ReportID,
			"source_id":  f.SourceID,
			"qname":      f.QName,
			"concept_id": f.ConceptID,
			"context_id": f.ContextID,
			"unit_id":    f.UnitID,
			"period":     f.Period,
			"value":      f.Value,
			"decimals":   decimals,
			"is_nil":     f.Nil,
			"is_numeric": f.Numeric,
			"dimensions": JoinDimensions(f.Dimensions),
		}})
	}
	return b
}

// JoinDimensions serializes qualifiers as "dim=member;dim=member".
func JoinDimensions(dims []domain.DimensionMember) string {
	parts := make([]string, 0, len(dims))
	for _, dm := range dims {
		v := dm.Member
		if v == "" && dm.Typed != "" {
			v = "typed:" + dm.Typed
		}
		parts = append(parts, dm.Dimension+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// DimensionNodes converts the filer's dimensions, domains and members.
func (m *Materializer) DimensionNodes(g *dimension.Graph) []NodeBatch {
	dims := NodeBatch{Type: domain.NodeDimension}
	doms := NodeBatch{Type: domain.NodeDomain}
	members := NodeBatch{Type: domain.NodeMember}
	for _, d := range g.Dimensions() {
		dims.Nodes = append(dims.Nodes, Node{ID: d.ID, Props: Props{
			"cik":      d.CIK,
			"qname":    d.QName,
			"label":    d.Label,
			"explicit": d.Explicit,
			"typed":    d.Typed,
		}})
		if d.Domain != nil {
			doms.Nodes = append(doms.Nodes, memberNode(&d.Domain.Member))
		}
		for _, mem := range d.SortedMembers() {
			members.Nodes = append(members.Nodes, memberNode(mem))
		}
	}
	return []NodeBatch{dims, doms, members}
}

func memberNode(mem *domain.Member) Node {
	return Node{ID: mem.ID, Props: Props{
		"cik":       mem.CIK,
		"qname":     mem.QName,
		"label":     mem.Label,
		"dimension": mem.Dimension,
		"parent":    mem.Parent,
		"level":     mem.Level,
	}}
}

// NetworkNodes converts networks.
func (m *Materializer) NetworkNodes(nets []*network.Network) NodeBatch {
	b := NodeBatch{Type: domain.NodeNetwork}
	for _, n := range nets {
		b.Nodes = append(b.Nodes, Node{ID: n.ID(m.CIK, m.ReportID), Props: Props{
			"cik":         m.CIK,
			"report_id":   m.ReportID,
			"uri":         n.URI,
			"name":        n.Name,
			"role_id":     n.RoleID,
			"category":    string(n.Category),
			"description": n.Description,
			"arc_roles":   strings.Join(n.SortedArcRoles(), ","),
		}})
	}
	return b
}

// HypercubeNodes converts the hypercubes of every network.
func (m *Materializer) HypercubeNodes(nets []*network.Network) NodeBatch {
	b := NodeBatch{Type: domain.NodeHypercube}
	for _, n := range nets {
		for _, hc := range n.Hypercubes {
			b.Nodes = append(b.Nodes, Node{ID: hc.ID(m.CIK, m.ReportID, n.URI), Props: Props{
				"qname":        hc.QName,
				"primary_item": hc.PrimaryItem,
				"is_all":       hc.IsAll,
				"closed":       hc.Closed,
				"dimensions":   strings.Join(hc.DimensionNames(), ","),
				"concepts":     strings.Join(hc.ConceptIDs(), ","),
				"line_items":   strings.Join(hc.LineItems, ","),
				"network_uri":  n.URI,
			}})
		}
	}
	return b
}

// --- edges ---

// edgeSet accumulates edges of one relation split by endpoint types.
type edgeSet struct {
	rel     domain.RelationType
	keys    []string
	batches map[[2]domain.NodeType]*EdgeBatch
}

func newEdgeSet(rel domain.RelationType, keys []string) *edgeSet {
	return &edgeSet{rel: rel, keys: keys, batches: make(map[[2]domain.NodeType]*EdgeBatch)}
}

func (s *edgeSet) add(from, to domain.NodeType, e Edge) {
	k := [2]domain.NodeType{from, to}
	b, ok := s.batches[k]
	if !ok {
		b = &EdgeBatch{Type: s.rel, FromType: from, ToType: to, Keys: s.keys}
		s.batches[k] = b
	}
	b.Edges = append(b.Edges, e)
}

func (s *edgeSet) list() []EdgeBatch {
	out := make([]EdgeBatch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromType != out[j].FromType {
			return out[i].FromType < out[j].FromType
		}
		return out[i].ToType < out[j].ToType
	})
	return out
}

// FactEdges links each primary fact to its report, concept, context, unit
// and period.
func (m *Materializer) FactEdges(rep *report.Report) []EdgeBatch {
	reports := EdgeBatch{Type: domain.RelReportsFact, FromType: domain.NodeReport, ToType: domain.NodeFact}
	concepts := EdgeBatch{Type: domain.RelHasConcept, FromType: domain.NodeFact, ToType: domain.NodeConcept}
	contexts := EdgeBatch{Type: domain.RelInContext, FromType: domain.NodeFact, ToType: domain.NodeContext}
	units := EdgeBatch{Type: domain.RelHasUnit, FromType: domain.NodeFact, ToType: domain.NodeUnit}
	periods := EdgeBatch{Type: domain.RelHasPeriod, FromType: domain.NodeFact, ToType: domain.NodePeriod}

	for _, f := range rep.PrimaryFacts() {
		reports.Edges = append(reports.Edges, Edge{From: rep.ID, To: f.ID})
		concepts.Edges = append(concepts.Edges, Edge{From: f.ID, To: f.ConceptID})
		contexts.Edges = append(contexts.Edges, Edge{From: f.ID, To: f.ContextID})
		periods.Edges = append(periods.Edges, Edge{From: f.ID, To: f.Period})
		if f.UnitID != "" {
			units.Edges = append(units.Edges, Edge{From: f.ID, To: f.UnitID})
		}
	}
	return []EdgeBatch{reports, concepts, contexts, units, periods}
}

// FactDimensionEdges links facts to their dimensions and members. Members
// supplied by default completion are marked as such.
func (m *Materializer) FactDimensionEdges(facts []*domain.Fact, completed map[string][]domain.DimensionMember, g *dimension.Graph) []EdgeBatch {
	dims := EdgeBatch{Type: domain.RelFactDimension, FromType: domain.NodeFact, ToType: domain.NodeDimension}
	members := newEdgeSet(domain.RelFactMember, nil)

	for _, f := range facts {
		asserted := f.Dimensions
		filled, hasFilled := completed[f.ID]
		for i, dm := range asserted {
			dims.Edges = append(dims.Edges, Edge{From: f.ID, To: domain.DimensionID(m.CIK, dm.Dimension)})
			member, isDefault := dm.Member, false
			if member == "" && hasFilled && i < len(filled) {
				member, isDefault = filled[i].Member, true
			}
			if member == "" {
				continue
			}
			members.add(domain.NodeFact, memberType(g, dm.Dimension, member), Edge{
				From:  f.ID,
				To:    domain.MemberID(m.CIK, dm.Dimension, member),
				Props: Props{"dimension": dm.Dimension, "is_default": isDefault},
			})
		}
	}
	return append([]EdgeBatch{dims}, members.list()...)
}

func memberType(g *dimension.Graph, dim, member string) domain.NodeType {
	if g == nil {
		return domain.NodeMember
	}
	if d, ok := g.Dimension(dim); ok && d.Domain != nil && d.Domain.QName == member {
		return domain.NodeDomain
	}
	return domain.NodeMember
}

// DimensionEdges converts the dimension graph relationships.
func (m *Materializer) DimensionEdges(g *dimension.Graph) []EdgeBatch {
	types := nodeTypes(g)
	var out []EdgeBatch
	for _, rels := range [][]domain.Relationship{
		g.DimensionDomainRelationships(),
		g.DimensionMemberRelationships(),
		g.MemberHierarchyRelationships(),
		g.DefaultRelationships(),
	} {
		if len(rels) == 0 {
			continue
		}
		set := newEdgeSet(rels[0].Type, nil)
		for _, r := range rels {
			set.add(types[r.From], types[r.To], Edge{From: r.From, To: r.To})
		}
		out = append(out, set.list()...)
	}
	return out
}

// nodeTypes maps every dimension graph id to its node type.
func nodeTypes(g *dimension.Graph) map[string]domain.NodeType {
	types := make(map[string]domain.NodeType)
	if g == nil {
		return types
	}
	for _, d := range g.Dimensions() {
		types[d.ID] = domain.NodeDimension
		if d.Domain != nil {
			types[d.Domain.ID] = domain.NodeDomain
		}
		for _, mem := range d.Members {
			types[mem.ID] = domain.NodeMember
		}
	}
	return types
}

// ContextEdges links contexts to the members qualifying them. Members the
// dimension graph does not know are left unlinked.
func (m *Materializer) ContextEdges(ctxs []*domain.Context, g *dimension.Graph) []EdgeBatch {
	types := nodeTypes(g)
	set := newEdgeSet(domain.RelContextDimension, nil)
	for _, c := range ctxs {
		for _, id := range c.Members {
			typ, ok := types[id]
			if !ok {
				continue
			}
			set.add(domain.NodeContext, typ, Edge{From: c.ID, To: id})
		}
	}
	return set.list()
}

// NetworkEdges links the report to its networks and networks to their
// hypercubes and hypercubes to their dimensions.
func (m *Materializer) NetworkEdges(rep *report.Report, nets []*network.Network) []EdgeBatch {
	has := EdgeBatch{Type: domain.RelHasNetwork, FromType: domain.NodeReport, ToType: domain.NodeNetwork}
	cubes := EdgeBatch{Type: domain.RelHasHypercube, FromType: domain.NodeNetwork, ToType: domain.NodeHypercube}
	cubeDims := EdgeBatch{Type: domain.RelHypercubeDim, FromType: domain.NodeHypercube, ToType: domain.NodeDimension}

	for _, n := range nets {
		netID := n.ID(m.CIK, m.ReportID)
		has.Edges = append(has.Edges, Edge{From: rep.ID, To: netID})
		for _, hc := range n.Hypercubes {
			hcID := hc.ID(m.CIK, m.ReportID, n.URI)
			cubes.Edges = append(cubes.Edges, Edge{From: netID, To: hcID})
			for _, q := range hc.DimensionNames() {
				cubeDims.Edges = append(cubeDims.Edges, Edge{From: hcID, To: domain.DimensionID(m.CIK, q)})
			}
		}
	}
	return []EdgeBatch{has, cubes, cubeDims}
}

// MembershipEdges links validated facts to the network they belong to.
func (m *Materializer) MembershipEdges(nr NetworkResult) []EdgeBatch {
	b := EdgeBatch{
		Type:     domain.RelInNetwork,
		FromType: domain.NodeFact,
		ToType:   domain.NodeNetwork,
		Keys:     []string{"kind"},
	}
	netID := nr.Network.ID(m.CIK, m.ReportID)
	for _, res := range []*validate.Result{nr.Presentation, nr.Calculation} {
		if res == nil {
			continue
		}
		for _, f := range res.Valid {
			b.Edges = append(b.Edges, Edge{From: f.ID, To: netID, Props: Props{"kind": string(res.Kind)}})
		}
	}
	return []EdgeBatch{b}
}

// PresentationEdges converts a presentation tree into concept-to-concept
// edges keyed by (cik, report, network, parent, child, levels). The child
// level is taken from the edge's parent, so a concept shown under two
// parents at different depths gets one consistent edge per parent.
func (m *Materializer) PresentationEdges(net *network.Network, h *network.Hierarchy) []EdgeBatch {
	set := newEdgeSet(domain.RelPresentationEdge, PresentationKeys)
	for _, e := range h.Edges() {
		parent, _ := h.Node(e.Parent)
		child, _ := h.Node(e.Child)
		if parent == nil || child == nil || parent.Level == 0 || child.Level == 0 {
			continue
		}
		if parent.Undeclared || child.Undeclared {
			continue
		}
		set.add(conceptType(parent), conceptType(child), Edge{
			From: e.Parent,
			To:   e.Child,
			Props: Props{
				"cik":          m.CIK,
				"report_id":    m.ReportID,
				"network_name": net.Name,
				"network_uri":  net.URI,
				"parent_id":    e.Parent,
				"child_id":     e.Child,
				"parent_level": parent.Level,
				"child_level":  parent.Level + 1,
				"order":        e.Order,
			},
		})
	}
	return set.list()
}

func conceptType(n *network.Node) domain.NodeType {
	if n.Abstract {
		return domain.NodeAbstract
	}
	return domain.NodeConcept
}

// CalculationEdges converts matching reconciliation groups into
// fact-to-fact edges keyed by (cik, report, network, parent, child,
// context). Mismatched groups are not persisted.
func (m *Materializer) CalculationEdges(net *network.Network, groups []*validate.Group) EdgeBatch {
	b := EdgeBatch{
		Type:     domain.RelCalculationEdge,
		FromType: domain.NodeFact,
		ToType:   domain.NodeFact,
		Keys:     CalculationKeys,
	}
	for _, g := range groups {
		if !g.Match {
			continue
		}
		for _, c := range g.Children {
			weight, _ := c.Weight.Float64()
			b.Edges = append(b.Edges, Edge{
				From: g.Parent.ID,
				To:   c.Fact.ID,
				Props: Props{
					"cik":          m.CIK,
					"report_id":    m.ReportID,
					"network_name": net.Name,
					"parent_id":    g.Parent.ID,
					"child_id":     c.Fact.ID,
					"context_id":   g.ContextID,
					"unit_id":      g.UnitID,
					"weight":       weight,
					"total":        g.Total.String(),
					"percent_diff": g.PercentDiff.String(),
				},
			})
		}
	}
	return b
}
