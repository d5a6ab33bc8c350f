package validate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/network"
)

// FactResolver yields the facts of a concept.
type FactResolver interface {
	FactsFor(conceptID string) []*domain.Fact
}

// Chain tries each resolver in turn and returns the first non-empty answer.
type Chain []FactResolver

// FactsFor implements FactResolver.
func (c Chain) FactsFor(conceptID string) []*domain.Fact {
	for _, r := range c {
		if r == nil {
			continue
		}
		if facts := r.FactsFor(conceptID); len(facts) > 0 {
			return facts
		}
	}
	return nil
}

// FactIndex is an unfiltered concept -> facts lookup.
type FactIndex map[string][]*domain.Fact

// NewFactIndex indexes facts by concept id.
func NewFactIndex(facts []*domain.Fact) FactIndex {
	idx := make(FactIndex)
	for _, f := range facts {
		idx[f.ConceptID] = append(idx[f.ConceptID], f)
	}
	return idx
}

// FactsFor implements FactResolver.
func (idx FactIndex) FactsFor(conceptID string) []*domain.Fact {
	return idx[conceptID]
}

// PairKey is the identity of one parent/child calculation edge. The
// persistence layer enforces uniqueness on the same tuple.
type PairKey struct {
	CIK       string
	ReportID  string
	Network   string
	ParentID  string
	ChildID   string
	ContextID string
}

// Contribution is one child's share of a summation.
type Contribution struct {
	Fact     *domain.Fact
	Weight   decimal.Decimal
	Value    decimal.Decimal
	Weighted decimal.Decimal
}

// Group is one parent fact reconciled against its children sharing context
// and unit.
type Group struct {
	Network     string
	Parent      *domain.Fact
	ContextID   string
	UnitID      string
	Children    []Contribution
	Value       decimal.Decimal
	Total       decimal.Decimal
	PercentDiff decimal.Decimal // fraction; absolute difference for zero parents
	Match       bool
}

// NetworkStats are the reconciliation tallies of one network.
type NetworkStats struct {
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
	Skipped    int `json:"skipped"`
}

// Stats are running tallies over every network reconciled so far.
type Stats struct {
	Matched    int                      `json:"matched"`
	Mismatched int                      `json:"mismatched"`
	Skipped    int                      `json:"skipped"`
	PerNetwork map[string]*NetworkStats `json:"per_network"`
}

// Reconciler checks calculation networks of one report.
type Reconciler struct {
	CIK           string
	ReportID      string
	Tolerance     decimal.Decimal
	ZeroTolerance decimal.Decimal

	log   *logging.Logger
	stats Stats
	seen  map[PairKey]bool
}

// NewReconciler creates a reconciler. tolerance is relative; zeroTolerance
// is the absolute threshold used when the parent is zero.
func NewReconciler(cik, reportID string, tolerance, zeroTolerance decimal.Decimal, log *logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Nop()
	}
	return &Reconciler{
		CIK:           cik,
		ReportID:      reportID,
		Tolerance:     tolerance,
		ZeroTolerance: zeroTolerance,
		log:           log,
		stats:         Stats{PerNetwork: make(map[string]*NetworkStats)},
		seen:          make(map[PairKey]bool),
	}
}

// Compare returns the difference measure between parent and total and
// whether it is within tolerance.
func Compare(parent, total, tolerance, zeroTolerance decimal.Decimal) (decimal.Decimal, bool) {
	diff := parent.Sub(total).Abs()
	if parent.IsZero() {
		return diff, diff.LessThan(zeroTolerance)
	}
	pct := diff.Div(parent.Abs())
	return pct, pct.LessThan(tolerance)
}

// Reconcile checks every summation parent of calc. Facts come from
// resolver. It returns all groups; only matching groups should be persisted.
func (r *Reconciler) Reconcile(net *network.Network, calc *network.Hierarchy, resolver FactResolver) []*Group {
	ns := r.networkStats(net.Name)
	var groups []*Group

	for _, node := range calc.Nodes() {
		edges := calc.ChildEdges(node.ID)
		if len(edges) == 0 {
			continue
		}

		parents := numericFacts(resolver.FactsFor(node.ID))
		byKey := make(map[string]*domain.Fact)
		var keys []string
		for _, p := range parents {
			k := p.ContextID + "|" + p.UnitID
			if first, ok := byKey[k]; ok {
				// One group per (context, unit); later parents are not summed.
				ns.Skipped++
				r.stats.Skipped++
				r.log.Debug("parent_fact_skipped", map[string]any{
					"network": net.Name,
					"fact":    p.ID,
					"kept":    first.ID,
				})
				continue
			}
			byKey[k] = p
			keys = append(keys, k)
		}

		for _, k := range keys {
			parent := byKey[k]
			g := r.group(net.Name, parent, edges, resolver)
			if g == nil {
				ns.Skipped++
				r.stats.Skipped++
				continue
			}
			if g.Match {
				ns.Matched++
				r.stats.Matched++
			} else {
				ns.Mismatched++
				r.stats.Mismatched++
				r.logMismatch(g)
			}
			groups = append(groups, g)
		}
	}
	return groups
}

func (r *Reconciler) group(networkName string, parent *domain.Fact, edges []network.Edge, resolver FactResolver) *Group {
	value, err := parent.Decimal()
	if err != nil {
		return nil
	}
	g := &Group{
		Network:   networkName,
		Parent:    parent,
		ContextID: parent.ContextID,
		UnitID:    parent.UnitID,
		Value:     value,
		Total:     decimal.Zero,
	}

	for _, e := range edges {
		weight := decimal.NewFromFloat(e.Weight)
		for _, child := range numericFacts(resolver.FactsFor(e.Child)) {
			if child.ContextID != parent.ContextID || child.UnitID != parent.UnitID {
				continue
			}
			key := PairKey{
				CIK:       r.CIK,
				ReportID:  r.ReportID,
				Network:   networkName,
				ParentID:  parent.ID,
				ChildID:   child.ID,
				ContextID: parent.ContextID,
			}
			if r.seen[key] {
				continue
			}
			v, err := child.Decimal()
			if err != nil {
				continue
			}
			r.seen[key] = true
			weighted := v.Mul(weight)
			g.Children = append(g.Children, Contribution{Fact: child, Weight: weight, Value: v, Weighted: weighted})
			g.Total = g.Total.Add(weighted)
		}
	}
	if len(g.Children) == 0 {
		return nil
	}
	g.PercentDiff, g.Match = Compare(g.Value, g.Total, r.Tolerance, r.ZeroTolerance)
	return g
}

func numericFacts(facts []*domain.Fact) []*domain.Fact {
	out := make([]*domain.Fact, 0, len(facts))
	for _, f := range facts {
		if f.Numeric && !f.Nil {
			out = append(out, f)
		}
	}
	return out
}

func (r *Reconciler) networkStats(name string) *NetworkStats {
	ns, ok := r.stats.PerNetwork[name]
	if !ok {
		ns = &NetworkStats{}
		r.stats.PerNetwork[name] = ns
	}
	return ns
}

func (r *Reconciler) logMismatch(g *Group) {
	children := make([]map[string]any, 0, len(g.Children))
	for _, c := range g.Children {
		children = append(children, map[string]any{
			"qname":    c.Fact.QName,
			"balance":  balanceOf(c.Fact),
			"value":    c.Value.String(),
			"weight":   c.Weight.String(),
			"weighted": c.Weighted.String(),
		})
	}
	r.log.Info("calculation_mismatch", map[string]any{
		"network":        g.Network,
		"parent":         g.Parent.QName,
		"parent_balance": balanceOf(g.Parent),
		"parent_value":   g.Value.String(),
		"total":          g.Total.String(),
		"percent_diff":   g.PercentDiff.StringFixed(6),
		"context":        g.ContextID,
		"unit":           g.UnitID,
		"children":       children,
	})
}

func balanceOf(f *domain.Fact) string {
	if f.Concept == nil {
		return ""
	}
	return f.Concept.Balance
}

// Stats returns a snapshot of the running tallies.
func (r *Reconciler) Stats() Stats {
	out := Stats{
		Matched:    r.stats.Matched,
		Mismatched: r.stats.Mismatched,
		Skipped:    r.stats.Skipped,
		PerNetwork: make(map[string]*NetworkStats, len(r.stats.PerNetwork)),
	}
	for k, v := range r.stats.PerNetwork {
		cp := *v
		out.PerNetwork[k] = &cp
	}
	return out
}

// Networks returns the names of reconciled networks, sorted.
func (s Stats) Networks() []string {
	out := make([]string, 0, len(s.PerNetwork))
	for k := range s.PerNetwork {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Matched filters groups down to the ones that reconciled.
func Matched(groups []*Group) []*Group {
	var out []*Group
	for _, g := range groups {
		if g.Match {
			out = append(out, g)
		}
	}
	return out
}
