package network

import (
	"sort"

	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// Kind distinguishes presentation from calculation trees.
type Kind string

const (
	KindPresentation Kind = "presentation"
	KindCalculation  Kind = "calculation"
)

// Node is one concept in a hierarchy. Level starts at 1 for roots.
type Node struct {
	ID         string // concept id (namespace:local)
	QName      string
	Abstract   bool
	Undeclared bool // no taxonomy element; never materialized
	Order      float64
	Level    int
	Weight   float64 // arc weight from the parent; calculation only
	Children []string
}

// Edge is one parent -> child arc of a hierarchy.
type Edge struct {
	Parent string
	Child  string
	Order  float64
	Weight float64
	Seq    int
}

// Hierarchy is a leveled, ordered tree built from one network's arcs.
type Hierarchy struct {
	Kind     Kind
	nodes    map[string]*Node
	edges    []Edge
	byParent map[string][]Edge
	roots    []string
	Cycles   int
}

// BuildPresentation builds the presentation tree of net. Every declared
// endpoint is registered into reg, with or without facts.
func BuildPresentation(src taxonomy.Source, net *Network, reg *domain.Registry, log *logging.Logger) *Hierarchy {
	return build(src, net, KindPresentation, taxonomy.ArcParentChild, reg, log)
}

// BuildCalculation builds the weighted summation tree of net.
func BuildCalculation(src taxonomy.Source, net *Network, reg *domain.Registry, log *logging.Logger) *Hierarchy {
	return build(src, net, KindCalculation, taxonomy.ArcSummationItem, reg, log)
}

func build(src taxonomy.Source, net *Network, kind Kind, role taxonomy.ArcRole, reg *domain.Registry, log *logging.Logger) *Hierarchy {
	if log == nil {
		log = logging.Nop()
	}
	h := &Hierarchy{Kind: kind, nodes: make(map[string]*Node)}
	isChild := make(map[string]bool)

	for _, arc := range src.Arcs(role, net.URI) {
		parent := h.node(src, arc.From, reg, log)
		child := h.node(src, arc.To, reg, log)
		h.edges = append(h.edges, Edge{
			Parent: parent.ID,
			Child:  child.ID,
			Order:  arc.Order,
			Weight: arc.Weight,
			Seq:    arc.Seq,
		})
		isChild[child.ID] = true
	}

	byParent := make(map[string][]Edge)
	h.byParent = byParent
	for _, e := range h.edges {
		byParent[e.Parent] = append(byParent[e.Parent], e)
	}
	for parent, edges := range byParent {
		sort.SliceStable(edges, func(i, j int) bool {
			if edges[i].Order != edges[j].Order {
				return edges[i].Order < edges[j].Order
			}
			return edges[i].Seq < edges[j].Seq
		})
		n := h.nodes[parent]
		for _, e := range edges {
			n.Children = append(n.Children, e.Child)
		}
		if !isChild[parent] {
			h.roots = append(h.roots, parent)
		}
	}
	sort.Strings(h.roots)

	for i, id := range h.roots {
		root := h.nodes[id]
		root.Order = float64(i + 1)
		h.assignLevels(root, 1, byParent, map[string]bool{id: true}, log)
	}
	return h
}

// node returns the node for q, creating it on first sight.
func (h *Hierarchy) node(src taxonomy.Source, q taxonomy.QName, reg *domain.Registry, log *logging.Logger) *Node {
	id := q.ID()
	if n, ok := h.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, QName: q.String()}
	h.nodes[id] = n

	el, ok := src.Element(q)
	if !ok {
		n.Undeclared = true
		log.Warn("hierarchy_element_missing", map[string]any{"kind": string(h.Kind), "concept": n.QName}, nil)
		return n
	}
	n.Abstract = el.Abstract
	if reg == nil || h.Kind != KindPresentation {
		return n
	}
	if !el.Abstract {
		reg.RegisterConcept(domain.NewConcept(el))
		return n
	}
	if _, known := reg.Abstract(id); !known {
		abs, err := domain.NewAbstractConcept(el)
		if err != nil {
			log.Warn("abstract_skipped", map[string]any{"concept": n.QName}, err)
			return n
		}
		reg.RegisterAbstract(abs)
	}
	return n
}

// assignLevels walks the tree depth first. A node reached twice keeps its
// first level; an edge back onto the current path is skipped.
func (h *Hierarchy) assignLevels(n *Node, level int, byParent map[string][]Edge, onPath map[string]bool, log *logging.Logger) {
	if n.Level != 0 {
		return
	}
	n.Level = level
	for _, e := range byParent[n.ID] {
		child := h.nodes[e.Child]
		if onPath[child.ID] {
			h.Cycles++
			log.Warn("hierarchy_cycle", map[string]any{"kind": string(h.Kind), "parent": n.QName, "child": child.QName}, nil)
			continue
		}
		if child.Level == 0 {
			child.Order = e.Order
			child.Weight = e.Weight
		}
		onPath[child.ID] = true
		h.assignLevels(child, level+1, byParent, onPath, log)
		delete(onPath, child.ID)
	}
}

// ChildEdges returns the arcs leaving parent in sibling order.
func (h *Hierarchy) ChildEdges(parent string) []Edge {
	return h.byParent[parent]
}

// Node returns a node by concept id.
func (h *Hierarchy) Node(id string) (*Node, bool) {
	n, ok := h.nodes[id]
	return n, ok
}

// Children returns the children of n in order.
func (h *Hierarchy) Children(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		out = append(out, h.nodes[id])
	}
	return out
}

// Roots returns nodes that are parents but never children, numbered 1..N
// in id order.
func (h *Hierarchy) Roots() []*Node {
	out := make([]*Node, 0, len(h.roots))
	for _, id := range h.roots {
		out = append(out, h.nodes[id])
	}
	return out
}

// Nodes returns every node sorted by id.
func (h *Hierarchy) Nodes() []*Node {
	out := make([]*Node, 0, len(h.nodes))
	for _, n := range h.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns the arcs in source order.
func (h *Hierarchy) Edges() []Edge {
	return h.edges
}

// Len returns the number of nodes.
func (h *Hierarchy) Len() int {
	return len(h.nodes)
}

// ConceptIDs returns the ids of non-abstract nodes, sorted.
func (h *Hierarchy) ConceptIDs() []string {
	var out []string
	for _, n := range h.Nodes() {
		if !n.Abstract {
			out = append(out, n.ID)
		}
	}
	return out
}
