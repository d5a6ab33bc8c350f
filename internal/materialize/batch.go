// Package materialize turns validated report structures into node and edge
// upsert batches for the persistence sink. Properties are flat; edges that
// carry uniqueness keys are checked before they leave the package.
package materialize

import (
	"errors"
	"fmt"
	"time"

	"github.com/joss/xbrlgraph/internal/domain"
)

var (
	ErrMissingProperty = errors.New("missing required property")
	ErrNestedProperty  = errors.New("nested property value")
)

// MissingPropertyError reports an edge lacking one of its uniqueness keys.
type MissingPropertyError struct {
	Relation domain.RelationType
	Property string
	From     string
	To       string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("%s edge %s -> %s: %s %q", e.Relation, e.From, e.To, ErrMissingProperty, e.Property)
}

func (e *MissingPropertyError) Unwrap() error {
	return ErrMissingProperty
}

// Uniqueness keys enforced by the sink.
var (
	PresentationKeys = []string{"cik", "report_id", "network_name", "parent_id", "child_id", "parent_level", "child_level"}
	CalculationKeys  = []string{"cik", "report_id", "network_name", "parent_id", "child_id", "context_id"}
)

// Props is a flat property map.
type Props map[string]any

// Node is one node upsert.
type Node struct {
	ID    string
	Props Props
}

// NodeBatch groups nodes of one type.
type NodeBatch struct {
	Type  domain.NodeType
	Nodes []Node
}

// Edge is one edge upsert.
type Edge struct {
	From  string
	To    string
	Props Props
}

// EdgeBatch groups edges of one relation. Keys, when set, are the edge
// properties that identify an edge; otherwise (From, To) does.
type EdgeBatch struct {
	Type     domain.RelationType
	FromType domain.NodeType
	ToType   domain.NodeType
	Keys     []string
	Edges    []Edge
}

// Plan is the full write set of one report.
type Plan struct {
	Nodes []NodeBatch
	Edges []EdgeBatch
}

// AddNodes appends a node batch after checking property flatness. Empty
// batches are dropped.
func (p *Plan) AddNodes(b NodeBatch) error {
	if len(b.Nodes) == 0 {
		return nil
	}
	for _, n := range b.Nodes {
		if err := CheckFlat(n.Props); err != nil {
			return fmt.Errorf("%s node %s: %w", b.Type, n.ID, err)
		}
	}
	p.Nodes = append(p.Nodes, b)
	return nil
}

// AddEdges appends an edge batch after checking flatness and required keys.
func (p *Plan) AddEdges(b EdgeBatch) error {
	if len(b.Edges) == 0 {
		return nil
	}
	if err := b.Check(); err != nil {
		return err
	}
	p.Edges = append(p.Edges, b)
	return nil
}

// Check verifies every edge carries the batch keys and flat properties.
func (b EdgeBatch) Check() error {
	for _, e := range b.Edges {
		if err := RequireKeys(b.Type, e, b.Keys); err != nil {
			return err
		}
		if err := CheckFlat(e.Props); err != nil {
			return fmt.Errorf("%s edge %s -> %s: %w", b.Type, e.From, e.To, err)
		}
	}
	return nil
}

// NodeCount returns the total number of nodes.
func (p *Plan) NodeCount() int {
	n := 0
	for _, b := range p.Nodes {
		n += len(b.Nodes)
	}
	return n
}

// EdgeCount returns the total number of edges.
func (p *Plan) EdgeCount() int {
	n := 0
	for _, b := range p.Edges {
		n += len(b.Edges)
	}
	return n
}

// RequireKeys fails if any key is absent, nil or an empty string.
func RequireKeys(rel domain.RelationType, e Edge, keys []string) error {
	for _, k := range keys {
		v, ok := e.Props[k]
		if !ok || v == nil {
			return &MissingPropertyError{Relation: rel, Property: k, From: e.From, To: e.To}
		}
		if s, isStr := v.(string); isStr && s == "" {
			return &MissingPropertyError{Relation: rel, Property: k, From: e.From, To: e.To}
		}
	}
	return nil
}

// CheckFlat rejects collection values. Multi-valued attributes must be
// serialized to text before reaching the sink.
func CheckFlat(props Props) error {
	for k, v := range props {
		switch v.(type) {
		case nil, string, bool, int, int32, int64, float32, float64, time.Time:
		default:
			return fmt.Errorf("property %q (%T): %w", k, v, ErrNestedProperty)
		}
	}
	return nil
}
