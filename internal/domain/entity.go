// Package domain defines the XBRL entities projected into the graph.
// Entities carry derived stable identifiers so that re-processing a filing
// upserts the same nodes instead of creating new ones.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NodeType is the graph label family of an entity.
type NodeType string

const (
	NodeReport    NodeType = "Report"
	NodeConcept   NodeType = "Concept"
	NodeAbstract  NodeType = "Abstract"
	NodeFact      NodeType = "Fact"
	NodePeriod    NodeType = "Period"
	NodeUnit      NodeType = "Unit"
	NodeContext   NodeType = "Context"
	NodeDimension NodeType = "Dimension"
	NodeDomain    NodeType = "Domain"
	NodeMember    NodeType = "Member"
	NodeNetwork   NodeType = "Network"
	NodeHypercube NodeType = "Hypercube"
)

// nodeMeta extends node types via a table rather than switches.
var nodeMeta = map[NodeType]struct {
	Label   string
	StatKey string
}{
	NodeReport:    {"Report", "reports"},
	NodeConcept:   {"Concept", "concepts"},
	NodeAbstract:  {"Abstract", "abstracts"},
	NodeFact:      {"Fact", "facts"},
	NodePeriod:    {"Period", "periods"},
	NodeUnit:      {"Unit", "units"},
	NodeContext:   {"Context", "contexts"},
	NodeDimension: {"Dimension", "dimensions"},
	NodeDomain:    {"Domain", "members"}, // domains are members at level 0
	NodeMember:    {"Member", "members"},
	NodeNetwork:   {"Network", "networks"},
	NodeHypercube: {"Hypercube", "hypercubes"},
}

// GraphLabel returns the Cypher node label for this type.
func (t NodeType) GraphLabel() string {
	if m, ok := nodeMeta[t]; ok {
		return m.Label
	}
	return "Entity"
}

// StatKey returns the stats counter key for this type.
func (t NodeType) StatKey() string {
	if m, ok := nodeMeta[t]; ok {
		return m.StatKey
	}
	return "other"
}

// RelationType names an edge kind in the graph.
type RelationType string

const (
	RelHasDomain        RelationType = "HAS_DOMAIN"
	RelHasMember        RelationType = "HAS_MEMBER"
	RelParentOf         RelationType = "PARENT_OF"
	RelHasDefault       RelationType = "HAS_DEFAULT"
	RelPresentationEdge RelationType = "PRESENTATION_EDGE"
	RelCalculationEdge  RelationType = "CALCULATION_EDGE"
	RelFactDimension    RelationType = "FACT_DIMENSION"
	RelFactMember       RelationType = "FACT_MEMBER"
	RelInContext        RelationType = "IN_CONTEXT"
	RelHasConcept       RelationType = "HAS_CONCEPT"
	RelHasUnit          RelationType = "HAS_UNIT"
	RelHasPeriod        RelationType = "HAS_PERIOD"
	RelReportsFact      RelationType = "REPORTS"
	RelHasNetwork       RelationType = "HAS_NETWORK"
	RelInNetwork        RelationType = "IN_NETWORK"
	RelHasHypercube     RelationType = "HAS_HYPERCUBE"
	RelHypercubeDim     RelationType = "HAS_DIMENSION"
	RelContextDimension RelationType = "HAS_DIMENSION_MEMBER"
)

// Relationship is one directed edge between two entity ids.
type Relationship struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Type RelationType `json:"type"`
}

// HashID derives a stable id from parts. Parts are joined with a separator
// that cannot appear in qnames or context ids.
func HashID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:16])
}
