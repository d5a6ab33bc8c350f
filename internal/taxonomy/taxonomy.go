// Package taxonomy defines what the core consumes from the XBRL parsing
// engine. The engine itself is a black box; anything that can enumerate
// elements, contexts, units, facts and relationship arcs satisfies Source.
package taxonomy

import (
	"strings"
)

// Well-known namespaces.
const (
	NamespaceXBRLI  = "http://www.xbrl.org/2003/instance"
	NamespaceXBRLDT = "http://xbrl.org/2005/xbrldt"
	NamespaceLink   = "http://www.xbrl.org/2003/linkbase"
)

// QName is a namespace-qualified element name.
type QName struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Local     string `json:"local" yaml:"local"`
}

// String renders the qname as prefix:local (or local alone without a prefix).
func (q QName) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// ID returns the stable namespace:localName identifier.
func (q QName) ID() string {
	if q.Namespace == "" {
		return q.String()
	}
	return q.Namespace + ":" + q.Local
}

// IsZero reports whether the qname is unset.
func (q QName) IsZero() bool {
	return q.Local == ""
}

// Is reports whether q names local in namespace ns. An unset namespace on q
// matches any namespace, since some dumps only carry prefixes.
func (q QName) Is(ns, local string) bool {
	if q.Local != local {
		return false
	}
	return q.Namespace == "" || q.Namespace == ns
}

// ParseQName splits "prefix:local" and resolves the prefix through namespaces.
func ParseQName(s string, namespaces map[string]string) QName {
	s = strings.TrimSpace(s)
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return QName{Local: s}
	}
	return QName{Namespace: namespaces[prefix], Prefix: prefix, Local: local}
}

// PeriodType values as declared on taxonomy elements.
const (
	PeriodInstant  = "instant"
	PeriodDuration = "duration"
	PeriodForever  = "forever"
)

// Element is one taxonomy element (concept declaration).
type Element struct {
	QName             QName
	SubstitutionGroup QName
	Abstract          bool
	Nillable          bool
	PeriodType        string
	TypeName          string // declared-type local name
	BaseType          string
	Balance           string
	Label             string
	IsDomainMember    bool
	TypedDomainRef    string // non-empty for typed dimensions
}

// DimensionValue is one dimension qualifier on a context. Member is zero for
// typed dimensions, which carry TypedValue instead.
type DimensionValue struct {
	Dimension  QName
	Member     QName
	TypedValue string
}

// ContextElement is a raw instance context.
type ContextElement struct {
	ID           string
	EntityScheme string
	EntityID     string
	Instant      string // ISO date or datetime
	Start        string
	End          string
	Forever      bool
	Dimensions   []DimensionValue
}

// UnitElement is a raw instance unit.
type UnitElement struct {
	ID        string
	Namespace string
	Value     string
}

// FactElement is a raw tagged fact.
type FactElement struct {
	ID        string
	QName     QName
	ContextID string
	UnitID    string
	Nil       bool
	Numeric   bool
	Value     string
	Decimals  string // integer, "INF", or empty
}

// Arc is one relationship arc between two taxonomy elements.
type Arc struct {
	ArcRole  ArcRole
	LinkRole string
	From     QName
	To       QName
	Weight   float64
	Order    float64
	Closed   string // raw attribute; parsed by consumers
	Seq      int    // position in the source arc set
}

// Source is the parsing collaborator as seen by the core.
type Source interface {
	DocumentURI() string
	Elements() []Element
	Element(q QName) (Element, bool)
	Contexts() []ContextElement
	Units() []UnitElement
	Facts() []FactElement
	// Arcs returns arcs of role, restricted to linkRole unless it is empty.
	Arcs(role ArcRole, linkRole string) []Arc
	RoleResolver
}

// RoleResolver maps an extended-link-role URI to its definition text.
type RoleResolver interface {
	RoleName(uri string) (string, bool)
}
