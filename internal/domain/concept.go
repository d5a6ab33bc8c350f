package domain

import (
	"errors"
	"fmt"

	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// Construction errors. Callers skip the one element and continue.
var (
	ErrNotAbstract   = errors.New("element is not abstract")
	ErrInvalidPeriod = errors.New("invalid period")
)

// Concept is a taxonomy element used as a fact tag, or, when Abstract is
// set, an element used only to organise hierarchies.
type Concept struct {
	ID         string
	QName      string
	Namespace  string
	LocalName  string
	TypeName   string
	BaseType   string
	PeriodType string
	Balance    string
	Label      string
	Abstract   bool
	Category   taxonomy.Category

	facts []*Fact
}

// NewConcept wraps a taxonomy element.
func NewConcept(el taxonomy.Element) *Concept {
	balance := el.Balance
	if balance == "" {
		balance = "none"
	}
	return &Concept{
		ID:         el.QName.ID(),
		QName:      el.QName.String(),
		Namespace:  el.QName.Namespace,
		LocalName:  el.QName.Local,
		TypeName:   el.TypeName,
		BaseType:   el.BaseType,
		PeriodType: el.PeriodType,
		Balance:    balance,
		Label:      el.Label,
		Abstract:   el.Abstract,
		Category:   taxonomy.Classify(&el),
	}
}

// NewAbstractConcept wraps an element known to be abstract.
func NewAbstractConcept(el taxonomy.Element) (*Concept, error) {
	if !el.Abstract {
		return nil, fmt.Errorf("abstract concept %s: %w", el.QName, ErrNotAbstract)
	}
	return NewConcept(el), nil
}

// Facts returns every fact tagged with this concept. The slice is not owned
// by the caller.
func (c *Concept) Facts() []*Fact {
	return c.facts
}

// NodeType returns the graph label family of the concept.
func (c *Concept) NodeType() NodeType {
	if c.Abstract {
		return NodeAbstract
	}
	return NodeConcept
}

func (c *Concept) attach(f *Fact) {
	c.facts = append(c.facts, f)
}
