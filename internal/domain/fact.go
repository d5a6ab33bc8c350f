package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DecimalsINF marks infinite precision.
const DecimalsINF = math.MaxInt32

// DimensionMember is one (dimension, member) qualifier asserted on a fact.
// An empty Member means the context named the dimension without an explicit
// member, as typed dimensions do.
type DimensionMember struct {
	Dimension string
	Member    string
	Typed     string // typed dimension value, empty for explicit axes
}

// HasMember reports whether an explicit member is present.
func (dm DimensionMember) HasMember() bool {
	return dm.Member != ""
}

// Fact is one reported value. Every attribute the core needs is an explicit
// field copied from the raw fact at construction.
type Fact struct {
	ID          string
	SourceID    string // raw tag id in the instance
	ReportID    string
	ConceptID   string
	QName       string
	Concept     *Concept
	ContextID   string
	UnitID      string
	Period      string
	Value       string
	Decimals    *int // nil when absent
	Nil         bool
	Numeric     bool
	Dimensions  []DimensionMember
	DocumentURI string
}

// FactID hashes the fields that identify one tag occurrence. Duplicates that
// share concept, context and unit still differ by raw tag id.
func FactID(documentURI, qname, contextID, unitID, sourceID string) string {
	return HashID(documentURI, qname, contextID, unitID, sourceID)
}

// ParseDecimals reads a decimals attribute: an integer, "INF", or empty.
func ParseDecimals(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.EqualFold(s, "INF") {
		v := DecimalsINF
		return &v
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// Decimal parses the fact value as a number.
func (f *Fact) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(f.Value))
}

// HasDimensions reports whether the fact carries any dimensional qualifier.
func (f *Fact) HasDimensions() bool {
	return len(f.Dimensions) > 0
}

// DimensionSet returns the set of asserted dimension qnames.
func (f *Fact) DimensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.Dimensions))
	for _, dm := range f.Dimensions {
		set[dm.Dimension] = struct{}{}
	}
	return set
}

// WithDimensions returns a shallow copy of f carrying dims instead.
func (f *Fact) WithDimensions(dims []DimensionMember) *Fact {
	cp := *f
	cp.Dimensions = dims
	return &cp
}

// CanonicalKey groups facts that tag the same concept, context and unit.
func (f *Fact) CanonicalKey() string {
	return f.QName + "|" + f.ContextID + "|" + f.UnitID
}

// SignificantDigits counts digits in the value after dropping sign, decimal
// point and leading zeros.
func (f *Fact) SignificantDigits() int {
	var digits strings.Builder
	for _, r := range f.Value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return len(strings.TrimLeft(digits.String(), "0"))
}

// Precision returns decimals, treating absent decimals as the lowest value.
func (f *Fact) Precision() int {
	if f.Decimals == nil {
		return math.MinInt32
	}
	return *f.Decimals
}
