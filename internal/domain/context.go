package domain

import (
	"sort"
	"strings"
)

// Unit is a measurement unit attached to numeric facts.
type Unit struct {
	ID        string
	Namespace string
	Value     string
}

// NewUnit derives the id from namespace and value, or the value alone.
func NewUnit(namespace, value string) *Unit {
	id := value
	if namespace != "" {
		id = namespace + "_" + value
	}
	return &Unit{ID: id, Namespace: namespace, Value: value}
}

// Context is the (company, period, dimensional qualifiers) tuple a fact is
// reported against. Contexts with the same economic meaning share an id
// regardless of the raw id the filing gave them.
type Context struct {
	ID         string
	RawID      string
	CIK        string
	PeriodID   string
	Dimensions []string // dimension ids, sorted
	Members    []string // member ids, sorted
}

// NewContext builds a context. Dimension and member order is irrelevant.
func NewContext(cik, rawID, periodID string, dimensionIDs, memberIDs []string) *Context {
	dims := sortedCopy(dimensionIDs)
	members := sortedCopy(memberIDs)
	return &Context{
		ID:         ContextID(cik, periodID, dims, members),
		RawID:      rawID,
		CIK:        cik,
		PeriodID:   periodID,
		Dimensions: dims,
		Members:    members,
	}
}

// ContextID hashes cik, period and the sorted dimension and member lists.
func ContextID(cik, periodID string, dimensionIDs, memberIDs []string) string {
	dims := sortedCopy(dimensionIDs)
	members := sortedCopy(memberIDs)
	return HashID(cik, periodID, strings.Join(dims, ","), strings.Join(members, ","))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
