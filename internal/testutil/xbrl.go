// Package testutil provides shared fixtures for tests: small in-memory
// filings built on taxonomy.MemSource, and file helpers.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/taxonomy"
)

const (
	NamespaceGAAP = "http://fasb.org/us-gaap/2024"
	NamespaceAcme = "http://acme.example/20241231"
	NamespaceISO  = "http://www.xbrl.org/2003/iso4217"

	CIK      = "0000320193"
	ReportID = "0000320193-25-000008"

	RoleIncome   = "http://acme.example/role/IncomeStatement"
	RoleSegments = "http://acme.example/role/SegmentRevenue"
	RoleRegions  = "http://acme.example/role/Regions"
)

// GAAP returns a us-gaap qname.
func GAAP(local string) taxonomy.QName {
	return taxonomy.QName{Namespace: NamespaceGAAP, Prefix: "us-gaap", Local: local}
}

// Acme returns a filer-extension qname.
func Acme(local string) taxonomy.QName {
	return taxonomy.QName{Namespace: NamespaceAcme, Prefix: "acme", Local: local}
}

var (
	sgItem      = taxonomy.QName{Namespace: taxonomy.NamespaceXBRLI, Prefix: "xbrli", Local: "item"}
	sgHypercube = taxonomy.QName{Namespace: taxonomy.NamespaceXBRLDT, Prefix: "xbrldt", Local: "hypercubeItem"}
	sgDimension = taxonomy.QName{Namespace: taxonomy.NamespaceXBRLDT, Prefix: "xbrldt", Local: "dimensionItem"}
)

// Item is a monetary fact-bearing concept.
func Item(q taxonomy.QName) taxonomy.Element {
	return taxonomy.Element{
		QName:             q,
		SubstitutionGroup: sgItem,
		Nillable:          true,
		PeriodType:        taxonomy.PeriodDuration,
		TypeName:          "monetaryItemType",
		BaseType:          "decimal",
		Balance:           "credit",
		Label:             q.Local,
	}
}

// Abstract is a presentation-only heading.
func Abstract(q taxonomy.QName) taxonomy.Element {
	return taxonomy.Element{
		QName:             q,
		SubstitutionGroup: sgItem,
		Abstract:          true,
		Nillable:          true,
		PeriodType:        taxonomy.PeriodDuration,
		TypeName:          "stringItemType",
		Label:             q.Local,
	}
}

// Table is a hypercube element.
func Table(q taxonomy.QName) taxonomy.Element {
	return taxonomy.Element{
		QName:             q,
		SubstitutionGroup: sgHypercube,
		Abstract:          true,
		Nillable:          true,
		PeriodType:        taxonomy.PeriodDuration,
		TypeName:          "stringItemType",
	}
}

// Axis is an explicit dimension element.
func Axis(q taxonomy.QName) taxonomy.Element {
	return taxonomy.Element{
		QName:             q,
		SubstitutionGroup: sgDimension,
		Abstract:          true,
		Nillable:          true,
		PeriodType:        taxonomy.PeriodDuration,
		TypeName:          "stringItemType",
		Label:             q.Local,
	}
}

// TypedAxis is a typed dimension element.
func TypedAxis(q taxonomy.QName) taxonomy.Element {
	el := Axis(q)
	el.TypedDomainRef = "#" + q.Local + "Domain"
	return el
}

// DomainMember is a domain or member element.
func DomainMember(q taxonomy.QName) taxonomy.Element {
	return taxonomy.Element{
		QName:             q,
		SubstitutionGroup: sgItem,
		Abstract:          true,
		Nillable:          true,
		PeriodType:        taxonomy.PeriodDuration,
		TypeName:          "domainItemType",
		IsDomainMember:    true,
		Label:             q.Local,
	}
}

// LineItems is a primary-item anchor.
func LineItems(q taxonomy.QName) taxonomy.Element {
	return taxonomy.Element{
		QName:             q,
		SubstitutionGroup: sgItem,
		Abstract:          true,
		Nillable:          true,
		PeriodType:        taxonomy.PeriodDuration,
		TypeName:          "stringItemType",
	}
}

// NewArc builds an arc with weight 1.
func NewArc(role taxonomy.ArcRole, linkRole string, from, to taxonomy.QName, order float64) taxonomy.Arc {
	return taxonomy.Arc{ArcRole: role, LinkRole: linkRole, From: from, To: to, Weight: 1, Order: order}
}

// Context2024 is a fiscal-2024 duration context.
func Context2024(id string, dims ...taxonomy.DimensionValue) taxonomy.ContextElement {
	return taxonomy.ContextElement{
		ID:           id,
		EntityScheme: "http://www.sec.gov/CIK",
		EntityID:     CIK,
		Start:        "2024-01-01",
		End:          "2024-12-31",
		Dimensions:   dims,
	}
}

// Explicit is an explicit dimension qualifier.
func Explicit(dim, member taxonomy.QName) taxonomy.DimensionValue {
	return taxonomy.DimensionValue{Dimension: dim, Member: member}
}

// USD is the dollar unit.
func USD() taxonomy.UnitElement {
	return taxonomy.UnitElement{ID: "usd", Namespace: "iso4217", Value: "USD"}
}

// Money is a numeric USD fact with decimals -6.
func Money(id string, q taxonomy.QName, contextID, value string) taxonomy.FactElement {
	return taxonomy.FactElement{
		ID:        id,
		QName:     q,
		ContextID: contextID,
		UnitID:    "usd",
		Numeric:   true,
		Value:     value,
		Decimals:  "-6",
	}
}

// SegmentOptions shapes the segment fixture's hypercube.
type SegmentOptions struct {
	Closed  bool
	NotAll  bool
	Default bool // give SegmentAxis a default member
}

// SegmentFiling is a filing with one hypercube, acme:SegmentTable, declaring
// acme:SegmentAxis with members East and West, qualifying us-gaap:Revenues.
// A second axis, acme:RegionAxis, exists taxonomy-wide (member North) but
// is not declared by the table. Facts: East=200, West=100, total=300.
func SegmentFiling(opts SegmentOptions) *taxonomy.MemSource {
	arcRole := taxonomy.ArcAll
	if opts.NotAll {
		arcRole = taxonomy.ArcNotAll
	}
	closed := "false"
	if opts.Closed {
		closed = "true"
	}
	all := NewArc(arcRole, RoleSegments, Acme("SegmentLineItems"), Acme("SegmentTable"), 1)
	all.Closed = closed

	src := taxonomy.NewMemSource("https://www.sec.gov/Archives/edgar/data/320193/acme-20241231.htm").
		AddRole(RoleSegments, "200000 - Disclosure - Segment Revenue").
		AddRole(RoleRegions, "300000 - Disclosure - Regions").
		AddElement(Abstract(GAAP("RevenueAbstract"))).
		AddElement(Item(GAAP("Revenues"))).
		AddElement(Table(Acme("SegmentTable"))).
		AddElement(LineItems(Acme("SegmentLineItems"))).
		AddElement(Axis(Acme("SegmentAxis"))).
		AddElement(DomainMember(Acme("SegmentDomain"))).
		AddElement(DomainMember(Acme("EastMember"))).
		AddElement(DomainMember(Acme("WestMember"))).
		AddElement(Axis(Acme("RegionAxis"))).
		AddElement(DomainMember(Acme("RegionDomain"))).
		AddElement(DomainMember(Acme("NorthMember"))).
		AddArc(NewArc(taxonomy.ArcParentChild, RoleSegments, GAAP("RevenueAbstract"), GAAP("Revenues"), 1)).
		AddArc(all).
		AddArc(NewArc(taxonomy.ArcHypercubeDimension, RoleSegments, Acme("SegmentTable"), Acme("SegmentAxis"), 1)).
		AddArc(NewArc(taxonomy.ArcDimensionDomain, RoleSegments, Acme("SegmentAxis"), Acme("SegmentDomain"), 1)).
		AddArc(NewArc(taxonomy.ArcDomainMember, RoleSegments, Acme("SegmentDomain"), Acme("EastMember"), 1)).
		AddArc(NewArc(taxonomy.ArcDomainMember, RoleSegments, Acme("SegmentDomain"), Acme("WestMember"), 2)).
		AddArc(NewArc(taxonomy.ArcDomainMember, RoleSegments, Acme("SegmentLineItems"), GAAP("Revenues"), 1)).
		AddArc(NewArc(taxonomy.ArcDimensionDomain, RoleRegions, Acme("RegionAxis"), Acme("RegionDomain"), 1)).
		AddArc(NewArc(taxonomy.ArcDomainMember, RoleRegions, Acme("RegionDomain"), Acme("NorthMember"), 1)).
		AddUnit(USD()).
		AddContext(Context2024("c-total")).
		AddContext(Context2024("c-east", Explicit(Acme("SegmentAxis"), Acme("EastMember")))).
		AddContext(Context2024("c-west", Explicit(Acme("SegmentAxis"), Acme("WestMember")))).
		AddFact(Money("f-total", GAAP("Revenues"), "c-total", "300")).
		AddFact(Money("f-east", GAAP("Revenues"), "c-east", "200")).
		AddFact(Money("f-west", GAAP("Revenues"), "c-west", "100"))

	if opts.Default {
		src.AddArc(NewArc(taxonomy.ArcDimensionDefault, RoleSegments, Acme("SegmentAxis"), Acme("SegmentDomain"), 1))
	}
	return src
}

// RevenueFiling is an income statement where Revenues sums ProductRevenue
// and ServiceRevenue. serviceValue sets the ServiceRevenue fact.
func RevenueFiling(serviceValue string) *taxonomy.MemSource {
	sum := func(child string, order float64) taxonomy.Arc {
		return NewArc(taxonomy.ArcSummationItem, RoleIncome, GAAP("Revenues"), Acme(child), order)
	}
	return taxonomy.NewMemSource("https://www.sec.gov/Archives/edgar/data/320193/acme-20241231.htm").
		AddRole(RoleIncome, "100000 - Statement - Consolidated Statements of Income").
		AddElement(Abstract(GAAP("IncomeStatementAbstract"))).
		AddElement(Item(GAAP("Revenues"))).
		AddElement(Item(Acme("ProductRevenue"))).
		AddElement(Item(Acme("ServiceRevenue"))).
		AddArc(NewArc(taxonomy.ArcParentChild, RoleIncome, GAAP("IncomeStatementAbstract"), GAAP("Revenues"), 1)).
		AddArc(NewArc(taxonomy.ArcParentChild, RoleIncome, GAAP("Revenues"), Acme("ProductRevenue"), 1)).
		AddArc(NewArc(taxonomy.ArcParentChild, RoleIncome, GAAP("Revenues"), Acme("ServiceRevenue"), 2)).
		AddArc(sum("ProductRevenue", 1)).
		AddArc(sum("ServiceRevenue", 2)).
		AddUnit(USD()).
		AddContext(Context2024("FY2024")).
		AddFact(Money("f-rev", GAAP("Revenues"), "FY2024", "300")).
		AddFact(Money("f-prod", Acme("ProductRevenue"), "FY2024", "200")).
		AddFact(Money("f-serv", Acme("ServiceRevenue"), "FY2024", serviceValue))
}

// WriteFile creates a file with the given content in dir.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// SetEnv sets an environment variable for the duration of the test.
func SetEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}
