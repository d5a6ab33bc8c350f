package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/network"
	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/taxonomy"
	"github.com/joss/xbrlgraph/internal/testutil"
)

const revenueYAML = `
document_uri: https://www.sec.gov/Archives/edgar/data/320193/acme-20241231.htm
cik: "0000320193"
report_id: 0000320193-25-000008
form_type: 10-K
period_of_report: "2024-12-31"
namespaces:
  us-gaap: http://fasb.org/us-gaap/2024
  acme: http://acme.example/20241231
  xbrli: http://www.xbrl.org/2003/instance
roles:
  - uri: http://acme.example/role/IncomeStatement
    definition: 100000 - Statement - Consolidated Statements of Income
elements:
  - {qname: us-gaap:IncomeStatementAbstract, substitution_group: xbrli:item, abstract: true, nillable: true, period_type: duration}
  - {qname: us-gaap:Revenues, substitution_group: xbrli:item, nillable: true, period_type: duration, type: monetaryItemType, balance: credit}
  - {qname: acme:ProductRevenue, substitution_group: xbrli:item, nillable: true, period_type: duration, type: monetaryItemType, balance: credit}
  - {qname: acme:ServiceRevenue, substitution_group: xbrli:item, nillable: true, period_type: duration, type: monetaryItemType, balance: credit}
arcs:
  - {arcrole: parent-child, role: http://acme.example/role/IncomeStatement, from: us-gaap:IncomeStatementAbstract, to: us-gaap:Revenues, order: 1}
  - {arcrole: parent-child, role: http://acme.example/role/IncomeStatement, from: us-gaap:Revenues, to: acme:ProductRevenue, order: 1}
  - {arcrole: summation-item, role: http://acme.example/role/IncomeStatement, from: us-gaap:Revenues, to: acme:ProductRevenue, order: 1}
  - {arcrole: "http://www.xbrl.org/2003/arcrole/summation-item", role: http://acme.example/role/IncomeStatement, from: us-gaap:Revenues, to: acme:ServiceRevenue, order: 2, weight: -1}
contexts:
  - id: FY2024
    entity: {scheme: http://www.sec.gov/CIK, id: "0000320193"}
    period: {start: "2024-01-01", end: "2024-12-31"}
  - id: FY2024-east
    entity: {scheme: http://www.sec.gov/CIK, id: "0000320193"}
    period: {start: "2024-01-01", end: "2024-12-31"}
    dimensions:
      - {dimension: acme:SegmentAxis, member: acme:EastMember}
      - {dimension: acme:CustomerAxis, typed_value: "42"}
units:
  - {id: usd, measure: "iso4217:USD"}
  - {id: pure, measure: pure}
facts:
  - {id: f-rev, concept: us-gaap:Revenues, context: FY2024, unit: usd, value: "300", decimals: "-6"}
  - {id: f-prod, concept: acme:ProductRevenue, context: FY2024, unit: usd, value: "200", decimals: "-6"}
  - {id: f-note, concept: acme:ProductRevenue, context: FY2024, value: "text"}
  - {id: f-nil, concept: acme:ServiceRevenue, context: FY2024, unit: usd, nil: true, numeric: true}
`

func TestDecodeYAML(t *testing.T) {
	s, err := Decode([]byte(revenueYAML))
	require.NoError(t, err)

	meta := s.Meta()
	assert.Equal(t, testutil.CIK, meta.CIK)
	assert.Equal(t, "10-K", meta.FormType)
	assert.Equal(t, "2024-12-31", meta.PeriodOfReport)

	src, err := s.Source()
	require.NoError(t, err)

	rev, ok := src.Element(testutil.GAAP("Revenues"))
	require.True(t, ok)
	assert.Equal(t, taxonomy.CategoryConcept, taxonomy.Classify(&rev))
	assert.Equal(t, "credit", rev.Balance)

	sums := src.Arcs(taxonomy.ArcSummationItem, testutil.RoleIncome)
	require.Len(t, sums, 2)
	assert.Equal(t, 1.0, sums[0].Weight)
	assert.Equal(t, -1.0, sums[1].Weight)
	assert.Equal(t, testutil.NamespaceAcme, sums[1].To.Namespace)

	ctxs := src.Contexts()
	require.Len(t, ctxs, 2)
	require.Len(t, ctxs[1].Dimensions, 2)
	assert.Equal(t, "EastMember", ctxs[1].Dimensions[0].Member.Local)
	assert.True(t, ctxs[1].Dimensions[1].Member.IsZero())
	assert.Equal(t, "42", ctxs[1].Dimensions[1].TypedValue)

	units := src.Units()
	assert.Equal(t, taxonomy.UnitElement{ID: "usd", Namespace: "iso4217", Value: "USD"}, units[0])
	assert.Equal(t, taxonomy.UnitElement{ID: "pure", Value: "pure"}, units[1])

	facts := src.Facts()
	require.Len(t, facts, 4)
	assert.True(t, facts[0].Numeric)
	assert.False(t, facts[2].Numeric)
	assert.True(t, facts[3].Nil)
	assert.True(t, facts[3].Numeric)
}

func TestDecodeJSON(t *testing.T) {
	doc := `{
	  "document_uri": "https://example.com/r.htm",
	  "namespaces": {"us-gaap": "http://fasb.org/us-gaap/2024"},
	  "arcs": [{"arcrole": "all", "role": "r", "from": "us-gaap:A", "to": "us-gaap:B", "closed": "true"}],
	  "facts": [{"id": "f1", "concept": "us-gaap:Revenues", "context": "c1", "unit": "usd", "value": "1"}]
	}`
	s, err := Decode([]byte(doc))
	require.NoError(t, err)
	src, err := s.Source()
	require.NoError(t, err)

	arcs := src.Arcs(taxonomy.ArcAll, "")
	require.Len(t, arcs, 1)
	assert.Equal(t, "true", arcs[0].Closed)
	assert.Equal(t, testutil.GAAP("Revenues"), src.Facts()[0].QName)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("cik: [unclosed"))
	assert.Error(t, err)

	_, err = Decode([]byte("cik: \"1\"\n"))
	assert.ErrorIs(t, err, ErrMissingField)

	s, err := Decode([]byte("document_uri: x\narcs:\n  - {arcrole: essence-alias, from: a, to: b}\n"))
	require.NoError(t, err)
	_, err = s.Source()
	assert.ErrorIs(t, err, ErrUnknownArcRole)

	s, err = Decode([]byte("document_uri: x\nfacts:\n  - {id: f1, value: \"1\"}\n"))
	require.NoError(t, err)
	_, err = s.Source()
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestLoadFeedsReport(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "acme.yaml", revenueYAML)
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)

	rep := report.Build(f.Source, f.Meta, nil)
	assert.Equal(t, testutil.ReportID, rep.ID)
	assert.Equal(t, 4, rep.Stats.Facts)

	nets, _ := network.Discover(f.Source, nil)
	require.Len(t, nets, 1)
	assert.True(t, nets[0].IsPresentation())
	assert.True(t, nets[0].IsCalculation())
}
