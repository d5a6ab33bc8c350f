package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	sgItem      = QName{Namespace: NamespaceXBRLI, Prefix: "xbrli", Local: "item"}
	sgHypercube = QName{Namespace: NamespaceXBRLDT, Prefix: "xbrldt", Local: "hypercubeItem"}
	sgDimension = QName{Namespace: NamespaceXBRLDT, Prefix: "xbrldt", Local: "dimensionItem"}
)

func gaap(local string) QName {
	return QName{Namespace: "http://fasb.org/us-gaap/2024", Prefix: "us-gaap", Local: local}
}

func TestClassifyRules(t *testing.T) {
	tests := []struct {
		name string
		el   Element
		want Category
	}{
		{
			name: "concrete item is a concept",
			el:   Element{QName: gaap("Revenues"), SubstitutionGroup: sgItem, PeriodType: PeriodDuration},
			want: CategoryConcept,
		},
		{
			name: "concrete item named like a member is still a concept",
			el:   Element{QName: gaap("SegmentMember"), SubstitutionGroup: sgItem, PeriodType: PeriodDuration, Nillable: true},
			want: CategoryConcept,
		},
		{
			name: "hypercube",
			el:   Element{QName: gaap("StatementTable"), SubstitutionGroup: sgHypercube, Abstract: true, PeriodType: PeriodDuration, Nillable: true},
			want: CategoryHypercube,
		},
		{
			name: "hypercube that is not nillable falls through",
			el:   Element{QName: gaap("StatementTable"), SubstitutionGroup: sgHypercube, Abstract: true, PeriodType: PeriodDuration},
			want: CategoryAbstract,
		},
		{
			name: "dimension",
			el:   Element{QName: gaap("StatementBusinessSegmentsAxis"), SubstitutionGroup: sgDimension, Abstract: true, PeriodType: PeriodDuration, Nillable: true},
			want: CategoryDimension,
		},
		{
			name: "member by suffix",
			el:   Element{QName: gaap("EastMember"), SubstitutionGroup: sgItem, Abstract: true, PeriodType: PeriodDuration, Nillable: true},
			want: CategoryMember,
		},
		{
			name: "domain by suffix",
			el:   Element{QName: gaap("SegmentDomain"), SubstitutionGroup: sgItem, Abstract: true, PeriodType: PeriodDuration, Nillable: true},
			want: CategoryMember,
		},
		{
			name: "member by declared type",
			el:   Element{QName: gaap("East"), TypeName: "domainItemType", Abstract: true, PeriodType: PeriodDuration, Nillable: true},
			want: CategoryMember,
		},
		{
			name: "abstract by suffix",
			el:   Element{QName: gaap("IncomeStatementAbstract"), SubstitutionGroup: sgItem, Abstract: true, PeriodType: PeriodDuration},
			want: CategoryAbstract,
		},
		{
			name: "roll forward abstract",
			el:   Element{QName: gaap("EquityRollForward"), SubstitutionGroup: sgItem, Abstract: true, PeriodType: PeriodInstant},
			want: CategoryAbstract,
		},
		{
			name: "line items",
			el:   Element{QName: gaap("StatementLineItems"), SubstitutionGroup: sgItem, Abstract: true, PeriodType: PeriodDuration, Nillable: true},
			want: CategoryLineItems,
		},
		{
			name: "guidance by type",
			el:   Element{QName: gaap("Something"), TypeName: "guidanceItemType", Abstract: true},
			want: CategoryGuidance,
		},
		{
			name: "guidance by name",
			el:   Element{QName: gaap("ImplementationGuidanceNote"), Abstract: true},
			want: CategoryGuidance,
		},
		{
			name: "deprecated by name",
			el:   Element{QName: gaap("OldDeprecatedThing"), Abstract: true},
			want: CategoryDeprecated,
		},
		{
			name: "deprecated by type",
			el:   Element{QName: gaap("Old"), TypeName: "DeprecatedItemType", Abstract: true},
			want: CategoryDeprecated,
		},
		{
			name: "fallback domain member flag",
			el:   Element{QName: gaap("Odd"), IsDomainMember: true},
			want: CategoryMember,
		},
		{
			name: "fallback abstract flag",
			el:   Element{QName: gaap("Heading"), Abstract: true},
			want: CategoryAbstract,
		},
		{
			name: "fallback linkbase group",
			el:   Element{QName: gaap("presentationArc"), SubstitutionGroup: QName{Prefix: "link", Local: "arc"}},
			want: CategoryLinkbase,
		},
		{
			name: "fallback date element",
			el:   Element{QName: QName{Prefix: "dei", Local: "DocumentPeriodEndDate"}},
			want: CategoryDate,
		},
		{
			name: "nothing matches",
			el:   Element{QName: gaap("Mystery")},
			want: CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := tt.el
			assert.Equal(t, tt.want, Classify(&el))
		})
	}
}

func TestClassifyIgnoresIrrelevantAttributes(t *testing.T) {
	base := Element{QName: gaap("Revenues"), SubstitutionGroup: sgItem, PeriodType: PeriodDuration}
	variants := []Element{base, base, base}
	variants[1].Balance = "credit"
	variants[1].Label = "Revenues"
	variants[2].BaseType = "monetaryItemType"
	variants[2].TypeName = "monetaryItemType"

	for _, v := range variants {
		v := v
		assert.Equal(t, CategoryConcept, Classify(&v))
	}
}

func TestClassifyMalformed(t *testing.T) {
	assert.Equal(t, CategoryOther, Classify(nil))
	assert.Equal(t, CategoryOther, Classify(&Element{}))
	assert.Equal(t, CategoryOther, Classify(&Element{Abstract: true, SubstitutionGroup: sgHypercube}))
}

func TestParseQName(t *testing.T) {
	ns := map[string]string{"us-gaap": "http://fasb.org/us-gaap/2024"}

	q := ParseQName("us-gaap:Revenues", ns)
	assert.Equal(t, "http://fasb.org/us-gaap/2024", q.Namespace)
	assert.Equal(t, "us-gaap:Revenues", q.String())
	assert.Equal(t, "http://fasb.org/us-gaap/2024:Revenues", q.ID())

	bare := ParseQName("Revenues", ns)
	assert.Equal(t, "Revenues", bare.String())
	assert.Equal(t, "Revenues", bare.ID())
}

func TestParseArcRole(t *testing.T) {
	r, ok := ParseArcRole("summation-item")
	assert.True(t, ok)
	assert.Equal(t, ArcSummationItem, r)
	assert.True(t, r.IsCalculation())

	r, ok = ParseArcRole(string(ArcAll))
	assert.True(t, ok)
	assert.True(t, r.IsDefinition())
	assert.Equal(t, "all", r.Short())

	_, ok = ParseArcRole("essence-alias")
	assert.False(t, ok)
}
