package dimension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/taxonomy"
	"github.com/joss/xbrlgraph/internal/testutil"
)

func TestBuildSegmentGraph(t *testing.T) {
	g := Build(testutil.SegmentFiling(testutil.SegmentOptions{}), testutil.CIK, nil)

	assert.Equal(t, 2, g.Len())
	assert.Zero(t, g.Cycles)

	seg, ok := g.Dimension("acme:SegmentAxis")
	require.True(t, ok)
	assert.True(t, seg.Explicit)
	assert.False(t, seg.Typed)
	require.NotNil(t, seg.Domain)
	assert.Equal(t, "acme:SegmentDomain", seg.Domain.QName)
	assert.Equal(t, 0, seg.Domain.Level)
	assert.NotContains(t, seg.Members, "acme:SegmentDomain")

	east, ok := seg.Member("acme:EastMember")
	require.True(t, ok)
	assert.Equal(t, 1, east.Level)
	assert.Equal(t, "acme:SegmentDomain", east.Parent)
	assert.Equal(t, domain.MemberID(testutil.CIK, "acme:SegmentAxis", "acme:EastMember"), east.ID)

	assert.True(t, g.IsValidMember("acme:SegmentAxis", "acme:WestMember"))
	assert.True(t, g.IsValidMember("acme:SegmentAxis", "acme:SegmentDomain"))
	assert.False(t, g.IsValidMember("acme:SegmentAxis", "acme:NorthMember"))
	assert.False(t, g.IsValidMember("acme:UnknownAxis", "acme:EastMember"))

	_, ok = g.DefaultMember("acme:SegmentAxis")
	assert.False(t, ok)
}

func TestBuildDefaultMember(t *testing.T) {
	g := Build(testutil.SegmentFiling(testutil.SegmentOptions{Default: true}), testutil.CIK, nil)

	def, ok := g.DefaultMember("acme:SegmentAxis")
	require.True(t, ok)
	assert.Equal(t, "acme:SegmentDomain", def.QName)
	assert.Equal(t, 0, def.Level)
}

func TestBuildDefaultOutsideTreeIsInserted(t *testing.T) {
	src := taxonomy.NewMemSource("doc").
		AddElement(testutil.Axis(testutil.Acme("ScenarioAxis"))).
		AddArc(testutil.NewArc(taxonomy.ArcDimensionDomain, "r", testutil.Acme("ScenarioAxis"), testutil.Acme("ScenarioDomain"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDimensionDefault, "r", testutil.Acme("ScenarioAxis"), testutil.Acme("ActualMember"), 1))

	g := Build(src, "42", nil)
	dim, ok := g.Dimension("acme:ScenarioAxis")
	require.True(t, ok)

	def, ok := g.DefaultMember("acme:ScenarioAxis")
	require.True(t, ok)
	assert.Equal(t, "acme:ActualMember", def.QName)
	assert.Equal(t, "acme:ScenarioDomain", def.Parent)
	assert.Equal(t, 1, def.Level)
	assert.Contains(t, dim.Members, "acme:ActualMember")
}

func TestBuildTypedDimensionHasNoDomain(t *testing.T) {
	src := taxonomy.NewMemSource("doc").
		AddElement(testutil.TypedAxis(testutil.Acme("ContractAxis")))

	g := Build(src, "42", nil)
	dim, ok := g.Dimension("acme:ContractAxis")
	require.True(t, ok)
	assert.True(t, dim.Typed)
	assert.False(t, dim.Explicit)
	assert.Nil(t, dim.Domain)
	assert.Empty(t, g.DimensionDomainRelationships())
}

func TestBuildNestedMembers(t *testing.T) {
	src := taxonomy.NewMemSource("doc").
		AddElement(testutil.Axis(testutil.Acme("ProductAxis"))).
		AddArc(testutil.NewArc(taxonomy.ArcDimensionDomain, "r", testutil.Acme("ProductAxis"), testutil.Acme("ProductDomain"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDomainMember, "r", testutil.Acme("ProductDomain"), testutil.Acme("HardwareMember"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDomainMember, "r", testutil.Acme("HardwareMember"), testutil.Acme("PhoneMember"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDomainMember, "r", testutil.Acme("PhoneMember"), testutil.Acme("FoldableMember"), 1))

	g := Build(src, "42", nil)
	dim, _ := g.Dimension("acme:ProductAxis")

	foldable, ok := dim.Member("acme:FoldableMember")
	require.True(t, ok)
	assert.Equal(t, 3, foldable.Level)
	assert.Equal(t, "acme:PhoneMember", foldable.Parent)

	domainEdges := g.DimensionMemberRelationships()
	require.Len(t, domainEdges, 1)
	assert.Equal(t, dim.Domain.ID, domainEdges[0].From)
	assert.Equal(t, domain.MemberID("42", "acme:ProductAxis", "acme:HardwareMember"), domainEdges[0].To)
	assert.Equal(t, domain.RelHasMember, domainEdges[0].Type)

	hierarchy := g.MemberHierarchyRelationships()
	require.Len(t, hierarchy, 2)
	for _, rel := range hierarchy {
		assert.Equal(t, domain.RelParentOf, rel.Type)
		assert.NotEqual(t, dim.Domain.ID, rel.From)
	}
}

func TestBuildMemberCycleIsSkipped(t *testing.T) {
	src := taxonomy.NewMemSource("doc").
		AddElement(testutil.Axis(testutil.Acme("LoopAxis"))).
		AddArc(testutil.NewArc(taxonomy.ArcDimensionDomain, "r", testutil.Acme("LoopAxis"), testutil.Acme("LoopDomain"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDomainMember, "r", testutil.Acme("LoopDomain"), testutil.Acme("AMember"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDomainMember, "r", testutil.Acme("AMember"), testutil.Acme("BMember"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDomainMember, "r", testutil.Acme("BMember"), testutil.Acme("AMember"), 1)).
		AddArc(testutil.NewArc(taxonomy.ArcDomainMember, "r", testutil.Acme("BMember"), testutil.Acme("LoopDomain"), 2))

	g := Build(src, "42", nil)
	assert.Equal(t, 2, g.Cycles)

	dim, _ := g.Dimension("acme:LoopAxis")
	assert.Len(t, dim.Members, 2)
	b, _ := dim.Member("acme:BMember")
	assert.Equal(t, 2, b.Level)
}

func TestRelationshipsAreDeterministic(t *testing.T) {
	src := testutil.SegmentFiling(testutil.SegmentOptions{Default: true})
	a := Build(src, testutil.CIK, nil)
	b := Build(src, testutil.CIK, nil)

	assert.Equal(t, a.DimensionDomainRelationships(), b.DimensionDomainRelationships())
	assert.Equal(t, a.DimensionMemberRelationships(), b.DimensionMemberRelationships())
	assert.Len(t, a.DimensionDomainRelationships(), 2)
	assert.Len(t, a.DimensionMemberRelationships(), 3) // East, West, North
	assert.Empty(t, a.MemberHierarchyRelationships())

	defaults := a.DefaultRelationships()
	require.Len(t, defaults, 1)
	assert.Equal(t, domain.RelHasDefault, defaults[0].Type)
}
