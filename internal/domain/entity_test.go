package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// --- NodeType Tests ---

func TestNodeTypeGraphLabel(t *testing.T) {
	tests := []struct {
		nodeType NodeType
		want     string
	}{
		{NodeConcept, "Concept"},
		{NodeAbstract, "Abstract"},
		{NodeFact, "Fact"},
		{NodeDomain, "Domain"},
		{NodeHypercube, "Hypercube"},
		{NodeType("Unknown"), "Entity"}, // fallback
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.nodeType.GraphLabel())
		})
	}
}

func TestNodeTypeStatKey(t *testing.T) {
	assert.Equal(t, "members", NodeDomain.StatKey()) // domains count as members
	assert.Equal(t, "facts", NodeFact.StatKey())
	assert.Equal(t, "other", NodeType("Unknown").StatKey())
}

// --- Context Tests ---

func TestContextIDOrderIndependent(t *testing.T) {
	a := NewContext("0000320193", "c1", "duration_2024-01-01_2024-12-31",
		[]string{"dimB", "dimA"}, []string{"memB", "memA"})
	b := NewContext("0000320193", "c-other", "duration_2024-01-01_2024-12-31",
		[]string{"dimA", "dimB"}, []string{"memA", "memB"})

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, []string{"dimA", "dimB"}, a.Dimensions)
	assert.NotEqual(t, a.RawID, b.RawID)
}

func TestContextIDDistinguishesInputs(t *testing.T) {
	base := ContextID("1", "p", []string{"d"}, []string{"m"})
	assert.NotEqual(t, base, ContextID("2", "p", []string{"d"}, []string{"m"}))
	assert.NotEqual(t, base, ContextID("1", "q", []string{"d"}, []string{"m"}))
	assert.NotEqual(t, base, ContextID("1", "p", nil, nil))
}

func TestContextIDDoesNotMutateInput(t *testing.T) {
	dims := []string{"z", "a"}
	ContextID("1", "p", dims, nil)
	assert.Equal(t, []string{"z", "a"}, dims)
}

// --- Period Tests ---

func TestNewPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)

	p, err := NewPeriod(PeriodDuration, start, end)
	require.NoError(t, err)
	assert.Equal(t, "duration_2024-01-01_2024-12-31", p.ID)
	assert.Equal(t, "2024-12-31", p.EndDate())

	p, err = NewPeriod(PeriodInstant, end, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "instant_2024-12-31", p.ID)
	assert.Empty(t, p.EndDate())

	p, err = NewPeriod(PeriodForever, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "forever", p.ID)
}

func TestNewPeriodMissingDates(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewPeriod(PeriodDuration, day, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = NewPeriod(PeriodInstant, time.Time{}, day)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = NewPeriod(PeriodType("eternal"), day, day)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-30T00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.June, d.Month())

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("30/06/2024")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

// --- Unit Tests ---

func TestNewUnit(t *testing.T) {
	assert.Equal(t, "iso4217_USD", NewUnit("iso4217", "USD").ID)
	assert.Equal(t, "shares", NewUnit("", "shares").ID)
}

// --- Concept Tests ---

func TestNewAbstractConcept(t *testing.T) {
	el := taxonomy.Element{
		QName:    taxonomy.QName{Namespace: "http://fasb.org/us-gaap/2024", Prefix: "us-gaap", Local: "AssetsAbstract"},
		Abstract: true,
	}
	c, err := NewAbstractConcept(el)
	require.NoError(t, err)
	assert.True(t, c.Abstract)
	assert.Equal(t, NodeAbstract, c.NodeType())
	assert.Equal(t, "none", c.Balance)

	el.Abstract = false
	_, err = NewAbstractConcept(el)
	assert.ErrorIs(t, err, ErrNotAbstract)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	rev := NewConcept(taxonomy.Element{QName: taxonomy.QName{Prefix: "us-gaap", Local: "Revenues"}})
	abs := NewConcept(taxonomy.Element{QName: taxonomy.QName{Prefix: "us-gaap", Local: "IncomeAbstract"}, Abstract: true})

	assert.Same(t, rev, r.RegisterConcept(rev))
	assert.Same(t, abs, r.RegisterConcept(abs)) // routed to the abstract table

	dup := NewConcept(taxonomy.Element{QName: taxonomy.QName{Prefix: "us-gaap", Local: "Revenues"}})
	assert.Same(t, rev, r.RegisterConcept(dup))

	_, ok := r.Concept(abs.ID)
	assert.False(t, ok)
	got, ok := r.Lookup(abs.ID)
	require.True(t, ok)
	assert.Same(t, abs, got)
	assert.Len(t, r.Concepts(), 1)
	assert.Len(t, r.Abstracts(), 1)

	f := &Fact{ID: "f1"}
	r.AttachFact(rev, f)
	assert.Equal(t, []*Fact{f}, rev.Facts())
}

// --- Dimension Tests ---

func TestDimensionMembers(t *testing.T) {
	d := NewDimension("42", "us-gaap:SegmentAxis")
	d.Domain = NewDomain("42", d.QName, "us-gaap:SegmentDomain")

	assert.False(t, d.AddMember(NewMember("42", d.QName, "us-gaap:SegmentDomain", "", 0)))
	assert.True(t, d.AddMember(NewMember("42", d.QName, "acme:EastMember", "us-gaap:SegmentDomain", 1)))
	assert.False(t, d.AddMember(NewMember("42", d.QName, "acme:EastMember", "us-gaap:SegmentDomain", 1)))

	assert.Len(t, d.Members, 1)
	assert.True(t, d.HasMember("acme:EastMember"))
	assert.True(t, d.HasMember("us-gaap:SegmentDomain"))
	assert.False(t, d.HasMember("acme:WestMember"))
	assert.False(t, d.HasMember(""))
	assert.Equal(t, 0, d.Domain.Level)
	assert.Empty(t, d.Domain.Parent)
	assert.Equal(t, "42:us-gaap:SegmentAxis", d.ID)
}

// --- Fact Tests ---

func TestParseDecimals(t *testing.T) {
	assert.Nil(t, ParseDecimals(""))
	assert.Nil(t, ParseDecimals("abc"))
	assert.Equal(t, -6, *ParseDecimals("-6"))
	assert.Equal(t, DecimalsINF, *ParseDecimals("INF"))
}

func TestFactSignificantDigits(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"1000", 4},
		{"-0.0500", 3},
		{"0", 0},
		{"123.45", 5},
	}
	for _, tt := range tests {
		f := &Fact{Value: tt.value}
		assert.Equal(t, tt.want, f.SignificantDigits(), tt.value)
	}
}

func TestFactWithDimensionsIsShallowCopy(t *testing.T) {
	orig := &Fact{ID: "f", Dimensions: []DimensionMember{{Dimension: "d"}}}
	cp := orig.WithDimensions([]DimensionMember{{Dimension: "d", Member: "m"}})

	assert.Equal(t, "", orig.Dimensions[0].Member)
	assert.Equal(t, "m", cp.Dimensions[0].Member)
	assert.Equal(t, orig.ID, cp.ID)
}

func TestFactDecimal(t *testing.T) {
	f := &Fact{Value: " 300 "}
	v, err := f.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "300", v.String())
}
