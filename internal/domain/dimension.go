package domain

import "sort"

// Member is one value on a dimension. Parent is a qname reference into the
// owning dimension's member table, never a pointer.
type Member struct {
	ID        string
	QName     string
	Label     string
	CIK       string
	Dimension string // owning dimension qname
	Parent    string // parent member qname, empty for top level
	Level     int
}

// NewMember builds a member scoped to one filer and dimension.
func NewMember(cik, dimension, qname, parent string, level int) *Member {
	return &Member{
		ID:        MemberID(cik, dimension, qname),
		QName:     qname,
		CIK:       cik,
		Dimension: dimension,
		Parent:    parent,
		Level:     level,
	}
}

// MemberID is the filer-scoped member identifier.
func MemberID(cik, dimension, member string) string {
	return cik + ":" + dimension + ":" + member
}

// TypedMemberID identifies a typed dimension value inside a context. It
// never names a Member node.
func TypedMemberID(cik, dimension, value string) string {
	return MemberID(cik, dimension, "typed:"+value)
}

// Domain is the root member of a dimension.
type Domain struct {
	Member
}

// NewDomain builds a domain: a member with no parent at level 0.
func NewDomain(cik, dimension, qname string) *Domain {
	return &Domain{Member: *NewMember(cik, dimension, qname, "", 0)}
}

// Dimension is an XBRL axis with its domain and hierarchical members.
type Dimension struct {
	ID       string
	QName    string
	Label    string
	CIK      string
	Explicit bool
	Typed    bool
	Domain   *Domain
	Members  map[string]*Member // keyed by qname; never holds the domain
	Default  *Member
}

// NewDimension builds an empty dimension scoped to one filer.
func NewDimension(cik, qname string) *Dimension {
	return &Dimension{
		ID:      DimensionID(cik, qname),
		QName:   qname,
		CIK:     cik,
		Members: make(map[string]*Member),
	}
}

// DimensionID is the filer-scoped dimension identifier.
func DimensionID(cik, qname string) string {
	return cik + ":" + qname
}

// AddMember inserts m unless the qname is the domain or already present.
// It reports whether m was inserted.
func (d *Dimension) AddMember(m *Member) bool {
	if d.Domain != nil && d.Domain.QName == m.QName {
		return false
	}
	if _, ok := d.Members[m.QName]; ok {
		return false
	}
	d.Members[m.QName] = m
	return true
}

// HasMember reports whether qname is a valid value of the dimension. The
// domain itself counts.
func (d *Dimension) HasMember(qname string) bool {
	if qname == "" {
		return false
	}
	if d.Domain != nil && d.Domain.QName == qname {
		return true
	}
	_, ok := d.Members[qname]
	return ok
}

// Member looks up a member (or the domain) by qname.
func (d *Dimension) Member(qname string) (*Member, bool) {
	if d.Domain != nil && d.Domain.QName == qname {
		return &d.Domain.Member, true
	}
	m, ok := d.Members[qname]
	return m, ok
}

// SortedMembers returns members ordered by level then qname.
func (d *Dimension) SortedMembers() []*Member {
	out := make([]*Member, 0, len(d.Members))
	for _, m := range d.Members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].QName < out[j].QName
	})
	return out
}
