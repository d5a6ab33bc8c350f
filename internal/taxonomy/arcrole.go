package taxonomy

// ArcRole identifies the kind of relationship an arc expresses.
type ArcRole string

const (
	ArcParentChild        ArcRole = "http://www.xbrl.org/2003/arcrole/parent-child"
	ArcSummationItem      ArcRole = "http://www.xbrl.org/2003/arcrole/summation-item"
	ArcAll                ArcRole = "http://xbrl.org/int/dim/arcrole/all"
	ArcNotAll             ArcRole = "http://xbrl.org/int/dim/arcrole/notAll"
	ArcDimensionDefault   ArcRole = "http://xbrl.org/int/dim/arcrole/dimension-default"
	ArcDimensionDomain    ArcRole = "http://xbrl.org/int/dim/arcrole/dimension-domain"
	ArcDomainMember       ArcRole = "http://xbrl.org/int/dim/arcrole/domain-member"
	ArcHypercubeDimension ArcRole = "http://xbrl.org/int/dim/arcrole/hypercube-dimension"
)

// NetworkArcRoles is the fixed set scanned during network discovery.
var NetworkArcRoles = []ArcRole{
	ArcParentChild,
	ArcSummationItem,
	ArcAll,
	ArcNotAll,
	ArcDimensionDefault,
	ArcDimensionDomain,
	ArcDomainMember,
	ArcHypercubeDimension,
}

var arcRoleShort = map[string]ArcRole{
	"parent-child":        ArcParentChild,
	"summation-item":      ArcSummationItem,
	"all":                 ArcAll,
	"notAll":              ArcNotAll,
	"dimension-default":   ArcDimensionDefault,
	"dimension-domain":    ArcDimensionDomain,
	"domain-member":       ArcDomainMember,
	"hypercube-dimension": ArcHypercubeDimension,
}

// ParseArcRole accepts either a full arcrole URI or its short name.
func ParseArcRole(s string) (ArcRole, bool) {
	if r, ok := arcRoleShort[s]; ok {
		return r, true
	}
	for _, r := range NetworkArcRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// IsPresentation reports whether the role belongs to a presentation linkbase.
func (r ArcRole) IsPresentation() bool { return r == ArcParentChild }

// IsCalculation reports whether the role belongs to a calculation linkbase.
func (r ArcRole) IsCalculation() bool { return r == ArcSummationItem }

// IsDefinition reports whether the role is one of the dimensional arcroles.
func (r ArcRole) IsDefinition() bool {
	switch r {
	case ArcAll, ArcNotAll, ArcDimensionDefault, ArcDimensionDomain, ArcDomainMember, ArcHypercubeDimension:
		return true
	}
	return false
}

// Short returns the short arcrole name, e.g. "parent-child".
func (r ArcRole) Short() string {
	for k, v := range arcRoleShort {
		if v == r {
			return k
		}
	}
	return string(r)
}
