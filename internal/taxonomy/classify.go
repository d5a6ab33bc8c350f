package taxonomy

import "strings"

// Category is the classifier's verdict for one taxonomy element.
type Category string

const (
	CategoryConcept    Category = "Concept"
	CategoryAbstract   Category = "Abstract"
	CategoryLineItems  Category = "LineItems"
	CategoryHypercube  Category = "Hypercube"
	CategoryDimension  Category = "Dimension"
	CategoryMember     Category = "Member"
	CategoryDomain     Category = "Domain"
	CategoryGuidance   Category = "Guidance"
	CategoryDeprecated Category = "Deprecated"
	CategoryLinkbase   Category = "Linkbase"
	CategoryDate       Category = "Date"
	CategoryOther      Category = "Other"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryConcept, CategoryAbstract, CategoryLineItems, CategoryHypercube,
	CategoryDimension, CategoryMember, CategoryDomain, CategoryGuidance,
	CategoryDeprecated, CategoryLinkbase, CategoryDate, CategoryOther,
}

var abstractSuffixes = []string{"Abstract", "Hierarchy", "RollUp", "RollForward", "Rollforward"}

// linkbaseGroups are substitution-group local names of linkbase plumbing.
var linkbaseGroups = setOf(
	"linkbase", "linkbaseRef", "roleRef", "arcroleRef", "roleType", "arcroleType",
	"loc", "arc", "resource", "part", "documentation", "simple", "extended",
)

// dateElements are dei/us-gaap elements that hold calendar dates rather
// than financial values.
var dateElements = setOf(
	"DocumentPeriodEndDate",
	"DocumentPeriodStartDate",
	"CurrentFiscalYearEndDate",
	"DocumentFiscalPeriodFocusDate",
	"DocumentTransitionReportStartDate",
	"DocumentTransitionReportEndDate",
	"DocumentShellCompanyEventDate",
	"EntityIncorporationDateOfIncorporation",
	"EntityCommonStockSharesOutstandingDate",
)

// Classify assigns a category to el. Rules run in a fixed priority order and
// the first match wins. A nil or malformed element classifies as Other.
func Classify(el *Element) Category {
	if el == nil || el.QName.IsZero() {
		return CategoryOther
	}
	if c := classifyPrimary(el); c != CategoryOther {
		return c
	}
	return classifyFallback(el)
}

func classifyPrimary(el *Element) Category {
	name := el.QName.Local
	duration := el.PeriodType == PeriodDuration
	sg := el.SubstitutionGroup

	switch {
	case !el.Abstract && sg.Is(NamespaceXBRLI, "item"):
		return CategoryConcept
	case el.Abstract && sg.Is(NamespaceXBRLDT, "hypercubeItem") && duration && el.Nillable:
		return CategoryHypercube
	case el.Abstract && sg.Is(NamespaceXBRLDT, "dimensionItem") && duration && el.Nillable:
		return CategoryDimension
	case (hasAnySuffix(name, "Domain", "domain", "Member") || el.TypeName == "domainItemType") && duration && el.Nillable:
		return CategoryMember
	case el.Abstract && hasAnySuffix(name, abstractSuffixes...):
		return CategoryAbstract
	case strings.Contains(name, "LineItems") && duration && el.Nillable:
		return CategoryLineItems
	case el.TypeName == "guidanceItemType" || containsFold(name, "guidance"):
		return CategoryGuidance
	case containsFold(name, "deprecated") || containsFold(el.TypeName, "deprecated"):
		return CategoryDeprecated
	}
	return CategoryOther
}

func classifyFallback(el *Element) Category {
	switch {
	case el.IsDomainMember:
		return CategoryMember
	case el.Abstract:
		return CategoryAbstract
	case linkbaseGroups[el.SubstitutionGroup.Local]:
		return CategoryLinkbase
	case dateElements[el.QName.Local]:
		return CategoryDate
	}
	return CategoryOther
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
