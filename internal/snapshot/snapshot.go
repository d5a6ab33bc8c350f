// Package snapshot reads pre-parsed filing dumps. A snapshot is a YAML
// document (JSON is accepted too, being a YAML subset) listing the
// elements, arcs, contexts, units and facts a taxonomy engine extracted
// from one filing.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joss/xbrlgraph/internal/report"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

var (
	ErrUnknownArcRole = errors.New("unknown arcrole")
	ErrMissingField   = errors.New("missing required field")
)

// Snapshot is the on-disk document.
type Snapshot struct {
	DocumentURI    string            `yaml:"document_uri"`
	CIK            string            `yaml:"cik"`
	ReportID       string            `yaml:"report_id"`
	FormType       string            `yaml:"form_type"`
	PeriodOfReport string            `yaml:"period_of_report"`
	Namespaces     map[string]string `yaml:"namespaces"`
	Roles          []Role            `yaml:"roles"`
	Elements       []Element         `yaml:"elements"`
	Arcs           []Arc             `yaml:"arcs"`
	Contexts       []Context         `yaml:"contexts"`
	Units          []Unit            `yaml:"units"`
	Facts          []Fact            `yaml:"facts"`
}

type Role struct {
	URI        string `yaml:"uri"`
	Definition string `yaml:"definition"`
}

type Element struct {
	QName             string `yaml:"qname"`
	SubstitutionGroup string `yaml:"substitution_group"`
	Abstract          bool   `yaml:"abstract"`
	Nillable          bool   `yaml:"nillable"`
	PeriodType        string `yaml:"period_type"`
	Type              string `yaml:"type"`
	BaseType          string `yaml:"base_type"`
	Balance           string `yaml:"balance"`
	Label             string `yaml:"label"`
	DomainMember      bool   `yaml:"domain_member"`
	TypedDomainRef    string `yaml:"typed_domain_ref"`
}

type Arc struct {
	ArcRole string   `yaml:"arcrole"`
	Role    string   `yaml:"role"`
	From    string   `yaml:"from"`
	To      string   `yaml:"to"`
	Order   float64  `yaml:"order"`
	Weight  *float64 `yaml:"weight"`
	Closed  string   `yaml:"closed"`
}

type Context struct {
	ID     string `yaml:"id"`
	Entity struct {
		Scheme string `yaml:"scheme"`
		ID     string `yaml:"id"`
	} `yaml:"entity"`
	Period struct {
		Instant string `yaml:"instant"`
		Start   string `yaml:"start"`
		End     string `yaml:"end"`
		Forever bool   `yaml:"forever"`
	} `yaml:"period"`
	Dimensions []Dimension `yaml:"dimensions"`
}

type Dimension struct {
	Dimension  string `yaml:"dimension"`
	Member     string `yaml:"member"`
	TypedValue string `yaml:"typed_value"`
}

type Unit struct {
	ID      string `yaml:"id"`
	Measure string `yaml:"measure"` // prefix:value, e.g. iso4217:USD
}

type Fact struct {
	ID       string `yaml:"id"`
	Concept  string `yaml:"concept"`
	Context  string `yaml:"context"`
	Unit     string `yaml:"unit"`
	Value    string `yaml:"value"`
	Decimals string `yaml:"decimals"`
	Nil      bool   `yaml:"nil"`
	Numeric  *bool  `yaml:"numeric"` // defaults to true when a unit is set
}

// Decode parses a snapshot document.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.DocumentURI == "" {
		return nil, fmt.Errorf("document_uri: %w", ErrMissingField)
	}
	return &s, nil
}

// File is a loaded snapshot ready for processing.
type File struct {
	Path   string
	Source *taxonomy.MemSource
	Meta   report.Meta
}

// Load reads and converts the snapshot at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src, err := s.Source()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: path, Source: src, Meta: s.Meta()}, nil
}

// Meta returns the report metadata carried by the snapshot.
func (s *Snapshot) Meta() report.Meta {
	return report.Meta{
		CIK:            s.CIK,
		ReportID:       s.ReportID,
		FormType:       s.FormType,
		PeriodOfReport: s.PeriodOfReport,
	}
}

func (s *Snapshot) qname(v string) taxonomy.QName {
	return taxonomy.ParseQName(v, s.Namespaces)
}

// Source converts the document into a taxonomy.Source.
func (s *Snapshot) Source() (*taxonomy.MemSource, error) {
	src := taxonomy.NewMemSource(s.DocumentURI)

	for _, r := range s.Roles {
		src.AddRole(r.URI, r.Definition)
	}
	for i, e := range s.Elements {
		if e.QName == "" {
			return nil, fmt.Errorf("elements[%d].qname: %w", i, ErrMissingField)
		}
		src.AddElement(taxonomy.Element{
			QName:             s.qname(e.QName),
			SubstitutionGroup: s.qname(e.SubstitutionGroup),
			Abstract:          e.Abstract,
			Nillable:          e.Nillable,
			PeriodType:        e.PeriodType,
			TypeName:          e.Type,
			BaseType:          e.BaseType,
			Balance:           e.Balance,
			Label:             e.Label,
			IsDomainMember:    e.DomainMember,
			TypedDomainRef:    e.TypedDomainRef,
		})
	}
	for i, a := range s.Arcs {
		role, ok := taxonomy.ParseArcRole(a.ArcRole)
		if !ok {
			return nil, fmt.Errorf("arcs[%d] %q: %w", i, a.ArcRole, ErrUnknownArcRole)
		}
		weight := 1.0
		if a.Weight != nil {
			weight = *a.Weight
		}
		src.AddArc(taxonomy.Arc{
			ArcRole:  role,
			LinkRole: a.Role,
			From:     s.qname(a.From),
			To:       s.qname(a.To),
			Weight:   weight,
			Order:    a.Order,
			Closed:   a.Closed,
		})
	}
	for _, c := range s.Contexts {
		ce := taxonomy.ContextElement{
			ID:           c.ID,
			EntityScheme: c.Entity.Scheme,
			EntityID:     c.Entity.ID,
			Instant:      c.Period.Instant,
			Start:        c.Period.Start,
			End:          c.Period.End,
			Forever:      c.Period.Forever,
		}
		for _, d := range c.Dimensions {
			dv := taxonomy.DimensionValue{Dimension: s.qname(d.Dimension), TypedValue: d.TypedValue}
			if d.Member != "" {
				dv.Member = s.qname(d.Member)
			}
			ce.Dimensions = append(ce.Dimensions, dv)
		}
		src.AddContext(ce)
	}
	for _, u := range s.Units {
		ns, value, ok := strings.Cut(u.Measure, ":")
		if !ok {
			ns, value = "", u.Measure
		}
		src.AddUnit(taxonomy.UnitElement{ID: u.ID, Namespace: ns, Value: value})
	}
	for i, f := range s.Facts {
		if f.Concept == "" {
			return nil, fmt.Errorf("facts[%d].concept: %w", i, ErrMissingField)
		}
		numeric := f.Unit != ""
		if f.Numeric != nil {
			numeric = *f.Numeric
		}
		src.AddFact(taxonomy.FactElement{
			ID:        f.ID,
			QName:     s.qname(f.Concept),
			ContextID: f.Context,
			UnitID:    f.Unit,
			Nil:       f.Nil,
			Numeric:   numeric,
			Value:     f.Value,
			Decimals:  f.Decimals,
		})
	}
	return src, nil
}
