// Package network groups taxonomy arcs into extended-link-role networks and
// derives, per network, the presentation and calculation trees and the
// hypercubes of its definition arcs.
package network

import (
	"sort"
	"strings"

	"github.com/joss/xbrlgraph/internal/domain"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/taxonomy"
)

// Category is the section kind encoded in a role definition.
type Category string

const (
	CategoryStatement  Category = "Statement"
	CategoryDocument   Category = "Document"
	CategoryDisclosure Category = "Disclosure"
	CategoryOther      Category = "Other"
)

// ParseCategory maps role-definition text to a category.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "statement":
		return CategoryStatement
	case "document":
		return CategoryDocument
	case "disclosure":
		return CategoryDisclosure
	}
	return CategoryOther
}

// Network is one extended-link-role grouping.
type Network struct {
	URI         string
	Name        string // full role definition
	RoleID      string // numeric prefix of the definition, e.g. "100000"
	Category    Category
	Description string
	ArcRoles    map[taxonomy.ArcRole]bool

	Presentation *Hierarchy
	Calculation  *Hierarchy
	Hypercubes   []*Hypercube
}

// Key is the network dedup key.
type Key struct {
	URI      string
	Name     string
	RoleID   string
	Category Category
}

// Key returns the dedup key of n.
func (n *Network) Key() Key {
	return Key{URI: n.URI, Name: n.Name, RoleID: n.RoleID, Category: n.Category}
}

// ID is the graph identifier of the network within one report.
func (n *Network) ID(cik, reportID string) string {
	return domain.HashID(cik, reportID, n.URI, n.Name)
}

// IsPresentation reports whether the network carries parent-child arcs.
func (n *Network) IsPresentation() bool {
	return n.has(taxonomy.ArcRole.IsPresentation)
}

// IsCalculation reports whether the network carries summation arcs.
func (n *Network) IsCalculation() bool {
	return n.has(taxonomy.ArcRole.IsCalculation)
}

// IsDefinition reports whether the network carries dimensional arcs.
func (n *Network) IsDefinition() bool {
	return n.has(taxonomy.ArcRole.IsDefinition)
}

func (n *Network) has(pred func(taxonomy.ArcRole) bool) bool {
	for r := range n.ArcRoles {
		if pred(r) {
			return true
		}
	}
	return false
}

// SortedArcRoles returns the short names of the contained arc roles.
func (n *Network) SortedArcRoles() []string {
	out := make([]string, 0, len(n.ArcRoles))
	for r := range n.ArcRoles {
		out = append(out, r.Short())
	}
	sort.Strings(out)
	return out
}

// ParseRoleName splits "100000 - Statement - Balance Sheet" into id,
// category and description. ok is false when fewer than three parts exist.
func ParseRoleName(name string) (id string, category Category, description string, ok bool) {
	parts := strings.Split(name, " - ")
	if len(parts) < 3 {
		return "", "", "", false
	}
	id = strings.TrimSpace(parts[0])
	category = ParseCategory(parts[1])
	description = strings.TrimSpace(strings.Join(parts[2:], " - "))
	return id, category, description, true
}

// DiscoverStats counts arcs dropped during discovery.
type DiscoverStats struct {
	Arcs          int
	Unresolved    int // role name not resolvable
	MalformedRole int
}

// Discover scans every network arc role and returns one Network per
// (uri, name, id, category), sorted by role id then uri. Arcs on roles
// without a well-formed definition are dropped.
func Discover(src taxonomy.Source, log *logging.Logger) ([]*Network, DiscoverStats) {
	if log == nil {
		log = logging.Nop()
	}
	var stats DiscoverStats
	byKey := make(map[Key]*Network)
	warned := make(map[string]bool)

	for _, role := range taxonomy.NetworkArcRoles {
		for _, arc := range src.Arcs(role, "") {
			stats.Arcs++
			name, ok := src.RoleName(arc.LinkRole)
			if !ok {
				stats.Unresolved++
				continue
			}
			id, cat, desc, ok := ParseRoleName(name)
			if !ok {
				stats.MalformedRole++
				if !warned[arc.LinkRole] {
					warned[arc.LinkRole] = true
					log.Debug("role_malformed", map[string]any{"role": arc.LinkRole, "name": name})
				}
				continue
			}
			n := &Network{URI: arc.LinkRole, Name: name, RoleID: id, Category: cat, Description: desc}
			if existing, ok := byKey[n.Key()]; ok {
				n = existing
			} else {
				n.ArcRoles = make(map[taxonomy.ArcRole]bool)
				byKey[n.Key()] = n
			}
			n.ArcRoles[role] = true
		}
	}

	out := make([]*Network, 0, len(byKey))
	for _, n := range byKey {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoleID != out[j].RoleID {
			return out[i].RoleID < out[j].RoleID
		}
		return out[i].URI < out[j].URI
	})

	log.Info("networks_discovered", map[string]any{
		"networks":       len(out),
		"arcs":           stats.Arcs,
		"unresolved":     stats.Unresolved,
		"malformed_role": stats.MalformedRole,
	})
	return out, stats
}
