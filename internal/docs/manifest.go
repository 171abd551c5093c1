package docs

import (
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// Manifest is the minimal data needed to render the navigation of the
// documentation site without loading the full catalog.
type Manifest struct {
	ProjectName string     `json:"project_name"`
	GeneratedAt time.Time  `json:"generated_at"`
	NavTree     []NavGroup `json:"nav_tree"`
	Stats       Stats      `json:"stats"`
}

// NavGroup represents a rule group in the navigation tree.
type NavGroup struct {
	Group string    `json:"group"`
	Rules []NavItem `json:"rules"`
}

// NavItem represents a single rule in the navigation tree.
type NavItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Page string `json:"page"`
}

// Stats contains counts for the overview page.
type Stats struct {
	RuleCount    int `json:"rule_count"`
	GroupCount   int `json:"group_count"`
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	InfoCount    int `json:"info_count"`
	HintCount    int `json:"hint_count"`
}

// GenerateManifest creates a Manifest from a Catalog. Groups are sorted by
// name and rules by ID within a group.
func GenerateManifest(catalog *Catalog) *Manifest {
	groupRules := make(map[string][]NavItem)
	stats := Stats{RuleCount: len(catalog.Rules)}

	for _, rule := range catalog.Rules {
		groupRules[rule.Group] = append(groupRules[rule.Group], NavItem{
			ID:   rule.ID,
			Name: rule.Name,
			Page: rule.Page,
		})

		switch rule.Severity {
		case lint.SeverityError:
			stats.ErrorCount++
		case lint.SeverityWarning:
			stats.WarningCount++
		case lint.SeverityInfo:
			stats.InfoCount++
		case lint.SeverityHint:
			stats.HintCount++
		}
	}

	navTree := make([]NavGroup, 0, len(groupRules))
	for group, items := range groupRules {
		slices.SortFunc(items, func(a, b NavItem) int { return strings.Compare(a.ID, b.ID) })
		navTree = append(navTree, NavGroup{Group: group, Rules: items})
	}
	slices.SortFunc(navTree, func(a, b NavGroup) int { return strings.Compare(a.Group, b.Group) })
	stats.GroupCount = len(navTree)

	return &Manifest{
		ProjectName: catalog.ProjectName,
		GeneratedAt: catalog.GeneratedAt,
		NavTree:     navTree,
		Stats:       stats,
	}
}
