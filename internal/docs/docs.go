// Package docs generates the rule documentation site for dbalint.
// It exports rule metadata to JSON and renders one markdown page per rule,
// laid out so the links in diagnostics (docs/rules/db04.md) resolve against
// the generated directory.
package docs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// RulesDir is the subdirectory holding one page per rule.
const RulesDir = "rules"

// RuleDoc is a rule as it appears in the catalog.
type RuleDoc struct {
	lint.RuleInfo
	// Page is the rule's markdown page relative to the output directory.
	Page string `json:"page"`
}

// GroupDoc lists the rules of one group in registration order.
type GroupDoc struct {
	Name  string   `json:"name"`
	Rules []string `json:"rules"`
}

// Catalog represents the full documentation catalog.
type Catalog struct {
	GeneratedAt time.Time  `json:"generated_at"`
	ProjectName string     `json:"project_name"`
	Rules       []RuleDoc  `json:"rules"`
	Groups      []GroupDoc `json:"groups"`
}

// BuildResult lists the files written by Build, relative to the output
// directory.
type BuildResult struct {
	OutputDir string
	Files     []string
}

// Generator generates documentation from a rule registry.
type Generator struct {
	registry    *lint.Registry
	projectName string
	now         func() time.Time
}

// NewGenerator creates a generator over the default registry.
func NewGenerator(projectName string) *Generator {
	return &Generator{
		registry:    lint.DefaultRegistry(),
		projectName: projectName,
		now:         time.Now,
	}
}

// WithRegistry documents a specific registry instead of the default one.
func (g *Generator) WithRegistry(registry *lint.Registry) *Generator {
	if registry != nil {
		g.registry = registry
	}
	return g
}

// GenerateCatalog collects every registered rule.
func (g *Generator) GenerateCatalog() *Catalog {
	catalog := &Catalog{
		GeneratedAt: g.now().UTC(),
		ProjectName: g.projectName,
		Rules:       []RuleDoc{},
		Groups:      []GroupDoc{},
	}

	groupIndex := make(map[string]int)
	for _, rule := range g.registry.Rules() {
		catalog.Rules = append(catalog.Rules, RuleDoc{
			RuleInfo: rule.Info(),
			Page:     PagePath(rule.ID),
		})

		i, ok := groupIndex[rule.Group]
		if !ok {
			i = len(catalog.Groups)
			groupIndex[rule.Group] = i
			catalog.Groups = append(catalog.Groups, GroupDoc{Name: rule.Group})
		}
		catalog.Groups[i].Rules = append(catalog.Groups[i].Rules, rule.ID)
	}
	return catalog
}

// PagePath returns the page of a rule relative to the output directory.
func PagePath(ruleID string) string {
	return RulesDir + "/" + strings.ToLower(ruleID) + ".md"
}

// Build writes the documentation to the output directory.
func (g *Generator) Build(outputDir string) (*BuildResult, error) {
	catalog := g.GenerateCatalog()
	result := &BuildResult{OutputDir: outputDir}

	for _, dir := range []string{outputDir, filepath.Join(outputDir, RulesDir), filepath.Join(outputDir, "data")} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	write := func(rel string, content []byte) error {
		if err := os.WriteFile(filepath.Join(outputDir, filepath.FromSlash(rel)), content, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
		result.Files = append(result.Files, rel)
		return nil
	}

	for _, rule := range catalog.Rules {
		page, err := RenderRulePage(rule)
		if err != nil {
			return nil, err
		}
		if err := write(rule.Page, page); err != nil {
			return nil, err
		}
	}

	index, err := RenderIndex(catalog)
	if err != nil {
		return nil, err
	}
	if err := write("README.md", index); err != nil {
		return nil, err
	}

	catalogJSON, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := write("data/catalog.json", catalogJSON); err != nil {
		return nil, err
	}

	manifestJSON, err := json.MarshalIndent(GenerateManifest(catalog), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := write("data/manifest.json", manifestJSON); err != nil {
		return nil, err
	}

	return result, nil
}

// Serve serves a built documentation directory until ctx is cancelled.
func Serve(ctx context.Context, outputDir string, ln net.Listener) error {
	server := &http.Server{
		Handler:           http.FileServer(http.Dir(outputDir)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
