package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/cli/config"
	"github.com/leapstack-labs/dbalint/internal/cli/output"
	"github.com/leapstack-labs/dbalint/internal/runner"
	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// Health check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
	statusSkip  = "skip"
)

// setupGroup groups the checks of the dbalint setup itself.
const setupGroup = "setup"

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor [paths...]",
		Short: "Run a health check of the workspace",
		Long: `Check the dbalint setup and how well the workspace follows the conventions.

The report includes:
- Setup checks (config file, expected database, state database)
- One health check per rule, with the scripts that violate it
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  dbalint doctor

  # Output as JSON
  dbalint doctor --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         WorkspaceSummary `json:"summary"`
	HealthChecks    []HealthCheck    `json:"health_checks"`
	Score           int              `json:"score"`
	Recommendations []string         `json:"recommendations"`
	IssueCount      int              `json:"issue_count"`
}

// WorkspaceSummary contains workspace-level statistics.
type WorkspaceSummary struct {
	Scripts           int    `json:"scripts"`
	ScriptsWithIssues int    `json:"scripts_with_issues"`
	EnabledRules      int    `json:"enabled_rules"`
	ConfigFile        string `json:"config_file,omitempty"`
	StatePath         string `json:"state_path"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error", "skip"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, args []string, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.RendererFor(cmd, opts.Format)

	lintCfg, err := cfg.LintConfig()
	if err != nil {
		return err
	}

	files, err := runner.Collect(args, cfg.Lint.Include)
	if err != nil {
		return err
	}
	sources, err := runner.ReadSources(files, cmd.InOrStdin(), "<stdin>")
	if err != nil {
		return err
	}
	results, err := runner.New(runner.Options{Config: lintCfg, Logger: cmdCtx.Logger}).Run(cmd.Context(), sources)
	if err != nil {
		return err
	}

	out := buildDoctorOutput(cmdCtx, lintCfg, results)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func buildDoctorOutput(cmdCtx *CommandContext, lintCfg *lint.Config, results []runner.Result) *DoctorOutput {
	enabled := make(map[string]bool)
	for _, rule := range lint.DefaultRegistry().Enabled(lintCfg) {
		enabled[rule.ID] = true
	}

	// Rule ID -> "path:line" of every violation
	locations := make(map[string][]string)
	summary := WorkspaceSummary{
		Scripts:      len(results),
		EnabledRules: len(enabled),
		ConfigFile:   config.GetConfigFileUsed(),
		StatePath:    cmdCtx.Cfg.StatePath,
	}
	issues := 0
	for _, res := range results {
		if len(res.Diagnostics) > 0 {
			summary.ScriptsWithIssues++
		}
		for _, d := range res.Diagnostics {
			locations[d.RuleID] = append(locations[d.RuleID], fmt.Sprintf("%s:%d", res.Source.Path, d.Range.Start.Line+1))
			issues++
		}
	}

	checks := setupChecks(cmdCtx, lintCfg)
	for _, rule := range lint.DefaultRegistry().Rules() {
		found := locations[rule.ID]
		status := statusPass
		switch {
		case !enabled[rule.ID]:
			status = statusSkip
		case len(found) > 0 && lintCfg.GetSeverity(rule) == lint.SeverityError:
			status = statusError
		case len(found) > 0:
			status = statusWarn
		}
		checks = append(checks, HealthCheck{
			RuleID:     rule.ID,
			Name:       rule.Name,
			Group:      rule.Group,
			Status:     status,
			IssueCount: len(found),
			Details:    found,
		})
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Scripts),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

// setupChecks inspects the configuration and state database.
func setupChecks(cmdCtx *CommandContext, lintCfg *lint.Config) []HealthCheck {
	cfgCheck := HealthCheck{RuleID: "config", Name: "config file", Group: setupGroup, Status: statusPass}
	if path := config.GetConfigFileUsed(); path != "" {
		cfgCheck.Details = []string{path}
	} else {
		cfgCheck.Status = statusWarn
		cfgCheck.Details = []string{"no dbalint.yaml found, using defaults"}
	}

	dbCheck := HealthCheck{RuleID: "database", Name: "expected database", Group: setupGroup, Status: statusPass}
	switch {
	case !lintCfg.RequireUseStatement:
		dbCheck.Status = statusSkip
		dbCheck.Details = []string{"USE statements are not required"}
	case lintCfg.ExpectedDatabase == "":
		dbCheck.Status = statusWarn
		dbCheck.Details = []string{"lint.expectedDatabase is not set, USE targets are not checked"}
	default:
		dbCheck.Details = []string{lintCfg.ExpectedDatabase}
	}

	return []HealthCheck{cfgCheck, dbCheck, stateCheck(cmdCtx)}
}

// stateCheck opens an existing state database and reads its schema version.
// A missing database is not an error: lint --save creates it.
func stateCheck(cmdCtx *CommandContext) HealthCheck {
	check := HealthCheck{RuleID: "state", Name: "state database", Group: setupGroup, Status: statusPass}

	if _, err := os.Stat(cmdCtx.Cfg.StatePath); errors.Is(err, os.ErrNotExist) {
		check.Details = []string{"not created yet"}
		return check
	}

	store, cleanup, err := cmdCtx.OpenStore()
	if err != nil {
		check.Status = statusError
		check.IssueCount = 1
		check.Details = []string{err.Error()}
		return check
	}
	defer cleanup()

	version, err := store.GetMigrationVersion()
	if err != nil {
		check.Status = statusError
		check.IssueCount = 1
		check.Details = []string{err.Error()}
		return check
	}
	check.Details = []string{fmt.Sprintf("%s (schema version %d)", store.Path(), version)}
	return check
}

// calculateHealthScore computes a health score from 0-100.
// The scoring weights:
// - Each issue reduces points
// - Errors count double
// - More scripts means issues have less individual impact
// - A setup warning costs a fixed 5 points
func calculateHealthScore(checks []HealthCheck, scriptCount int) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0

	basePenalty := 5.0
	if scriptCount > 10 {
		basePenalty = 3.0
	}
	if scriptCount > 50 {
		basePenalty = 2.0
	}
	if scriptCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		if check.Group == setupGroup {
			switch check.Status {
			case statusWarn:
				score -= 5
			case statusError:
				score -= 10
			}
			continue
		}
		switch check.Status {
		case statusError:
			score -= float64(check.IssueCount) * basePenalty * 2
		case statusWarn:
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.Status != statusWarn && check.Status != statusError {
			continue
		}

		rec := getRecommendation(check)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	// Limit to top 5 recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}

	return recommendations
}

// getRecommendation returns a recommendation for a failing check.
func getRecommendation(check HealthCheck) string {
	switch check.RuleID {
	case "config":
		return "Run 'dbalint init' to create a dbalint.yaml for the workspace"
	case "database":
		return "Set lint.expectedDatabase so USE statements are checked against the target database"
	case "state":
		return "Remove the state database; it is recreated by 'dbalint lint --save'"
	}
	rule, ok := lint.GetRule(check.RuleID)
	if !ok {
		return ""
	}
	if rule.Fix != "" {
		return fmt.Sprintf("%s: %s", rule.ID, rule.Fix)
	}
	return fmt.Sprintf("%s: %s", rule.ID, rule.Description)
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("dbalint Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Workspace Summary"))
	r.Printf("   Scripts: %d | With issues: %d | Enabled rules: %d\n",
		out.Summary.Scripts, out.Summary.ScriptsWithIssues, out.Summary.EnabledRules)
	r.Printf("   State: %s\n", styles.Path.Render(out.Summary.StatePath))
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCase(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.Error.Render("✗")
		case statusSkip:
			icon = styles.Muted.Render("-")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# dbalint Health Report")
	r.Println("")

	r.Println("## Workspace Summary")
	r.Println("")
	r.Printf("- **Scripts**: %d\n", out.Summary.Scripts)
	r.Printf("- **Scripts with issues**: %d\n", out.Summary.ScriptsWithIssues)
	r.Printf("- **Enabled rules**: %d\n", out.Summary.EnabledRules)
	if out.Summary.ConfigFile != "" {
		r.Printf("- **Config**: `%s`\n", out.Summary.ConfigFile)
	}
	r.Printf("- **State**: `%s`\n", out.Summary.StatePath)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCase(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s: %s", strings.ToUpper(check.Status), check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
