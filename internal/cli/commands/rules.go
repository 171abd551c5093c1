package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/dbalint/internal/cli/output"
	"github.com/leapstack-labs/dbalint/pkg/lint"
	_ "github.com/leapstack-labs/dbalint/pkg/lint/rules" // Register DBA rules
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Verbose bool   // Show full documentation
	Format  string // Output format
	Open    bool   // Open the rule's documentation in a browser
}

// openURL is replaced in tests.
var openURL = browser.OpenURL

// titleCase capitalizes a group name. Casers are stateful, so each call
// builds its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available lint rules",
		Long: `List all available lint rules with their documentation.

Rules are listed in the order they run. A rule can be named by ID (DB04) or
by diagnostic code (or-operator-disallowed). Use --verbose to see rationale
for each rule.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  dbalint rules

  # Show details for a specific rule
  dbalint rules DB03

  # Open a rule's documentation
  dbalint rules count-star-disallowed --open

  # List rules in the naming group
  dbalint rules --group naming

  # Output as JSON
  dbalint rules --format json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeRuleIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			if opts.Open {
				return fmt.Errorf("--open requires a rule ID")
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, table")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the rule documentation in a browser")

	return cmd
}

// findRule looks a rule up by ID or code, ignoring ID case.
func findRule(key string) (lint.RuleDef, bool) {
	if rule, ok := lint.GetRule(key); ok {
		return rule, true
	}
	return lint.GetRule(strings.ToUpper(key))
}

func completeRuleIDs(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var ids []string
	for _, ri := range lint.AllRules() {
		ids = append(ids, ri.ID+"\t"+ri.Code)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	r := NewCommandContext(cmd).RendererFor(cmd, opts.Format)

	rules := filterRulesByGroup(lint.AllRules(), opts.Group)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, rules)
	case output.ModeMarkdown:
		return listRulesMarkdown(r, rules, opts.Verbose)
	case output.ModeTable:
		return listRulesTable(r, rules)
	default:
		return listRulesText(r, rules, opts.Verbose)
	}
}

func filterRulesByGroup(rules []lint.RuleInfo, group string) []lint.RuleInfo {
	if group == "" {
		return rules
	}
	var filtered []lint.RuleInfo
	for _, r := range rules {
		if strings.EqualFold(r.Group, group) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	r := NewCommandContext(cmd).RendererFor(cmd, opts.Format)

	rule, ok := findRule(ruleID)
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	info := rule.Info()

	if opts.Open {
		if err := openURL(info.DocURL); err != nil {
			return fmt.Errorf("failed to open %s: %w", info.DocURL, err)
		}
		r.Muted("Opened " + info.DocURL)
		return nil
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(info)
	case output.ModeMarkdown:
		return showRuleMarkdown(r, info)
	default:
		return showRuleText(r, info)
	}
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, rules []lint.RuleInfo, verbose bool) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Lint Rules (%d)", len(rules))))
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println(styles.Bold.Render("  " + titleCase(currentGroup)))
		}

		r.Printf("    %s  %s - %s\n",
			styles.Muted.Render(rule.ID),
			rule.Code,
			styles.Severity(rule.Severity).Render(rule.Severity.String()),
		)

		if verbose {
			r.Println(styles.Muted.Render("        " + rule.Description))
			if rule.ConfigKey != "" {
				r.Println(styles.Muted.Render("        Option: lint." + rule.ConfigKey))
			}
			if rule.Rationale != "" {
				r.Println(styles.Muted.Render("        Why: " + truncateOneLine(rule.Rationale, 80)))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'dbalint rules <rule-id>' for detailed documentation"))
	r.Println("")

	return nil
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, rules []lint.RuleInfo, verbose bool) error {
	r.Println("# Lint Rules")
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println("## " + titleCase(currentGroup))
			r.Println("")
		}

		r.Printf("- **%s** - %s (`%s`)\n", rule.ID, rule.Code, rule.Severity.String())
		if verbose {
			r.Println("  " + rule.Description)
			if rule.Rationale != "" {
				r.Println("  > " + rule.Rationale)
			}
		}
	}

	r.Println("")
	return nil
}

// listRulesTable outputs rules as a go-pretty table.
func listRulesTable(r *output.Renderer, rules []lint.RuleInfo) error {
	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Code", "Group", "Severity", "Option"})
	for _, rule := range rules {
		t.AppendRow(table.Row{rule.ID, rule.Code, rule.Group, rule.Severity.String(), rule.ConfigKey})
	}
	t.Render()
	return nil
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []lint.RuleInfo `json:"rules"`
	Count int             `json:"count"`
}

// listRulesJSON outputs rules in JSON format.
func listRulesJSON(r *output.Renderer, rules []lint.RuleInfo) error {
	if rules == nil {
		rules = []lint.RuleInfo{}
	}
	return r.JSON(RulesJSONOutput{Rules: rules, Count: len(rules)})
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule lint.RuleInfo) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Code)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), rule.Group)
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), rule.Severity.String())
	if rule.ConfigKey != "" {
		r.Printf("  %s: lint.%s\n", styles.Bold.Render("Option"), rule.ConfigKey)
	}
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		r.Println("  " + rule.Rationale)
		r.Println("")
	}

	if rule.BadExample != "" {
		r.Println(styles.Bold.Render("Bad Example"))
		for _, line := range strings.Split(rule.BadExample, "\n") {
			r.Println(styles.Muted.Render("  " + line))
		}
		r.Println("")
	}

	if rule.GoodExample != "" {
		r.Println(styles.Bold.Render("Good Example"))
		for _, line := range strings.Split(rule.GoodExample, "\n") {
			r.Println(styles.Success.Render("  " + line))
		}
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + rule.Fix)
		r.Println("")
	}

	r.Println(styles.Muted.Render("Docs: " + rule.DocURL))
	return nil
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule lint.RuleInfo) error {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Code)
	r.Printf("**Group:** %s | **Severity:** `%s`", rule.Group, rule.Severity.String())
	if rule.ConfigKey != "" {
		r.Printf(" | **Option:** `lint.%s`", rule.ConfigKey)
	}
	r.Println("")
	r.Println("")
	r.Println(rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println("## Why This Matters")
		r.Println("")
		r.Println(rule.Rationale)
		r.Println("")
	}

	if rule.BadExample != "" {
		r.Println("## Bad Example")
		r.Println("")
		r.Println("```sql")
		r.Println(rule.BadExample)
		r.Println("```")
		r.Println("")
	}

	if rule.GoodExample != "" {
		r.Println("## Good Example")
		r.Println("")
		r.Println("```sql")
		r.Println(rule.GoodExample)
		r.Println("```")
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println("## How to Fix")
		r.Println("")
		r.Println(rule.Fix)
		r.Println("")
	}

	r.Printf("[Documentation](%s)\n", rule.DocURL)
	return nil
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
