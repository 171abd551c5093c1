package docs

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const rulePageTemplate = `# {{ .ID }}: {{ .Name }}

{{ .Description }}

| Property | Value |
|----------|-------|
| Code | ` + "`{{ .Code }}`" + ` |
| Group | {{ .Group | title }} |
| Default severity | {{ .Severity }} |
{{- if .ConfigKey }}
| Setting | ` + "`lint.{{ .ConfigKey }}`" + ` |
{{- end }}
{{- with .Rationale }}

## Rationale

{{ . | trim }}
{{- end }}
{{- if or .BadExample .GoodExample }}

## Examples
{{- with .BadExample }}

Flagged:

` + "```sql" + `
{{ . | trim }}
` + "```" + `
{{- end }}
{{- with .GoodExample }}

Preferred:

` + "```sql" + `
{{ . | trim }}
` + "```" + `
{{- end }}
{{- end }}
{{- with .Fix }}

## How to fix

{{ . | trim }}
{{- end }}

## Configuration

Disable this rule for a project:

` + "```yaml" + `
lint:
  disabled: [{{ .ID }}]
` + "```" + `
`

const indexTemplate = `# {{ default "dbalint" .ProjectName }} rules

{{ len .Rules }} rules in {{ len .Groups }} groups. Rules run in the order listed.
{{ range .Groups }}
## {{ .Name | title }}

| ID | Name | Code | Severity |
|----|------|------|----------|
{{- range $id := .Rules }}
{{- with index $.ByID $id }}
| [{{ .ID }}]({{ .Page }}) | {{ .Name }} | ` + "`{{ .Code }}`" + ` | {{ .Severity }} |
{{- end }}
{{- end }}
{{ end -}}
`

var (
	rulePage  = template.Must(template.New("rule").Funcs(sprig.TxtFuncMap()).Parse(rulePageTemplate))
	indexPage = template.Must(template.New("index").Funcs(sprig.TxtFuncMap()).Parse(indexTemplate))
)

// RenderRulePage renders the markdown page of one rule.
func RenderRulePage(rule RuleDoc) ([]byte, error) {
	var buf bytes.Buffer
	if err := rulePage.Execute(&buf, rule); err != nil {
		return nil, fmt.Errorf("failed to render page for %s: %w", rule.ID, err)
	}
	return buf.Bytes(), nil
}

// RenderIndex renders the README listing every rule by group.
func RenderIndex(catalog *Catalog) ([]byte, error) {
	byID := make(map[string]RuleDoc, len(catalog.Rules))
	for _, rule := range catalog.Rules {
		byID[rule.ID] = rule
	}
	data := struct {
		*Catalog
		ByID map[string]RuleDoc
	}{catalog, byID}

	var buf bytes.Buffer
	if err := indexPage.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render index: %w", err)
	}
	return buf.Bytes(), nil
}
