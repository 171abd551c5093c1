package output

import (
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// ParseTemplate compiles an output template with the sprig function map.
func ParseTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse output template: %w", err)
	}
	return tmpl, nil
}

// renderTemplate executes the renderer's template against data.
func (r *Renderer) renderTemplate(data any) error {
	if r.template == "" {
		return ErrNoTemplate
	}
	tmpl, err := ParseTemplate(r.template)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(r.out, data); err != nil {
		return fmt.Errorf("failed to execute output template: %w", err)
	}
	return nil
}
