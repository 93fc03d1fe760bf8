package generation

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

// DefaultPromptTemplate builds the lead-specific user message handed to the
// creative role.
const DefaultPromptTemplate = `Write a short, personalized outreach SMS for this lead.
Name: {{.name}}
Phone: {{.phone}}
{{- if .company}}
Company: {{.company}}
{{- end}}
{{- if .email}}
Email: {{.email}}
{{- end}}
{{- if .notes}}
Notes: {{.notes}}
{{- end}}`

// RenderPrompt executes a prompt template against one lead's snapshot.
func RenderPrompt(templateStr string, lead models.LeadSnapshot) (string, error) {
	if templateStr == "" {
		templateStr = DefaultPromptTemplate
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	data := map[string]any{
		"name":    lead.Name,
		"phone":   lead.Phone,
		"email":   lead.Email,
		"company": lead.Company,
		"notes":   lead.Notes,
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}
