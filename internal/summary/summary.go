// Package summary renders a flow's data as a markdown review document and
// as a terminal preview.
package summary

import (
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/form"
)

// Variables holds the values injected into template placeholders.
type Variables struct {
	Title      string
	Flow       string
	Meta       string
	Highlights string
	Sections   string
}

// Render replaces {{variable}} placeholders in tmpl.
func Render(tmpl string, vars Variables) string {
	r := strings.NewReplacer(
		"{{title}}", vars.Title,
		"{{flow}}", vars.Flow,
		"{{meta}}", vars.Meta,
		"{{highlights}}", vars.Highlights,
		"{{sections}}", vars.Sections,
	)
	return r.Replace(tmpl)
}

// GetTemplate returns the template at customPath, or DefaultTemplate when
// customPath is empty.
func GetTemplate(customPath string) (string, error) {
	if customPath == "" {
		return DefaultTemplate, nil
	}
	data, err := os.ReadFile(customPath)
	if err != nil {
		return "", fmt.Errorf("failed to read summary template %s: %w", customPath, err)
	}
	return string(data), nil
}

// Meta is the record metadata shown under the title.
type Meta struct {
	RequestID string
	Status    string
	Revision  int
}

// Build formats flow data into template variables.
func Build(flow *flows.Flow, data form.Data, meta Meta) Variables {
	title := data.String("title")
	if title == "" {
		title = data.String("fullName")
	}
	if title == "" {
		title = flow.Title
	}

	return Variables{
		Title:      title,
		Flow:       flow.Name,
		Meta:       formatMeta(flow, meta),
		Highlights: formatHighlights(flow, data),
		Sections:   formatSections(flow, data),
	}
}

// Markdown renders the summary of data with the default template.
func Markdown(flow *flows.Flow, data form.Data, meta Meta) string {
	return Render(DefaultTemplate, Build(flow, data, meta))
}

func formatMeta(flow *flows.Flow, meta Meta) string {
	parts := []string{"*" + flow.Title + "*"}
	if meta.RequestID != "" {
		parts = append(parts, "`"+meta.RequestID+"`")
	}
	if meta.Status != "" {
		parts = append(parts, "status: **"+meta.Status+"**")
	}
	if meta.Revision > 1 {
		parts = append(parts, fmt.Sprintf("revision %d", meta.Revision))
	}
	return strings.Join(parts, " · ")
}

// formatHighlights lists the derived fields, which are the numbers reviewers
// look at first. Empty when the flow has none.
func formatHighlights(flow *flows.Flow, data form.Data) string {
	var sb strings.Builder
	for _, fld := range flow.Fields() {
		if fld.Kind != form.KindDerived {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString("## Highlights\n\n")
		}
		fmt.Fprintf(&sb, "- **%s:** %s\n", fld.DisplayName(), FormatValue(fld, data[fld.Name]))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSections(flow *flows.Flow, data form.Data) string {
	var sections []string
	for _, step := range flow.Steps {
		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s\n\n", step.Title)

		var long []form.Field
		sb.WriteString("| Field | Value |\n|---|---|\n")
		for _, fld := range step.Fields {
			if fld.Kind == form.KindLongText {
				long = append(long, fld)
				continue
			}
			fmt.Fprintf(&sb, "| %s | %s |\n", fld.DisplayName(), escapeCell(FormatValue(fld, data[fld.Name])))
		}
		for _, fld := range long {
			fmt.Fprintf(&sb, "\n**%s**\n\n%s\n", fld.DisplayName(), FormatValue(fld, data[fld.Name]))
		}
		sections = append(sections, strings.TrimRight(sb.String(), "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
