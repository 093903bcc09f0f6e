package wizard

import (
	"strings"

	"charm.land/bubbles/v2/viewport"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/summary"
)

// preview is the scrollable review of the record about to be submitted.
// In edit mode it leads with the changes against the stored record.
type preview struct {
	viewport viewport.Model
	open     bool
}

func newPreview() preview {
	vp := viewport.New(
		viewport.WithWidth(60),
		viewport.WithHeight(10),
	)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3
	return preview{viewport: vp}
}

func (p *preview) setSize(width, height int) {
	p.viewport.SetWidth(width)
	p.viewport.SetHeight(max(height, 5))
}

// markdown builds the preview document.
func (m *Model) previewMarkdown(data form.Data, editID string) string {
	vars := summary.Build(m.flow, data, summary.Meta{RequestID: editID})
	body := summary.Render(m.template, vars)
	if editID == "" {
		return body
	}
	return summary.DiffMarkdown(m.flow, editID, m.original, data) + "\n\n" + body
}

func (p *preview) show(md string, width int) {
	p.viewport.SetContent(strings.TrimRight(summary.Terminal(md, width), "\n"))
	p.viewport.GotoTop()
	p.open = true
}
