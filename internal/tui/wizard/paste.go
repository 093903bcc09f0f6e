package wizard

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/dealflow/internal/form"
)

// sanitizePaste strips escape sequences and control characters other than
// tab and newline, normalizes CRLF and trims trailing whitespace.
func sanitizePaste(content string) string {
	content = ansi.Strip(content)
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var b strings.Builder
	for _, r := range content {
		if r == '\n' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " \t\n")
}

// singleLine joins the lines of s with a space.
func singleLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\t", " ")), " ")
}

// handlePaste sends cleaned pasted text to the focused input. Enum fields
// accept a paste that names one of their options.
func (m *Model) handlePaste(msg tea.PasteMsg) tea.Cmd {
	if m.submitting || m.preview.open {
		return nil
	}
	in := m.focusedInput()
	if in == nil {
		return nil
	}

	content := sanitizePaste(msg.Content)
	if content == "" {
		return nil
	}

	var (
		cmd     tea.Cmd
		changed bool
	)
	switch in.field.Kind {
	case form.KindLongText:
		cmd, changed = in.update(tea.PasteMsg{Content: content})
	case form.KindEnum:
		before := in.value()
		in.setValue(singleLine(content))
		if in.option < 0 {
			in.setValue(before)
			return nil
		}
		changed = in.value() != before
	default:
		cmd, changed = in.update(tea.PasteMsg{Content: singleLine(content)})
	}

	if changed {
		if err := m.ctl.SetField(in.name(), in.value()); err != nil {
			m.notice = err.Error()
		}
	}
	return cmd
}
