package wizard

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/editor"
)

// EditorDoneMsg carries the content of a long-text field after $EDITOR
// exits.
type EditorDoneMsg struct {
	Field   string
	Content string
	Err     error
}

// openEditor launches the user's $EDITOR on a temp file holding content.
func openEditor(field, content string) tea.Cmd {
	tmpfile, err := os.CreateTemp("", "dealflow_"+field+"_*.md")
	if err != nil {
		return func() tea.Msg { return EditorDoneMsg{Field: field, Err: err} }
	}
	if _, err := tmpfile.WriteString(content); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(tmpfile.Name())
		return func() tea.Msg { return EditorDoneMsg{Field: field, Err: err} }
	}
	_ = tmpfile.Close()
	path := tmpfile.Name()

	cmd, err := editor.Command("dealflow", path)
	if err != nil {
		_ = os.Remove(path)
		return func() tea.Msg { return EditorDoneMsg{Field: field, Err: err} }
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer func() { _ = os.Remove(path) }()
		if err != nil {
			return EditorDoneMsg{Field: field, Err: err}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return EditorDoneMsg{Field: field, Err: err}
		}
		return EditorDoneMsg{Field: field, Content: string(data)}
	})
}
