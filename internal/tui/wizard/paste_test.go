package wizard

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
)

func TestSanitizePaste(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Maple Street", "Maple Street"},
		{"ansi", "\x1b[31mred\x1b[0m text", "red text"},
		{"crlf", "one\r\ntwo\r\n", "one\ntwo"},
		{"control chars", "a\x00b\x07c\x7f", "abc"},
		{"trailing space", "value  \n\n", "value"},
		{"keeps tabs", "a\tb", "a\tb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizePaste(tt.in))
		})
	}
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "12 Maple St Austin TX", singleLine("12 Maple St\n\nAustin\tTX"))
}

func TestModel_PasteIntoTextField(t *testing.T) {
	m := newModel(t, Config{})
	m.Update(press(tea.KeyEnter))

	m.Update(tea.PasteMsg{Content: "\x1b[1mMaple\nStreet Flip\x1b[0m\r\n"})
	assert.Equal(t, "Maple Street Flip", m.Controller().Snapshot().Data.String("title"))
}

func TestModel_PasteIntoEnum(t *testing.T) {
	m := newModel(t, Config{})
	m.Update(press(tea.KeyEnter))
	m.focus = inputIndex(t, m, "propertyType")
	m.applyFocus()

	m.Update(tea.PasteMsg{Content: "Condo\n"})
	assert.Equal(t, "Condo", m.Controller().Snapshot().Data.String("propertyType"))

	m.Update(tea.PasteMsg{Content: "Castle"})
	assert.Equal(t, "Condo", m.Controller().Snapshot().Data.String("propertyType"), "unknown options are ignored")
}

func TestModel_PasteIgnoredWithoutInput(t *testing.T) {
	m := newModel(t, Config{})
	_, cmd := m.Update(tea.PasteMsg{Content: "anything"})
	assert.Nil(t, cmd)
	assert.Empty(t, m.Controller().Snapshot().Data.String("title"))
}
