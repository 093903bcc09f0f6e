package wizard

import (
	"slices"
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/summary"
	"github.com/mark3labs/dealflow/internal/tui/theme"
)

// fieldInput is the editor of one form field. Text, number and file fields
// use a single-line input, long text a textarea and enums cycle through
// their options.
type fieldInput struct {
	field   form.Field
	text    textinput.Model
	area    textarea.Model
	option  int
	focused bool
	width   int
}

func newFieldInput(f form.Field, value any, width int) *fieldInput {
	fi := &fieldInput{field: f, option: -1}
	switch f.Kind {
	case form.KindLongText:
		ta := textarea.New()
		ta.ShowLineNumbers = false
		ta.CharLimit = 5000
		ta.Placeholder = f.Help
		ta.SetHeight(4)
		ta.SetValue(form.AsString(value))
		fi.area = ta
	case form.KindEnum:
		fi.option = slices.Index(f.Options, form.AsString(value))
	default:
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholder(f)
		ti.SetValue(form.AsString(value))
		fi.text = ti
	}
	fi.setWidth(width)
	return fi
}

func placeholder(f form.Field) string {
	if f.Help != "" {
		return f.Help
	}
	switch f.Format {
	case form.FormatCurrency:
		return "e.g. 150,000"
	case form.FormatPercent:
		return "e.g. 12.5"
	case form.FormatMonths:
		return "number of months"
	}
	return ""
}

func (fi *fieldInput) name() string {
	return fi.field.Name
}

func (fi *fieldInput) multiline() bool {
	return fi.field.Kind == form.KindLongText
}

func (fi *fieldInput) setWidth(width int) {
	fi.width = max(width, 20)
	inner := fi.width - 4
	switch fi.field.Kind {
	case form.KindLongText:
		fi.area.SetWidth(inner)
	case form.KindEnum:
	default:
		fi.text.SetWidth(inner)
	}
}

func (fi *fieldInput) focus() tea.Cmd {
	fi.focused = true
	switch fi.field.Kind {
	case form.KindLongText:
		return fi.area.Focus()
	case form.KindEnum:
		return nil
	default:
		return fi.text.Focus()
	}
}

func (fi *fieldInput) blur() {
	fi.focused = false
	switch fi.field.Kind {
	case form.KindLongText:
		fi.area.Blur()
	case form.KindEnum:
	default:
		fi.text.Blur()
	}
}

// value returns the field value in the shape the validators expect.
func (fi *fieldInput) value() any {
	switch fi.field.Kind {
	case form.KindLongText:
		return fi.area.Value()
	case form.KindEnum:
		if fi.option < 0 || fi.option >= len(fi.field.Options) {
			return ""
		}
		return fi.field.Options[fi.option]
	case form.KindFiles:
		return form.AsFiles(fi.text.Value())
	default:
		return fi.text.Value()
	}
}

func (fi *fieldInput) setValue(v any) {
	switch fi.field.Kind {
	case form.KindLongText:
		fi.area.SetValue(form.AsString(v))
	case form.KindEnum:
		fi.option = slices.Index(fi.field.Options, form.AsString(v))
	default:
		fi.text.SetValue(form.AsString(v))
	}
}

// cycle moves the enum selection by delta, wrapping around.
func (fi *fieldInput) cycle(delta int) {
	n := len(fi.field.Options)
	if n == 0 {
		return
	}
	if fi.option < 0 {
		if delta > 0 {
			fi.option = 0
		} else {
			fi.option = n - 1
		}
		return
	}
	fi.option = ((fi.option+delta)%n + n) % n
}

// update forwards msg to the underlying input and reports whether the value
// changed.
func (fi *fieldInput) update(msg tea.Msg) (tea.Cmd, bool) {
	before := form.AsString(fi.value())

	var cmd tea.Cmd
	switch fi.field.Kind {
	case form.KindLongText:
		fi.area, cmd = fi.area.Update(msg)
	case form.KindEnum:
		if key, ok := msg.(tea.KeyPressMsg); ok {
			switch key.String() {
			case "right", "l", "space", " ":
				fi.cycle(1)
			case "left", "h":
				fi.cycle(-1)
			}
		}
	default:
		fi.text, cmd = fi.text.Update(msg)
	}
	return cmd, form.AsString(fi.value()) != before
}

func (fi *fieldInput) view(errMsg string) string {
	s := theme.Current().S()

	label := s.Label.Render(fi.field.DisplayName())
	if fi.field.Required {
		label += s.Required.Render(" *")
	}

	var body string
	switch fi.field.Kind {
	case form.KindLongText:
		body = fi.area.View()
	case form.KindEnum:
		body = fi.enumView()
	default:
		body = fi.text.View()
	}

	box := s.InputBlurred
	switch {
	case errMsg != "":
		box = s.InputInvalid
	case fi.focused:
		box = s.InputFocused
	}

	parts := []string{label, box.Width(fi.width).Render(body)}
	switch {
	case errMsg != "":
		parts = append(parts, s.Error.Render("✗ "+errMsg))
	case fi.focused && fi.field.Help != "" && fi.field.Kind != form.KindLongText:
		parts = append(parts, s.Help.Render(fi.field.Help))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (fi *fieldInput) enumView() string {
	s := theme.Current().S()
	if fi.option < 0 {
		return s.Help.Render("‹ choose one of " + strings.Join(fi.field.Options, ", ") + " ›")
	}
	return "‹ " + fi.field.Options[fi.option] + " ›"
}

// derivedView renders a read-only computed field.
func derivedView(f form.Field, value any) string {
	s := theme.Current().S()
	return s.Label.Render(f.DisplayName()) + "  " + s.Derived.Render(summary.FormatValue(f, value))
}
