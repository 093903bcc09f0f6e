package wizard

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/stretchr/testify/assert"
)

func TestFieldInput_FilesValue(t *testing.T) {
	fi := newFieldInput(form.Field{Name: "photos", Kind: form.KindFiles}, []string{"a.jpg", "b.jpg"}, 40)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, fi.value())

	fi.setValue("c.jpg, , d.jpg")
	assert.Equal(t, []string{"c.jpg", "d.jpg"}, fi.value())
}

func TestFieldInput_EnumCycle(t *testing.T) {
	f := form.Field{Name: "risk", Kind: form.KindEnum, Options: []string{"Low", "Medium", "High"}}

	fi := newFieldInput(f, nil, 40)
	assert.Equal(t, "", fi.value())
	fi.cycle(-1)
	assert.Equal(t, "High", fi.value())
	fi.cycle(1)
	assert.Equal(t, "Low", fi.value())

	fi = newFieldInput(f, "Medium", 40)
	assert.Equal(t, "Medium", fi.value())
	fi.setValue("Nope")
	assert.Equal(t, "", fi.value())
}

func TestFieldInput_ViewShowsError(t *testing.T) {
	fi := newFieldInput(form.Field{Name: "amount", Label: "Funding amount", Kind: form.KindNumber, Required: true}, "0", 40)
	out := ansi.Strip(fi.view("Funding amount must be greater than 0"))
	assert.Contains(t, out, "Funding amount *")
	assert.Contains(t, out, "✗ Funding amount must be greater than 0")
}

func TestFieldInput_LongText(t *testing.T) {
	fi := newFieldInput(form.Field{Name: "description", Kind: form.KindLongText}, "line one\nline two", 40)
	assert.True(t, fi.multiline())
	assert.Equal(t, "line one\nline two", fi.value())
}

func TestDerivedView(t *testing.T) {
	f := form.Field{Name: "estimatedProfit", Label: "Estimated profit", Kind: form.KindDerived, Format: form.FormatCurrency}
	assert.Equal(t, "Estimated profit  $125,500", ansi.Strip(derivedView(f, 125500.0)))
}

func TestButtonBarAndHints(t *testing.T) {
	bar := NewButtonBar(buttons(1, "← Back", "Next →"))
	bar.SetWidth(40)
	out := ansi.Strip(bar.Render())
	assert.Contains(t, out, "← Back")
	assert.Contains(t, out, "Next →")

	assert.Equal(t, "tab next • esc back", ansi.Strip(renderHintBar("tab", "next", "esc", "back")))
	assert.Empty(t, renderHintBar("tab"))
}
