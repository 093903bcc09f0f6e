package summary

import (
	"strings"

	"charm.land/glamour/v2"
)

const maxWidth = 120

// Terminal renders markdown for the terminal. It falls back to the raw
// markdown when rendering fails.
func Terminal(md string, width int) string {
	if width <= 0 || width > maxWidth {
		width = maxWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSuffix(rendered, "\n")
}
