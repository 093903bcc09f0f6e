package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// InterpolateColor blends between two hex colors; pos runs from 0 to 1.
func InterpolateColor(colorA, colorB string, pos float64) string {
	pos = max(0, min(1, pos))
	r1, g1, b1 := ParseHexColor(colorA)
	r2, g2, b2 := ParseHexColor(colorB)

	r := uint8(float64(r1)*(1-pos) + float64(r2)*pos)
	g := uint8(float64(g1)*(1-pos) + float64(g2)*pos)
	b := uint8(float64(b1)*(1-pos) + float64(b2)*pos)
	return FormatHexColor(r, g, b)
}

// Gradient returns n colors evenly spaced from colorA to colorB.
func Gradient(colorA, colorB string, n int) []string {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []string{colorA}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = InterpolateColor(colorA, colorB, float64(i)/float64(n-1))
	}
	return out
}

// ParseHexColor extracts RGB values from a #RRGGBB string. Malformed input
// yields black.
func ParseHexColor(hex string) (uint8, uint8, uint8) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var r, g, b uint8
	if len(hex) == 6 {
		_, _ = fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	}
	return r, g, b
}

// FormatHexColor converts RGB values to a #rrggbb string.
func FormatHexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ApplyGradient colors each rune of text along a gradient from colorA to
// colorB. Spaces are left unstyled.
func ApplyGradient(text, colorA, colorB string) string {
	runes := []rune(text)
	colors := Gradient(colorA, colorB, len(runes))
	var b strings.Builder
	for i, r := range runes {
		if r == ' ' {
			b.WriteRune(r)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Render(string(r)))
	}
	return b.String()
}
