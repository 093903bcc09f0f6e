// Package theme holds the color palette and pre-built styles of the terminal
// UI.
package theme

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	Primary   string
	Secondary string
	Tertiary  string

	BgBase     string
	BgMantle   string
	BgSurface0 string
	BgSurface1 string
	BgSurface2 string

	FgMuted  string
	FgSubtle string
	FgBase   string

	Success string
	Warning string
	Error   string
	Info    string

	styles     *Styles
	stylesOnce sync.Once
}

var (
	currentMu sync.RWMutex
	current   = NewCatppuccinMocha()
)

// Current returns the active theme.
func Current() *Theme {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// Set replaces the active theme.
func Set(t *Theme) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = t
}

// S returns the pre-built styles for this theme, built on first use.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	c := lipgloss.Color
	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(c(t.Primary)).
			Bold(true),
		Subtitle: lipgloss.NewStyle().
			Foreground(c(t.FgSubtle)),
		Label: lipgloss.NewStyle().
			Foreground(c(t.FgBase)).
			Bold(true),
		Required: lipgloss.NewStyle().
			Foreground(c(t.Error)),
		Help: lipgloss.NewStyle().
			Foreground(c(t.FgMuted)).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(c(t.Error)).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(c(t.Success)).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(c(t.Warning)),
		Derived: lipgloss.NewStyle().
			Foreground(c(t.Info)).
			Bold(true),
		InputFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.Tertiary)).
			Padding(0, 1),
		InputBlurred: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.BgSurface1)).
			Padding(0, 1),
		InputInvalid: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.Error)).
			Padding(0, 1),
		ModalContainer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.Tertiary)).
			Padding(1, 2),
		HintKey: lipgloss.NewStyle().
			Foreground(c(t.FgSubtle)).
			Bold(true),
		HintDesc: lipgloss.NewStyle().
			Foreground(c(t.FgMuted)),
		HintSeparator: lipgloss.NewStyle().
			Foreground(c(t.BgSurface2)),
		ButtonNormal: lipgloss.NewStyle().
			Foreground(c(t.FgBase)).
			Background(c(t.BgSurface0)).
			Padding(0, 2).
			Margin(0, 1),
		ButtonDisabled: lipgloss.NewStyle().
			Foreground(c(t.FgMuted)).
			Background(c(t.BgMantle)).
			Padding(0, 2).
			Margin(0, 1),
		ButtonFocused: lipgloss.NewStyle().
			Foreground(c(t.BgBase)).
			Background(c(t.Tertiary)).
			Bold(true).
			Padding(0, 2).
			Margin(0, 1),
	}
}
