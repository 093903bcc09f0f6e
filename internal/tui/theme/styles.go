package theme

import "charm.land/lipgloss/v2"

// Styles contains the pre-built lipgloss styles of a theme.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	Label    lipgloss.Style
	Required lipgloss.Style
	Help     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Derived  lipgloss.Style

	InputFocused lipgloss.Style
	InputBlurred lipgloss.Style
	InputInvalid lipgloss.Style

	ModalContainer lipgloss.Style

	HintKey       lipgloss.Style
	HintDesc      lipgloss.Style
	HintSeparator lipgloss.Style

	ButtonNormal   lipgloss.Style
	ButtonDisabled lipgloss.Style
	ButtonFocused  lipgloss.Style
}
