package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dim    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	red    = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	green  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	subtitleStyle = lipgloss.NewStyle().Foreground(dim)
	labelStyle    = lipgloss.NewStyle().Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(dim)
	linkStyle     = lipgloss.NewStyle().Underline(true).Foreground(accent)
	errorStyle    = lipgloss.NewStyle().Foreground(red)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Width(40)
	inputErrorStyle = inputStyle.BorderForeground(red)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim)
	focusedButtonStyle  = buttonStyle.BorderForeground(accent).Bold(true)
	disabledButtonStyle = buttonStyle.Foreground(dim)

	successPanelStyle = lipgloss.NewStyle().
				Padding(1, 3).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(green)
	successTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(green)

	toastSuccessStyle = lipgloss.NewStyle().Foreground(green)
	toastErrorStyle   = lipgloss.NewStyle().Foreground(red)
)
