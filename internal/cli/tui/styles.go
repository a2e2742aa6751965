package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "25", Dark: "86"}
	dim    = lipgloss.AdaptiveColor{Light: "246", Dark: "243"}
	good   = lipgloss.Color("42")
	warn   = lipgloss.Color("178")
	bad    = lipgloss.Color("160")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	mutedStyle  = lipgloss.NewStyle().Foreground(dim)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(bad)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(dim)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Reverse(true)
	switchedStyle = lipgloss.NewStyle().Bold(true).Foreground(good)
	detailStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)
	filterStyle = lipgloss.NewStyle().Foreground(warn)
)

// detailHeight is the number of lines the detail panel takes.
const detailHeight = 8

func stateColor(state string) lipgloss.TerminalColor {
	switch state {
	case "accumulating":
		return dim
	case "analyzing":
		return warn
	default:
		return bad
	}
}

// fillColor colors a window bar by how close it is to the analysis threshold.
func fillColor(finished, threshold int) lipgloss.TerminalColor {
	switch {
	case threshold <= 0:
		return dim
	case finished >= threshold:
		return bad
	case finished*10 >= threshold*7:
		return warn
	default:
		return good
	}
}
