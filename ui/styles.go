package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")

	// Query prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// Assistant answer text
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// Tool call trace lines
	TraceStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 2)
)

// FormatFooter formats alternating keys and descriptions.
// Usage: FormatFooter("quit", "Exit") -> "quit Exit" with the description in
// assistant blue+bold.
func FormatFooter(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i < len(parts); i += 2 {
		if i+1 < len(parts) {
			result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
		}
	}
	return strings.Join(result, "  ")
}

// centerText pads s to width using its visual width, so emoji and wide
// runes do not push it off center.
func centerText(s string, width int) string {
	visual := runewidth.StringWidth(s)
	if visual >= width {
		return s
	}
	left := (width - visual) / 2
	return strings.Repeat(" ", left) + s
}
