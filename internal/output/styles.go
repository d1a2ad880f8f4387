package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: boards, files, containers.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for successful builds.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for joined builds and legacy channels.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for failed builds (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns.
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleDim styles structural chrome.
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Build status words.
const (
	StatusSuccess = "success"
	StatusJoined  = "joined"
	StatusFailed  = "failed"
	StatusLegacy  = "legacy"
	StatusCurrent = "current"
)

// StatusStyle returns the style for a status word.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusSuccess:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusJoined, StatusLegacy:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusCurrent:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minFileColumnWidth keeps status words aligned in file listings.
const minFileColumnWidth = 40

// FormatFileLine renders a generated file name with a right-aligned
// size suffix.
//
// Format: f:<name>  <n> lines
func FormatFileLine(name string, lines int) string {
	padding := minFileColumnWidth - len(name)
	if padding < 2 {
		padding = 2
	}
	return StyleDim.Render("f:") + StyleNoun.Render(name) +
		strings.Repeat(" ", padding) + StyleDim.Render(fmt.Sprintf("%d lines", lines))
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatNotice renders a dim note line, used for skipped animations and
// similar non-fatal conditions.
func FormatNotice(msg string) string {
	return StyleDim.Render("• " + msg)
}
