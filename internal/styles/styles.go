// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Tokyo Night color palette.
var (
	ColorGreen  = lipgloss.Color("#9ece6a")
	ColorYellow = lipgloss.Color("#e0af68")
	ColorBlue   = lipgloss.Color("#7aa2f7")
	ColorGray   = lipgloss.Color("#565f89")
	ColorWhite  = lipgloss.Color("#c0caf5")
)

// Banner ASCII art for the transcript header.
const Banner = `
 ╔═╗ ╦ ╦╦╦  ╦
 ║═╬╗║ ║║║  ║
 ╚═╝╚╚═╝╩╩═╝╩═╝`

// BannerStyle styles the ASCII art banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// InputStyle frames the composer input.
var InputStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorGray).
	Padding(0, 1)

// RecallInputStyle frames the composer input while a history entry is shown.
var RecallInputStyle = InputStyle.
	BorderForeground(ColorYellow)

// PromptStyle styles the marker in front of submitted messages.
var PromptStyle = lipgloss.NewStyle().
	Foreground(ColorGreen).
	Bold(true)

// StatusStyle styles the help/status line.
var StatusStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle styles inline errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#d75f6b"))

// DividerStyle styles horizontal dividers.
var DividerStyle = lipgloss.NewStyle().
	Foreground(ColorGray)
