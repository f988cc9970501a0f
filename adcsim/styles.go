package main

import "github.com/charmbracelet/lipgloss"

// HD44780 backlight palette
var (
	ColorBacklight = lipgloss.Color("#9BC53D")
	ColorPixel     = lipgloss.Color("#1B2A0E")
	ColorBezel     = lipgloss.Color("#2E4A1A")
	ColorText      = lipgloss.Color("#C5E384")
	ColorDim       = lipgloss.Color("#5F7F3A")
	ColorWarning   = lipgloss.Color("#FFAA00")
	ColorError     = lipgloss.Color("#FF3300")
)

var (
	StyleTitleBar = lipgloss.NewStyle().
			Background(ColorBezel).
			Foreground(ColorText).
			Bold(true).
			Padding(0, 1)

	StyleLCD = lipgloss.NewStyle().
			Background(ColorBacklight).
			Foreground(ColorPixel).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorBezel)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Padding(0, 1)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSpark = lipgloss.NewStyle().
			Foreground(ColorBacklight)

	StyleStatusBar = lipgloss.NewStyle().
			Background(ColorBezel).
			Foreground(ColorText).
			Padding(0, 1)

	StyleTornNone = lipgloss.NewStyle().
			Foreground(ColorText)

	StyleTornSeen = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleMissed = lipgloss.NewStyle().
			Foreground(ColorWarning)
)
