package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorBg      = lipgloss.Color("#080808")
	ColorFg      = lipgloss.Color("#D1D1D1")
	ColorNeon    = lipgloss.Color("#00FF9C")
	ColorBlue    = lipgloss.Color("#00E5FF")
	ColorPink    = lipgloss.Color("#FF007A") // errors
	ColorBorder  = lipgloss.Color("#333333")
	ColorDimmed  = lipgloss.Color("#666666")
	ColorSuccess = lipgloss.Color("#00B894")

	StyleStatusBar = lipgloss.NewStyle().
			Background(ColorBorder).
			Foreground(ColorNeon).
			Bold(true)

	StylePaneBorder = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder)

	StylePaneBorderFocus = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(ColorNeon)

	StyleEdgeSelected = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorNeon).
				PaddingLeft(1)

	StyleEdgeNormal = lipgloss.NewStyle().
			PaddingLeft(2)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorBlue).
				Bold(true)

	StyleStatusRunning   = lipgloss.NewStyle().Foreground(ColorDimmed)
	StyleStatusSucceeded = lipgloss.NewStyle().Foreground(ColorFg)
	StyleStatusFailed    = lipgloss.NewStyle().Foreground(ColorPink)

	StyleCountSucceeded = lipgloss.NewStyle().Background(ColorBorder).Foreground(ColorSuccess)
	StyleCountFailed    = lipgloss.NewStyle().Background(ColorBorder).Foreground(ColorPink)
	StyleCountRunning   = lipgloss.NewStyle().Background(ColorBorder).Foreground(ColorBlue)

	StyleModal = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorPink).
			Padding(1, 4).
			Background(ColorBg).
			Align(lipgloss.Center)

	StyleGridLabel = lipgloss.NewStyle().
			Foreground(ColorBg).
			Background(ColorNeon).
			Bold(true).
			Padding(0, 1)
)
