package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
const (
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan: headings
	colorAccent     = lipgloss.Color("#FFD700") // Gold: angles and cusps
	colorSuccess    = lipgloss.Color("#00E676") // Green: dignified, harmonious
	colorDanger     = lipgloss.Color("#FF5252") // Red: debilitated, tense, errors
	colorMuted      = lipgloss.Color("#636363") // Gray: borders
	colorMutedLight = lipgloss.Color("#8C8C8C") // Lighter gray: secondary text
	colorWhite      = lipgloss.Color("#EEEEEE") // Off-white: primary text
	colorBlue       = lipgloss.Color("#5B8DEF") // Blue: retrograde marker
)

// Status icons.
const (
	iconOK     = "✓"
	iconFailed = "✗"
	iconRetro  = "℞"
)

// styles holds every style the printer uses. They are bound to one
// lipgloss renderer so a no-color printer never emits escapes.
type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	retro   lipgloss.Style
	border  lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		heading: r.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			MarginTop(1),
		label:  r.NewStyle().Foreground(colorMutedLight),
		value:  r.NewStyle().Foreground(colorWhite),
		muted:  r.NewStyle().Foreground(colorMuted),
		accent: r.NewStyle().Foreground(colorAccent),
		good:   r.NewStyle().Foreground(colorSuccess),
		bad:    r.NewStyle().Foreground(colorDanger),
		retro:  r.NewStyle().Foreground(colorBlue).Bold(true),
		border: r.NewStyle().Foreground(colorMuted),
		header: r.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Padding(0, 1),
		cell: r.NewStyle().Padding(0, 1),
	}
}
