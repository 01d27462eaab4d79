package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/mixreview/internal/models"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Surface       lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color

	// Timeline
	Waveform         lipgloss.Color
	WaveformProgress lipgloss.Color
}

const (
	ModeDark  = "dark"
	ModeLight = "light"
)

// FromPalette builds a theme from the server's display settings palette
func FromPalette(name string, p models.Palette) Theme {
	return Theme{
		Name:             name,
		Background:       lipgloss.Color(p.Background900),
		Surface:          lipgloss.Color(p.Background800),
		Foreground:       lipgloss.Color(p.Text),
		ForegroundDim:    lipgloss.Color(p.Background600),
		Primary:          lipgloss.Color(p.Accent),
		Success:          lipgloss.Color("#22c55e"),
		Warning:          lipgloss.Color("#f59e0b"),
		Error:            lipgloss.Color("#ef4444"),
		Border:           lipgloss.Color(p.Background700),
		BorderFocus:      lipgloss.Color(p.Accent),
		Selection:        lipgloss.Color(p.Background700),
		Waveform:         lipgloss.Color(p.Waveform),
		WaveformProgress: lipgloss.Color(p.WaveformProgress),
	}
}

// Dark is the default theme, built from the server defaults
var Dark = FromPalette(ModeDark, models.DefaultDisplaySettings().Palette(ModeDark))

// Current holds the active theme
var Current = Dark

// Apply makes the palette of the given mode current. Views pick it up the
// next time they build their styles.
func Apply(s models.DisplaySettings, mode string) {
	if mode != ModeLight {
		mode = ModeDark
	}
	p := s.Palette(mode)
	if mode == ModeLight {
		// light mode dims text with a darker shade than the background
		p.Background600 = "#6b7280"
	}
	Current = FromPalette(mode, p)
}

// MaxWidth is the maximum content width for the app (classic terminal width)
const MaxWidth = 80

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	App lipgloss.Style

	// Title bar
	TitleBar   lipgloss.Style
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	// Lists
	List         lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Panel        lipgloss.Style
	PanelFocused lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Badges
	Badge     lipgloss.Style
	Favourite lipgloss.Style
	Solved    lipgloss.Style

	// Comments
	Author   lipgloss.Style
	Timecode lipgloss.Style
	Reply    lipgloss.Style

	// Timeline
	Waveform         lipgloss.Style
	WaveformProgress lipgloss.Style
	Marker           lipgloss.Style
	MarkerSolved     lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Help text
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		App: lipgloss.NewStyle().
			Background(t.Background).
			Foreground(t.Foreground),

		TitleBar: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Surface).
			Padding(0, 1).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		List: lipgloss.NewStyle().
			Padding(1, 2),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		PanelFocused: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Warning).
			Padding(0, 1),

		Favourite: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		Solved: lipgloss.NewStyle().
			Foreground(t.Success),

		Author: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		Timecode: lipgloss.NewStyle().
			Foreground(t.Primary),

		Reply: lipgloss.NewStyle().
			Foreground(t.Foreground).
			PaddingLeft(4),

		Waveform: lipgloss.NewStyle().
			Foreground(t.Waveform),

		WaveformProgress: lipgloss.NewStyle().
			Foreground(t.WaveformProgress),

		Marker: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		MarkerSolved: lipgloss.NewStyle().
			Foreground(t.Success),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		StatusError: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),
	}
}
