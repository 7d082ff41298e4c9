// Package styles defines the console's theme tokens and shared styles.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines colors for the two message directions.
type MessageColors struct {
	Astrologer string
	User       string
}

// StatusColors defines colors for feedback states.
type StatusColors struct {
	Error   string
	Warning string
	Unread  string
	ReadOK  string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
}

// Theme defines the console's style tokens.
type Theme struct {
	Name string

	Base    BaseColors
	Message MessageColors
	Status  StatusColors
	Chrome  ChromeColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Message: MessageColors{
		Astrologer: "75",
		User:       "147",
	},
	Status: StatusColors{
		Error:   "203",
		Warning: "214",
		Unread:  "203",
		ReadOK:  "41",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
	},
}

// HighContrastTheme maximizes foreground/background separation.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "0",
		Foreground: "15",
		Muted:      "250",
		Accent:     "51",
		Border:     "255",
	},
	Message: MessageColors{
		Astrologer: "51",
		User:       "226",
	},
	Status: StatusColors{
		Error:   "196",
		Warning: "226",
		Unread:  "196",
		ReadOK:  "46",
	},
	Chrome: ChromeColors{
		Header:       "15",
		Footer:       "15",
		SelectedItem: "51",
	},
}

// MutedStyle renders secondary text.
func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// AccentStyle renders highlighted text.
func (t Theme) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

// ErrorStyle renders error banners.
func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Status.Error)).Bold(true)
}

// WarningStyle renders transient warnings and toasts.
func (t Theme) WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Status.Warning)).Bold(true)
}

// BadgeStyle renders the unread count badge.
func (t Theme) BadgeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color(t.Status.Unread)).
		Bold(true).
		Padding(0, 1)
}
