package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderHeader() string {
	palette := m.palette()

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "AstroPeace Support"
	right := string(m.activeViewID())
	line := joinHeader(left, right, m.width)
	return style.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderFooter() string {
	palette := m.palette()

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Base.Foreground)).
		Background(lipgloss.Color(palette.Chrome.Footer)).
		Padding(0, 1)

	base := footerHint(m.activeViewID())
	if m.showHelp {
		base += "  (arrows move, / search, f/t date bounds)"
	}
	if m.toastText != "" {
		toastStyle := palette.WarningStyle()
		if m.toastLevel == toastInfo {
			toastStyle = palette.AccentStyle()
		}
		base = toastStyle.Render(truncate(m.toastText, maxInt(0, m.width-4)))
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(base, maxInt(0, m.width-2)))
}

func footerHint(id ViewID) string {
	if id == ViewConversation {
		return "type to compose  Enter send  Esc back  Ctrl+C quit"
	}
	return "[Enter] open  [/] search  [f]/[t] dates  [r] reload  [?] help  q quit"
}

func joinHeader(left, right string, width int) string {
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 2 {
		return truncate(left, width)
	}
	return truncate(left+strings.Repeat(" ", space)+right, width)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, low, high int) int {
	if high < low {
		high = low
	}
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
