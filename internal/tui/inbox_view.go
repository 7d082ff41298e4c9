package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MANASAREDDY288/astropeace-project/internal/logging"
	"github.com/MANASAREDDY288/astropeace-project/internal/support"
	"github.com/MANASAREDDY288/astropeace-project/internal/tui/styles"
)

const (
	inboxDateLayout  = "2006-01-02"
	inboxFetchBudget = 20 * time.Second
	questionExcerpt  = 60
)

type inboxFocus int

const (
	focusList inboxFocus = iota
	focusSearch
	focusDateFrom
	focusDateTo
)

type inboxLoadedMsg struct {
	now   time.Time
	chats []support.Chat
	err   error
}

// inboxView is the chat list screen: one fetch on entry, client-side
// filtering, no polling.
type inboxView struct {
	service ChatService

	chats    []support.Chat
	filtered []support.Chat
	loaded   bool
	loading  bool
	lastErr  error
	now      time.Time

	focus     inboxFocus
	search    string
	dateFrom  string
	dateTo    string
	dateHint  string
	selected  int
	top       int
	lastWidth int
	rowsShown int
}

func newInboxView(service ChatService) *inboxView {
	return &inboxView{service: service}
}

func (v *inboxView) Init() tea.Cmd {
	if v.loaded || v.loading {
		return nil
	}
	v.loading = true
	return v.loadCmd()
}

func (v *inboxView) loadCmd() tea.Cmd {
	service := v.service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), inboxFetchBudget)
		defer cancel()
		chats, err := service.FetchAllChats(ctx)
		return inboxLoadedMsg{now: time.Now().UTC(), chats: chats, err: err}
	}
}

func (v *inboxView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case inboxLoadedMsg:
		v.loading = false
		v.now = typed.now
		if typed.err != nil {
			// Inline banner; the cached set, if any, stays visible.
			// No automatic retry.
			v.lastErr = typed.err
			logging.Error().Err(typed.err).Msg("load inbox")
			return nil
		}
		v.lastErr = nil
		v.loaded = true
		v.chats = typed.chats
		v.applyFilter()
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *inboxView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.focus != focusList {
		return v.handleFilterKey(msg)
	}

	switch msg.String() {
	case "j", "down":
		v.moveSelection(1)
		return nil
	case "k", "up":
		v.moveSelection(-1)
		return nil
	case "g", "home":
		v.selected = 0
		v.top = 0
		return nil
	case "G", "end":
		v.selected = maxInt(0, len(v.filtered)-1)
		v.ensureVisible()
		return nil
	case "/":
		v.focus = focusSearch
		return nil
	case "f":
		v.focus = focusDateFrom
		return nil
	case "t":
		v.focus = focusDateTo
		return nil
	case "r":
		if v.loading {
			return nil
		}
		v.loading = true
		return v.loadCmd()
	case "enter":
		if chat := v.selectedChat(); chat != nil {
			return openConversationCmd(chat.ID)
		}
		return nil
	}
	return nil
}

func (v *inboxView) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	field := v.focusedField()

	switch msg.String() {
	case "enter", "esc":
		v.focus = focusList
		v.applyFilter()
		return nil
	case "tab":
		v.cycleFocus()
		return nil
	case "backspace", "ctrl+h":
		if len(*field) > 0 {
			runes := []rune(*field)
			*field = string(runes[:len(runes)-1])
		}
		v.applyFilter()
		return nil
	case "ctrl+u":
		*field = ""
		v.applyFilter()
		return nil
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
		*field += string(msg.Runes)
		v.applyFilter()
	}
	return nil
}

func (v *inboxView) focusedField() *string {
	switch v.focus {
	case focusDateFrom:
		return &v.dateFrom
	case focusDateTo:
		return &v.dateTo
	default:
		return &v.search
	}
}

func (v *inboxView) cycleFocus() {
	switch v.focus {
	case focusSearch:
		v.focus = focusDateFrom
	case focusDateFrom:
		v.focus = focusDateTo
	default:
		v.focus = focusSearch
	}
}

// applyFilter recomputes the visible subset. It runs on every chat-set
// or filter-input change, keeping the selection anchored to the same
// chat where possible.
func (v *inboxView) applyFilter() {
	anchor := ""
	if chat := v.selectedChat(); chat != nil {
		anchor = chat.ID
	}

	filter := support.InboxFilter{Search: v.search}
	v.dateHint = ""
	if from, ok := v.parseDate(v.dateFrom); ok {
		filter.DateFrom = from
	}
	if to, ok := v.parseDate(v.dateTo); ok {
		filter.DateTo = to
	}

	v.filtered = support.FilterChats(v.chats, filter)

	v.selected = 0
	for i := range v.filtered {
		if v.filtered[i].ID == anchor {
			v.selected = i
			break
		}
	}
	v.ensureVisible()
}

func (v *inboxView) parseDate(input string) (time.Time, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(inboxDateLayout, trimmed)
	if err != nil {
		v.dateHint = "dates use YYYY-MM-DD"
		return time.Time{}, false
	}
	return parsed, true
}

func (v *inboxView) moveSelection(delta int) {
	if len(v.filtered) == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected+delta, 0, len(v.filtered)-1)
	v.ensureVisible()
}

func (v *inboxView) ensureVisible() {
	if len(v.filtered) == 0 {
		v.selected = 0
		v.top = 0
		return
	}
	v.selected = clampInt(v.selected, 0, len(v.filtered)-1)
	visible := maxInt(1, v.rowsShown)
	if v.selected < v.top {
		v.top = v.selected
	}
	if v.selected >= v.top+visible {
		v.top = v.selected - visible + 1
	}
	v.top = clampInt(v.top, 0, maxInt(0, len(v.filtered)-1))
}

func (v *inboxView) selectedChat() *support.Chat {
	if v.selected < 0 || v.selected >= len(v.filtered) {
		return nil
	}
	return &v.filtered[v.selected]
}

func (v *inboxView) View(width, height int, theme Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	v.lastWidth = width
	palette := themePalette(theme)

	lines := make([]string, 0, height)
	lines = append(lines, v.renderFilterBar(width, palette))
	if v.lastErr != nil {
		lines = append(lines, palette.ErrorStyle().Render(truncate("Failed to load chats: "+v.lastErr.Error(), width)))
	}
	if v.dateHint != "" {
		lines = append(lines, palette.MutedStyle().Render(v.dateHint))
	}

	bodyHeight := height - len(lines)
	lines = append(lines, v.renderRows(width, bodyHeight, palette)...)
	return strings.Join(lines, "\n")
}

func (v *inboxView) renderFilterBar(width int, palette styles.Theme) string {
	marker := func(f inboxFocus) string {
		if v.focus == f {
			return "▸"
		}
		return " "
	}
	bar := fmt.Sprintf("%ssearch: %-20s %sfrom: %-10s %sto: %-10s  %d/%d",
		marker(focusSearch), v.search,
		marker(focusDateFrom), v.dateFrom,
		marker(focusDateTo), v.dateTo,
		len(v.filtered), len(v.chats))
	if v.loading {
		bar += "  loading…"
	}
	return palette.MutedStyle().Render(truncate(bar, width))
}

func (v *inboxView) renderRows(width, height int, palette styles.Theme) []string {
	if height <= 0 {
		return nil
	}
	if len(v.filtered) == 0 {
		text := "No chats found."
		if !v.loaded && v.lastErr == nil {
			text = "Loading chats…"
		}
		return []string{palette.MutedStyle().Render(text)}
	}

	rowHeight := 3
	v.rowsShown = maxInt(1, height/rowHeight)
	v.ensureVisible()

	out := make([]string, 0, height)
	remaining := height
	for i := v.top; i < len(v.filtered) && remaining > 0; i++ {
		card := v.renderCard(&v.filtered[i], width, i == v.selected, palette)
		lines := strings.Split(card, "\n")
		if len(lines) > remaining {
			lines = lines[:remaining]
		}
		out = append(out, lines...)
		remaining -= len(lines)
	}
	return out
}

func (v *inboxView) renderCard(chat *support.Chat, width int, selected bool, palette styles.Theme) string {
	user := chat.UserName()
	if user == "" {
		user = "Unknown User"
	}
	astrologer := chat.AstrologerName()
	if astrologer == "" {
		astrologer = "Unassigned"
	}

	header := fmt.Sprintf("%s ⇄ %s", user, astrologer)
	if badge := support.UnreadBadge(*chat); badge > 0 {
		header += "  " + palette.BadgeStyle().Render(fmt.Sprintf("%d", badge))
	}

	question := strings.TrimSpace(chat.Question)
	if question == "" {
		question = "(no question)"
	}
	meta := relativeTime(chat.UpdatedAt, v.now)

	borderColor := palette.Base.Border
	if selected {
		borderColor = palette.Chrome.SelectedItem
	}
	card := strings.Join([]string{
		header,
		truncate(question, maxInt(10, minInt(width-4, questionExcerpt))),
		palette.MutedStyle().Render(meta),
	}, "\n")

	style := lipgloss.NewStyle().
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		PaddingLeft(1)
	if selected {
		style = style.Bold(true)
	}
	return style.Width(maxInt(0, width)).Render(card)
}

func relativeTime(ts time.Time, now time.Time) string {
	if ts.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	delta := now.Sub(ts)
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta < time.Minute:
		return fmt.Sprintf("%ds ago", int(delta.Seconds()))
	case delta < time.Hour:
		return fmt.Sprintf("%dm ago", int(delta.Minutes()))
	case delta < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(delta.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(delta.Hours()/24))
	}
}
