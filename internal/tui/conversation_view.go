package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/MANASAREDDY288/astropeace-project/internal/logging"
	"github.com/MANASAREDDY288/astropeace-project/internal/support"
	"github.com/MANASAREDDY288/astropeace-project/internal/supportapi"
	"github.com/MANASAREDDY288/astropeace-project/internal/tui/styles"
)

const convFetchBudget = 20 * time.Second

type convTickMsg struct {
	gen int
}

type convLoadedMsg struct {
	gen     int
	chatID  string
	now     time.Time
	payload support.ChatPayload
	err     error
	initial bool
}

type markReadDoneMsg struct {
	chatID string
	err    error
}

type replyResultMsg struct {
	gen      int
	chatID   string
	now      time.Time
	payload  support.ChatPayload
	sendErr  error
	fetchErr error
}

// conversationView owns one open chat: the initial load, the poll
// timer, the reply composer, and scroll state. A generation counter is
// bumped whenever the target changes or the view is left, so results
// of requests issued under an older generation are discarded instead of
// being applied to a closed conversation.
type conversationView struct {
	service      ChatService
	pollInterval time.Duration

	gen           int
	chatID        string
	pendingTarget string

	chat       *support.Chat
	loading    bool
	inFlight   bool
	markedRead bool
	now        time.Time

	draft   string
	sending bool

	top        int
	stickBot   bool
	rowsShown  int
	totalLines int
}

func newConversationView(service ChatService, pollInterval time.Duration) *conversationView {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &conversationView{
		service:      service,
		pollInterval: pollInterval,
		stickBot:     true,
	}
}

func (v *conversationView) Init() tea.Cmd {
	if target := strings.TrimSpace(v.pendingTarget); target != "" {
		v.pendingTarget = ""
		return v.SetTarget(target)
	}
	return nil
}

// SetTarget opens a chat. A blank id means "no chat selected" and
// issues no request.
func (v *conversationView) SetTarget(chatID string) tea.Cmd {
	v.gen++
	v.chatID = strings.TrimSpace(chatID)
	v.chat = nil
	v.inFlight = false
	v.markedRead = false
	v.draft = ""
	v.sending = false
	v.top = 0
	v.stickBot = true

	if v.chatID == "" {
		v.loading = false
		return nil
	}
	v.loading = true
	v.inFlight = true
	return tea.Batch(v.fetchCmd(v.gen, true), v.tickCmd(v.gen))
}

// Leave tears the conversation down: the poll timer dies on its next
// fire and any in-flight fetch result is discarded.
func (v *conversationView) Leave() {
	v.gen++
	v.chatID = ""
	v.chat = nil
	v.loading = false
	v.inFlight = false
	v.sending = false
	v.draft = ""
}

// Close releases the view on program exit.
func (v *conversationView) Close() {
	v.Leave()
}

func (v *conversationView) tickCmd(gen int) tea.Cmd {
	return tea.Tick(v.pollInterval, func(time.Time) tea.Msg {
		return convTickMsg{gen: gen}
	})
}

func (v *conversationView) fetchCmd(gen int, initial bool) tea.Cmd {
	service := v.service
	chatID := v.chatID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), convFetchBudget)
		defer cancel()
		payload, err := service.FetchChatByID(ctx, chatID)
		return convLoadedMsg{
			gen:     gen,
			chatID:  chatID,
			now:     time.Now().UTC(),
			payload: payload,
			err:     err,
			initial: initial,
		}
	}
}

func (v *conversationView) markReadCmd() tea.Cmd {
	service := v.service
	chatID := v.chatID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), convFetchBudget)
		defer cancel()
		err := service.MarkAllMessagesAsReadByAstrologer(ctx, chatID)
		return markReadDoneMsg{chatID: chatID, err: err}
	}
}

func (v *conversationView) replyCmd(gen int, text string) tea.Cmd {
	service := v.service
	chatID := v.chatID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), convFetchBudget)
		defer cancel()

		if err := service.AddAstrologerResponse(ctx, chatID, text); err != nil {
			return replyResultMsg{gen: gen, chatID: chatID, now: time.Now().UTC(), sendErr: err}
		}
		payload, err := service.FetchChatByID(ctx, chatID)
		return replyResultMsg{
			gen:      gen,
			chatID:   chatID,
			now:      time.Now().UTC(),
			payload:  payload,
			fetchErr: err,
		}
	}
}

func (v *conversationView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case convTickMsg:
		return v.handleTick(typed)
	case convLoadedMsg:
		return v.applyLoaded(typed)
	case markReadDoneMsg:
		// Best effort: a mark-read failure never surfaces to the
		// operator and never blocks the read flow.
		if typed.err != nil {
			chatLog := logging.WithChat(typed.chatID)
			chatLog.Warn().Err(typed.err).Msg("mark chat read")
		}
		return nil
	case replyResultMsg:
		return v.applyReplyResult(typed)
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *conversationView) handleTick(msg convTickMsg) tea.Cmd {
	if msg.gen != v.gen {
		// Stale timer from a previous conversation; let it die.
		return nil
	}
	// Fixed wall-clock cadence: the next tick is scheduled whether or
	// not this one fetches.
	cmds := []tea.Cmd{v.tickCmd(v.gen)}
	if !v.inFlight && !v.sending {
		v.inFlight = true
		cmds = append(cmds, v.fetchCmd(v.gen, false))
	}
	return tea.Batch(cmds...)
}

func (v *conversationView) applyLoaded(msg convLoadedMsg) tea.Cmd {
	if msg.gen != v.gen {
		// The conversation was closed or retargeted while this fetch
		// was in flight; its result must not touch current state.
		return nil
	}
	v.inFlight = false
	v.now = msg.now
	if msg.initial {
		v.loading = false
	}

	if msg.err != nil {
		// Keep whatever is on screen; a transient blip must not
		// flash the conversation away.
		return showToastCmd(supportapi.UserMessage(msg.err), toastWarning)
	}
	if !msg.initial && msg.payload.IsEmpty() {
		// No update; keep current state.
		return nil
	}

	v.applyChat(msg.payload, msg.now)

	if !v.markedRead {
		// Opening a conversation marks it read, exactly once per
		// open. The local flags flip immediately; the server call is
		// fire-and-forget.
		v.markedRead = true
		if v.chat != nil {
			v.chat.MarkAllReadByAstrologer()
		}
		return v.markReadCmd()
	}
	return nil
}

func (v *conversationView) applyReplyResult(msg replyResultMsg) tea.Cmd {
	if msg.gen != v.gen {
		return nil
	}
	v.sending = false

	if msg.sendErr != nil {
		// Draft stays intact for retry.
		return showToastCmd(supportapi.UserMessage(msg.sendErr), toastWarning)
	}
	if msg.fetchErr != nil {
		return showToastCmd(supportapi.UserMessage(msg.fetchErr), toastWarning)
	}
	if msg.payload.IsEmpty() {
		return showToastCmd("Failed to load updated chat", toastWarning)
	}

	v.draft = ""
	v.applyChat(msg.payload, msg.now)
	return nil
}

// applyChat replaces the displayed conversation with the normalized
// fetch result and snaps to the latest message when it grew.
func (v *conversationView) applyChat(payload support.ChatPayload, now time.Time) {
	normalized := support.Normalize(v.chatID, payload, now)
	normalized.SortConversation()
	if v.markedRead {
		// The open conversation is read by definition; a poll result
		// predating the mark-read write must not regress the ticks.
		normalized.MarkAllReadByAstrologer()
	}

	changed := v.conversationChanged(&normalized)
	v.chat = &normalized
	if changed {
		v.stickBot = true
		v.top = 0
	}
}

func (v *conversationView) conversationChanged(next *support.Chat) bool {
	if v.chat == nil {
		return true
	}
	prev := v.chat.Conversation
	if len(prev) != len(next.Conversation) {
		return true
	}
	if len(prev) == 0 {
		return false
	}
	return prev[len(prev)-1].ID != next.Conversation[len(next.Conversation)-1].ID
}

func (v *conversationView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return v.submitReply()
	case "backspace", "ctrl+h":
		if v.sending {
			return nil
		}
		if len(v.draft) > 0 {
			runes := []rune(v.draft)
			v.draft = string(runes[:len(runes)-1])
		}
		return nil
	case "up", "ctrl+k":
		v.scroll(-1)
		return nil
	case "down", "ctrl+j":
		v.scroll(1)
		return nil
	case "pgup", "ctrl+u":
		v.scroll(-maxInt(1, v.rowsShown/2))
		return nil
	case "pgdown", "ctrl+d":
		v.scroll(maxInt(1, v.rowsShown/2))
		return nil
	case "end", "ctrl+g":
		v.stickBot = true
		return nil
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 && !v.sending {
		v.draft += string(msg.Runes)
	}
	if msg.Type == tea.KeySpace && !v.sending {
		v.draft += " "
	}
	return nil
}

// submitReply sends the draft. A trimmed-empty draft is a no-op, not an
// error, and the input is left as typed.
func (v *conversationView) submitReply() tea.Cmd {
	if v.sending || v.chatID == "" {
		return nil
	}
	if strings.TrimSpace(v.draft) == "" {
		return nil
	}
	v.sending = true
	return v.replyCmd(v.gen, v.draft)
}

func (v *conversationView) scroll(delta int) {
	if v.totalLines <= v.rowsShown {
		return
	}
	maxTop := maxInt(0, v.totalLines-v.rowsShown)
	if v.stickBot {
		v.top = maxTop
	}
	v.stickBot = false
	v.top = clampInt(v.top+delta, 0, maxTop)
	if v.top == maxTop {
		v.stickBot = true
	}
}

func (v *conversationView) View(width, height int, theme Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	palette := themePalette(theme)

	composer := v.renderComposer(width, palette)
	header := v.renderHeader(width, palette)
	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(composer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	v.rowsShown = bodyHeight

	body := v.renderMessages(width, bodyHeight, palette)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, composer)
}

func (v *conversationView) renderHeader(width int, palette styles.Theme) string {
	title := "Chat Conversation"
	if v.chat != nil {
		if user := v.chat.UserName(); user != "" {
			title = user
		}
		if q := strings.TrimSpace(v.chat.Question); q != "" {
			title += "  ·  " + q
		}
	}
	return lipgloss.NewStyle().Bold(true).Render(truncate(title, width))
}

func (v *conversationView) renderMessages(width, height int, palette styles.Theme) string {
	switch {
	case v.loading:
		return palette.MutedStyle().Render("Loading conversation…")
	case v.chat == nil:
		return palette.MutedStyle().Render("No chat found")
	case len(v.chat.Conversation) == 0:
		return palette.MutedStyle().Render("No messages yet")
	}

	lines := make([]string, 0, len(v.chat.Conversation)*3)
	for i := range v.chat.Conversation {
		lines = append(lines, v.renderBubble(&v.chat.Conversation[i], width, palette)...)
		lines = append(lines, "")
	}
	v.totalLines = len(lines)

	start := v.top
	if v.stickBot || start > len(lines)-height {
		start = maxInt(0, len(lines)-height)
		v.top = start
	}
	end := minInt(len(lines), start+height)
	return strings.Join(lines[start:end], "\n")
}

func (v *conversationView) renderBubble(msg *support.Message, width int, palette styles.Theme) []string {
	bubbleWidth := clampInt(width*3/4, 20, maxInt(20, width-4))
	color := palette.Message.User
	if msg.FromAstrologer {
		color = palette.Message.Astrologer
	}

	meta := fmt.Sprintf("%s %s",
		msg.Timestamp.Local().Format("15:04"),
		support.Ticks(*msg).String())

	body := wordwrap.String(strings.TrimSpace(msg.Text), maxInt(10, bubbleWidth-4))
	card := body + "\n" + palette.MutedStyle().Render(meta)

	style := lipgloss.NewStyle().
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(color)).
		PaddingLeft(1).
		Width(bubbleWidth)
	if !msg.FromAstrologer {
		// User messages sit on the right, as in the web console.
		style = style.MarginLeft(maxInt(0, width-bubbleWidth-2))
	}
	return strings.Split(style.Render(card), "\n")
}

func (v *conversationView) renderComposer(width int, palette styles.Theme) string {
	prompt := "> "
	label := v.draft
	if label == "" {
		label = palette.MutedStyle().Render("Type a message…")
	}
	line := prompt + label
	if v.sending {
		line += "  " + palette.AccentStyle().Render("sending…")
	}
	return lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(palette.Base.Border)).
		Width(maxInt(0, width)).
		Render(truncate(line, maxInt(0, width-1)))
}
