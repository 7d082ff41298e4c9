// Package tui is the bubbletea console: the chat inbox and the
// conversation screen, a view stack, and toast-level notifications.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MANASAREDDY288/astropeace-project/internal/logging"
	"github.com/MANASAREDDY288/astropeace-project/internal/session"
	"github.com/MANASAREDDY288/astropeace-project/internal/support"
	"github.com/MANASAREDDY288/astropeace-project/internal/tui/styles"
)

const (
	defaultPollInterval = 30 * time.Second
	toastDuration       = 4 * time.Second
)

// ChatService is the slice of the repository client the console needs.
// *supportapi.Client satisfies it; tests substitute fakes.
type ChatService interface {
	FetchAllChats(ctx context.Context) ([]support.Chat, error)
	FetchChatByID(ctx context.Context, id string) (support.ChatPayload, error)
	MarkAllMessagesAsReadByAstrologer(ctx context.Context, id string) error
	AddAstrologerResponse(ctx context.Context, id, text string) error
}

// Theme selects the palette.
type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeHighContrast Theme = "high-contrast"
)

// ViewID identifies a screen.
type ViewID string

const (
	ViewInbox        ViewID = "inbox"
	ViewConversation ViewID = "conversation"
)

// Config configures the console model.
type Config struct {
	Service      ChatService
	Sessions     *session.Manager
	Theme        string
	PollInterval time.Duration
	// OpenChatID opens a conversation directly instead of the inbox.
	OpenChatID string
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme Theme) string
}

type openConversationMsg struct {
	chatID string
}

type popViewMsg struct{}

type toastLevel int

const (
	toastWarning toastLevel = iota
	toastInfo
)

type showToastMsg struct {
	text  string
	level toastLevel
}

type clearToastMsg struct {
	seq int
}

func openConversationCmd(chatID string) tea.Cmd {
	return func() tea.Msg {
		return openConversationMsg{chatID: chatID}
	}
}

func popViewCmd() tea.Cmd {
	return func() tea.Msg {
		return popViewMsg{}
	}
}

func showToastCmd(text string, level toastLevel) tea.Cmd {
	return func() tea.Msg {
		return showToastMsg{text: text, level: level}
	}
}

// Model is the root bubbletea model.
type Model struct {
	service  ChatService
	sessions *session.Manager
	theme    Theme

	width  int
	height int

	showHelp bool

	toastText  string
	toastLevel toastLevel
	toastSeq   int

	viewStack    []ViewID
	inbox        *inboxView
	conversation *conversationView
}

// NewModel validates the config and builds the root model.
func NewModel(cfg Config) (*Model, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("chat service required")
	}
	theme := Theme(strings.TrimSpace(cfg.Theme))
	if theme == "" {
		theme = ThemeDefault
	}
	switch theme {
	case ThemeDefault, ThemeHighContrast:
	default:
		return nil, fmt.Errorf("invalid theme %q", cfg.Theme)
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	m := &Model{
		service:   cfg.Service,
		sessions:  cfg.Sessions,
		theme:     theme,
		viewStack: []ViewID{ViewInbox},
	}
	m.inbox = newInboxView(cfg.Service)
	m.conversation = newConversationView(cfg.Service, pollInterval)

	if chatID := strings.TrimSpace(cfg.OpenChatID); chatID != "" {
		m.viewStack = append(m.viewStack, ViewConversation)
		m.conversation.pendingTarget = chatID
	}
	return m, nil
}

// Run starts the console and blocks until it exits.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Close releases every view's resources.
func (m *Model) Close() {
	if m == nil {
		return
	}
	if m.conversation != nil {
		m.conversation.Close()
	}
}

func (m *Model) Init() tea.Cmd {
	if view := m.activeView(); view != nil {
		return view.Init()
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case openConversationMsg:
		m.pushView(ViewConversation)
		m.rememberChat(typed.chatID)
		return m, m.conversation.SetTarget(typed.chatID)
	case popViewMsg:
		m.popView()
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case showToastMsg:
		m.toastText = typed.text
		m.toastLevel = typed.level
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return clearToastMsg{seq: seq}
		})
	case clearToastMsg:
		if typed.seq == m.toastSeq {
			m.toastText = ""
		}
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	active := m.activeView()
	if active == nil {
		return "no active view"
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := active.View(m.width, contentHeight, m.theme)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// The composer consumes plain keys while focused; only control
	// chords stay global on the conversation screen.
	if m.activeViewID() == ViewConversation {
		switch msg.String() {
		case "ctrl+c":
			return tea.Quit, true
		case "esc":
			m.conversation.Leave()
			return popViewCmd(), true
		}
		return nil, false
	}

	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	// While a filter field has focus, plain runes like "q" and "?" are
	// input, not shortcuts.
	if m.inbox != nil && m.inbox.focus != focusList {
		return nil, false
	}
	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "?":
		m.showHelp = !m.showHelp
		return nil, true
	}
	return nil, false
}

func (m *Model) activeView() viewModel {
	switch m.activeViewID() {
	case ViewConversation:
		return m.conversation
	default:
		return m.inbox
	}
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewInbox
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if id == "" || m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popView() {
	if len(m.viewStack) <= 1 {
		return
	}
	m.viewStack = m.viewStack[:len(m.viewStack)-1]
}

func (m *Model) rememberChat(chatID string) {
	if m.sessions == nil {
		return
	}
	if err := m.sessions.SetLastChatID(chatID); err != nil {
		logging.Warn().Err(err).Msg("persist last chat id")
	}
}

func (m *Model) palette() styles.Theme {
	return themePalette(m.theme)
}

func themePalette(theme Theme) styles.Theme {
	if palette, ok := styles.Themes[string(theme)]; ok {
		return palette
	}
	return styles.DefaultTheme
}
