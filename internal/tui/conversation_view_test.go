package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/MANASAREDDY288/astropeace-project/internal/support"
)

// fakeChatService records calls and serves canned responses.
type fakeChatService struct {
	mu sync.Mutex

	chats    []support.Chat
	payload  support.ChatPayload
	allErr   error
	fetchErr error
	markErr  error
	sendErr  error

	fetchAllCalls  int
	fetchByIDCalls int
	markReadCalls  int
	replyCalls     int
	lastReplyText  string
}

func (f *fakeChatService) FetchAllChats(ctx context.Context) ([]support.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchAllCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.chats, nil
}

func (f *fakeChatService) FetchChatByID(ctx context.Context, id string) (support.ChatPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchByIDCalls++
	if f.fetchErr != nil {
		return support.ChatPayload{}, f.fetchErr
	}
	return f.payload, nil
}

func (f *fakeChatService) MarkAllMessagesAsReadByAstrologer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls++
	return f.markErr
}

func (f *fakeChatService) AddAstrologerResponse(ctx context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	f.lastReplyText = text
	return f.sendErr
}

func (f *fakeChatService) counts() (fetchByID, markRead, reply int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchByIDCalls, f.markReadCalls, f.replyCalls
}

// runCmd executes a command tree and flattens the resulting messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, runCmd(sub)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func convChatFixture(id string, msgIDs ...string) support.Chat {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	chat := support.Chat{
		ID:       id,
		Question: "When is a good muhurtham?",
		UserProfile: []support.Profile{
			{Name: "Ananya Rao"},
		},
		AstrologerProfile: []support.Profile{
			{Name: "Guruji Sharma"},
		},
		UnreadMessageCount: len(msgIDs),
		CreatedAt:          base,
		UpdatedAt:          base,
	}
	for i, msgID := range msgIDs {
		chat.Conversation = append(chat.Conversation, support.Message{
			ID:        msgID,
			Text:      "message " + msgID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return chat
}

func loadedMsg(v *conversationView, payload support.ChatPayload, initial bool) convLoadedMsg {
	return convLoadedMsg{
		gen:     v.gen,
		chatID:  v.chatID,
		now:     time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		payload: payload,
		initial: initial,
	}
}

func TestConversationBlankTargetIssuesNoRequest(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)

	cmd := view.SetTarget("   ")
	require.Nil(t, cmd)
	require.False(t, view.loading)

	fetches, _, _ := service.counts()
	require.Zero(t, fetches)
}

func TestConversationOpenMarksReadExactlyOnce(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")

	chat := convChatFixture("chat-1", "m1", "m2")
	cmd := view.Update(loadedMsg(view, support.PayloadFromChat(chat), true))
	require.NotNil(t, cmd, "initial load should fire the mark-read call")
	runCmd(cmd)

	require.NotNil(t, view.chat)
	require.True(t, view.markedRead)
	for _, msg := range view.chat.Conversation {
		require.True(t, msg.IsReadByAstrologer)
	}

	// Two more poll results arrive; mark-read must not fire again.
	for i := 0; i < 2; i++ {
		cmd = view.Update(loadedMsg(view, support.PayloadFromChat(chat), false))
		runCmd(cmd)
	}

	_, markReads, _ := service.counts()
	require.Equal(t, 1, markReads)
}

func TestConversationMarkReadFailureIsSilent(t *testing.T) {
	service := &fakeChatService{markErr: context.DeadlineExceeded}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")

	chat := convChatFixture("chat-1", "m1")
	cmd := view.Update(loadedMsg(view, support.PayloadFromChat(chat), true))
	for _, msg := range runCmd(cmd) {
		// A mark-read failure is logged, never toasted.
		require.IsType(t, markReadDoneMsg{}, msg)
		followup := view.Update(msg)
		require.Nil(t, followup)
	}
	require.NotNil(t, view.chat)
	require.True(t, view.chat.Conversation[0].IsReadByAstrologer)
}

func TestConversationEmptyPollKeepsState(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")

	chat := convChatFixture("chat-1", "m1", "m2")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(chat), true)))
	require.Len(t, view.chat.Conversation, 2)

	cmd := view.Update(loadedMsg(view, support.PayloadFromMessages(nil), false))
	require.Nil(t, cmd)
	require.Len(t, view.chat.Conversation, 2, "empty poll result must not clear the screen")
}

func TestConversationPollErrorKeepsStateAndToasts(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")

	chat := convChatFixture("chat-1", "m1")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(chat), true)))

	failed := loadedMsg(view, support.ChatPayload{}, false)
	failed.err = context.DeadlineExceeded
	cmd := view.Update(failed)
	require.NotNil(t, cmd)

	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)
	require.IsType(t, showToastMsg{}, msgs[0])
	require.Len(t, view.chat.Conversation, 1)
}

func TestConversationStaleResultDiscardedAfterLeave(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")

	stale := loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)
	view.Leave()

	cmd := view.Update(stale)
	require.Nil(t, cmd)
	require.Nil(t, view.chat)
	require.False(t, view.markedRead)

	_, markReads, _ := service.counts()
	require.Zero(t, markReads)
}

func TestConversationStaleResultDiscardedAfterRetarget(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")

	stale := loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)
	view.SetTarget("chat-2")

	cmd := view.Update(stale)
	require.Nil(t, cmd)
	require.Nil(t, view.chat, "a fetch for the previous chat must not populate the new one")
}

func TestConversationStaleTickDies(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	oldGen := view.gen
	view.Leave()

	cmd := view.Update(convTickMsg{gen: oldGen})
	require.Nil(t, cmd, "a stale timer must not reschedule itself")
}

func TestConversationTickSkipsFetchWhileInFlight(t *testing.T) {
	service := &fakeChatService{payload: support.PayloadFromChat(convChatFixture("chat-1", "m1"))}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	baseline, _, _ := service.counts()

	// The initial fetch is still in flight; the tick reschedules but
	// must not stack a second request.
	require.True(t, view.inFlight)
	runCmd(view.Update(convTickMsg{gen: view.gen}))

	fetches, _, _ := service.counts()
	require.Equal(t, baseline, fetches)

	// After the fetch lands the next tick polls again.
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)))
	require.False(t, view.inFlight)
	runCmd(view.Update(convTickMsg{gen: view.gen}))

	fetches, _, _ = service.counts()
	require.Equal(t, baseline+1, fetches)
}

func TestConversationBlankReplyIsNoop(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)))

	view.draft = "   "
	cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.False(t, view.sending)
	require.Equal(t, "   ", view.draft, "the input stays as typed")

	_, _, replies := service.counts()
	require.Zero(t, replies)
}

func TestConversationReplySendRefetchClearsDraft(t *testing.T) {
	refreshed := convChatFixture("chat-1", "m1", "m2")
	service := &fakeChatService{payload: support.PayloadFromChat(refreshed)}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)))

	view.draft = "Namaste, checking on your report"
	cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, view.sending)

	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)
	result, ok := msgs[0].(replyResultMsg)
	require.True(t, ok)

	require.Nil(t, view.Update(result))
	require.False(t, view.sending)
	require.Empty(t, view.draft, "draft clears only after the refetch lands")
	require.Len(t, view.chat.Conversation, 2)
	require.Equal(t, "Namaste, checking on your report", service.lastReplyText)
}

func TestConversationReplySendFailureKeepsDraft(t *testing.T) {
	service := &fakeChatService{sendErr: context.DeadlineExceeded}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)))

	view.draft = "hello"
	cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)

	toastCmd := view.Update(msgs[0])
	require.NotNil(t, toastCmd)
	require.IsType(t, showToastMsg{}, runCmd(toastCmd)[0])
	require.Equal(t, "hello", view.draft, "a failed send leaves the draft for retry")
	require.False(t, view.sending)
}

func TestConversationReplyEmptyRefetchToasts(t *testing.T) {
	service := &fakeChatService{payload: support.PayloadFromMessages(nil)}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)))

	view.draft = "hello"
	msgs := runCmd(view.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	require.Len(t, msgs, 1)

	toastCmd := view.Update(msgs[0])
	require.NotNil(t, toastCmd)
	toast := runCmd(toastCmd)[0].(showToastMsg)
	require.Equal(t, "Failed to load updated chat", toast.text)
	require.Len(t, view.chat.Conversation, 1, "the stale-but-valid view stays")
}

func TestConversationEnterWhileSendingIsIgnored(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)))

	view.draft = "first"
	sendCmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, sendCmd)
	require.True(t, view.sending)

	require.Nil(t, view.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	runCmd(sendCmd)
	_, _, replies := service.counts()
	require.Equal(t, 1, replies)
}

func TestConversationPollDoesNotRegressTicks(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-1")
	runCmd(view.Update(loadedMsg(view, support.PayloadFromChat(convChatFixture("chat-1", "m1")), true)))
	require.True(t, view.chat.Conversation[0].IsReadByAstrologer)

	// The poll result predates the mark-read write on the server, so its
	// flags are still false; the open view re-applies them.
	stalePayload := support.PayloadFromChat(convChatFixture("chat-1", "m1"))
	runCmd(view.Update(loadedMsg(view, stalePayload, false)))
	require.True(t, view.chat.Conversation[0].IsReadByAstrologer)
}

func TestConversationArrayPayloadNormalized(t *testing.T) {
	service := &fakeChatService{}
	view := newConversationView(service, time.Millisecond)
	view.SetTarget("chat-9")

	msgs := []support.Message{
		{ID: "m1", Text: "first question", Timestamp: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	runCmd(view.Update(loadedMsg(view, support.PayloadFromMessages(msgs), true)))

	require.NotNil(t, view.chat)
	require.Equal(t, "chat-9", view.chat.ID)
	require.Equal(t, "first question", view.chat.Question)
	require.Len(t, view.chat.Conversation, 1)
}
