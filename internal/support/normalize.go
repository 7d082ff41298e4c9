package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ChatPayload is the tagged union for the two legal shapes the
// chat-by-id endpoint returns: a full Chat object or a bare array of
// messages. The asymmetry is a documented upstream contract, not a bug;
// it is resolved exactly once here so everything downstream only ever
// sees the canonical Chat.
type ChatPayload struct {
	Chat     *Chat
	Messages []Message
	isArray  bool
}

// UnmarshalJSON decodes either shape based on the leading token.
func (p *ChatPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = ChatPayload{}
		return nil
	}
	switch trimmed[0] {
	case '[':
		var msgs []Message
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return fmt.Errorf("decode message array: %w", err)
		}
		*p = ChatPayload{Messages: msgs, isArray: true}
		return nil
	case '{':
		var chat Chat
		if err := json.Unmarshal(trimmed, &chat); err != nil {
			return fmt.Errorf("decode chat object: %w", err)
		}
		*p = ChatPayload{Chat: &chat}
		return nil
	default:
		return fmt.Errorf("unexpected chat payload shape")
	}
}

// IsArray reports whether the payload arrived as a bare message array.
func (p ChatPayload) IsArray() bool { return p.isArray }

// IsEmpty reports whether the payload carries nothing to display: a
// missing object, or an array shape with zero messages. Pollers treat
// an empty payload as "no update" rather than an error.
func (p ChatPayload) IsEmpty() bool {
	if p.isArray {
		return len(p.Messages) == 0
	}
	return p.Chat == nil
}

// PayloadFromChat wraps an already-canonical Chat, for callers that
// obtained one outside the decode path.
func PayloadFromChat(chat Chat) ChatPayload {
	return ChatPayload{Chat: &chat}
}

// PayloadFromMessages wraps a raw message sequence as the array shape.
func PayloadFromMessages(msgs []Message) ChatPayload {
	return ChatPayload{Messages: msgs, isArray: true}
}

// Normalize collapses a payload into the canonical Chat.
//
// The array shape carries no chat envelope, so one is synthesized: the
// requested id, the first message's text as the question, empty profile
// lists, and timestamps of now. The unread count is deliberately
// reported as zero in that branch; it cannot be derived from the shape
// and guessing would misstate the badge. The object shape passes
// through verbatim except that a missing conversation becomes an empty
// slice so downstream code never sees nil.
func Normalize(requestedID string, payload ChatPayload, now time.Time) Chat {
	if payload.isArray {
		msgs := append([]Message(nil), payload.Messages...)
		question := ""
		if len(msgs) > 0 {
			question = msgs[0].Text
		}
		return Chat{
			ID:                 requestedID,
			Question:           question,
			Conversation:       msgs,
			UserProfile:        []Profile{},
			AstrologerProfile:  []Profile{},
			UnreadMessageCount: 0,
			CreatedAt:          now,
			UpdatedAt:          now,
			CreatedBy:          "default",
			UpdatedBy:          "default",
			SentMessage:        len(msgs) > 0,
		}
	}

	if payload.Chat == nil {
		return Chat{ID: requestedID, Conversation: []Message{}, CreatedAt: now, UpdatedAt: now}
	}
	chat := payload.Chat.Clone()
	if chat.Conversation == nil {
		chat.Conversation = []Message{}
	}
	return chat
}
