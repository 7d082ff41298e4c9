// Package support holds the chat/support domain model for the console:
// the canonical Chat and Message shapes, the dual-shape payload
// normalizer, read-state reconciliation, and inbox filtering. The
// package is pure; all I/O lives in supportapi and the TUI.
package support

import (
	"sort"
	"strings"
	"time"
)

// Profile is a denormalized display snapshot of a chat participant.
// Profiles arrive as lists and may be empty when the backend has no
// profile data for a party.
type Profile struct {
	Name       string `json:"name"`
	Pic        string `json:"pic,omitempty"`
	Email      string `json:"email,omitempty"`
	TelCode    string `json:"telCode,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	DOB        string `json:"dob,omitempty"`
	Gothram    string `json:"gothram,omitempty"`
	ZodiacSign string `json:"zodiacSign,omitempty"`
}

// Message is one line of dialogue. FromAstrologer fixes the direction;
// the two read flags are tracked per party and only ever move
// false -> true.
type Message struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	FromAstrologer     bool      `json:"fromAstrologer"`
	Timestamp          time.Time `json:"timestamp"`
	IsReadByUser       bool      `json:"isReadByUser"`
	IsReadByAstrologer bool      `json:"isReadByAstrologer"`
}

// Chat is one conversation thread between a user and an astrologer.
// Conversation is ordered chronologically and is always replaced
// wholesale on refresh; the client never diffs or appends locally.
type Chat struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	AstrologerID       string    `json:"astrologerId"`
	Question           string    `json:"question"`
	Conversation       []Message `json:"conversation"`
	UserProfile        []Profile `json:"userProfile"`
	AstrologerProfile  []Profile `json:"astrologerProfile"`
	UnreadMessageCount int       `json:"unreadMessageCount"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	CreatedBy          string    `json:"createdBy,omitempty"`
	UpdatedBy          string    `json:"updatedBy,omitempty"`
	SentMessage        bool      `json:"sentMessage"`
	TxnOrderID         string    `json:"txnOrderId,omitempty"`
}

// UserName returns the display name of the first user profile entry.
func (c *Chat) UserName() string {
	if len(c.UserProfile) == 0 {
		return ""
	}
	return strings.TrimSpace(c.UserProfile[0].Name)
}

// AstrologerName returns the display name of the first astrologer
// profile entry.
func (c *Chat) AstrologerName() string {
	if len(c.AstrologerProfile) == 0 {
		return ""
	}
	return strings.TrimSpace(c.AstrologerProfile[0].Name)
}

// MarkAllReadByAstrologer flips the astrologer read flag on every
// user-authored message. Flags only transition false -> true; messages
// already read and the astrologer's own outgoing messages are left
// untouched. This mirrors locally what the mark-read endpoint does
// server-side so the view does not have to wait for the next poll.
func (c *Chat) MarkAllReadByAstrologer() {
	for i := range c.Conversation {
		if !c.Conversation[i].FromAstrologer {
			c.Conversation[i].IsReadByAstrologer = true
		}
	}
}

// SortConversation restores the non-decreasing timestamp ordering the
// server guarantees. Ties keep their relative order.
func (c *Chat) SortConversation() {
	sort.SliceStable(c.Conversation, func(i, j int) bool {
		return c.Conversation[i].Timestamp.Before(c.Conversation[j].Timestamp)
	})
}

// Clone returns a deep copy so a view can mutate read flags without
// aliasing the inbox cache.
func (c Chat) Clone() Chat {
	cloned := c
	if len(c.Conversation) > 0 {
		cloned.Conversation = append([]Message(nil), c.Conversation...)
	}
	if len(c.UserProfile) > 0 {
		cloned.UserProfile = append([]Profile(nil), c.UserProfile...)
	}
	if len(c.AstrologerProfile) > 0 {
		cloned.AstrologerProfile = append([]Profile(nil), c.AstrologerProfile...)
	}
	return cloned
}
