package support

import (
	"strings"
	"time"
)

// InboxFilter is the client-side predicate applied to the fetched chat
// set. Zero values disable the corresponding constraint.
type InboxFilter struct {
	Search   string
	DateFrom time.Time
	DateTo   time.Time
}

// IsZero reports whether the filter matches everything.
func (f InboxFilter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.DateFrom.IsZero() && f.DateTo.IsZero()
}

// FilterChats returns the subset of chats matching the filter. The text
// term matches case-insensitively as a substring of the first user
// profile name, the first astrologer profile name, or the question; any
// of the three suffices. The date constraint checks createdAt against
// [DateFrom, DateTo] inclusive, with DateTo widened to the end of its
// day so a same-day upper bound keeps the whole day. Text and date
// constraints combine with AND.
func FilterChats(chats []Chat, filter InboxFilter) []Chat {
	if len(chats) == 0 {
		return nil
	}
	out := make([]Chat, 0, len(chats))
	for i := range chats {
		if chatMatches(&chats[i], filter) {
			out = append(out, chats[i])
		}
	}
	return out
}

func chatMatches(chat *Chat, filter InboxFilter) bool {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	if term != "" {
		textMatch := strings.Contains(strings.ToLower(chat.UserName()), term) ||
			strings.Contains(strings.ToLower(chat.AstrologerName()), term) ||
			strings.Contains(strings.ToLower(chat.Question), term)
		if !textMatch {
			return false
		}
	}

	if !filter.DateFrom.IsZero() && chat.CreatedAt.Before(filter.DateFrom) {
		return false
	}
	if !filter.DateTo.IsZero() && chat.CreatedAt.After(EndOfDay(filter.DateTo)) {
		return false
	}
	return true
}

// EndOfDay normalizes a date bound to 23:59:59.999 of the same day in
// the bound's location.
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
