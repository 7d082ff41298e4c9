package support

// TickState is the delivery/read indicator rendered beside a message,
// always from the astrologer's viewpoint.
type TickState int

const (
	// TickSingle is one tick: an outgoing message not yet read by the
	// user, or an incoming message the astrologer has not read.
	TickSingle TickState = iota + 1
	// TickDouble is two ticks: the other side of each case above.
	TickDouble
)

func (t TickState) String() string {
	if t == TickDouble {
		return "✓✓"
	}
	return "✓"
}

// Ticks computes the indicator for one message. For the astrologer's
// own outgoing messages the relevant flag is whether the user has read
// it; for user-authored messages it is the astrologer's own read flag,
// an "have I read this" marker rather than delivery.
func Ticks(msg Message) TickState {
	if msg.FromAstrologer {
		if msg.IsReadByUser {
			return TickDouble
		}
		return TickSingle
	}
	if msg.IsReadByAstrologer {
		return TickDouble
	}
	return TickSingle
}

// UnreadBadge returns the astrologer-facing unread count for the inbox
// row. The server value is authoritative and is never recomputed from
// individual message flags client-side.
func UnreadBadge(chat Chat) int {
	if chat.UnreadMessageCount < 0 {
		return 0
	}
	return chat.UnreadMessageCount
}
