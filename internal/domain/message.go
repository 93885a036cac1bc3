package domain

import "time"

// MessageType classifies a message for addressing and visibility.
type MessageType string

const (
	// TypeMessage is a room broadcast, visible to everyone.
	TypeMessage MessageType = "message"
	// TypePrivate is addressed to a single participant.
	TypePrivate MessageType = "private_message"
	// TypeStatus is a synthetic join/leave notice.
	TypeStatus MessageType = "status"
)

// Broadcast is the reserved addressing literal meaning everyone in the room.
// It can never be used as a participant name.
const Broadcast = "Todos"

// Status notice texts.
const (
	JoinText  = "entra na sala..."
	LeaveText = "sai da sala..."
)

// TimeLayout is the hour:minute:second text format of Message.Time. Existing
// clients parse this exact shape.
const TimeLayout = "15:04:05"

// Message is an addressed chat entry.
type Message struct {
	ID   string
	From string
	To   string
	Text string
	Type MessageType
	Time string
}

// MessageUpdate holds the fields an owner may change. From, ID and Time are
// immutable.
type MessageUpdate struct {
	To   string
	Text string
	Type MessageType
}

// FormatTime renders t with TimeLayout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// NewStatusMessage builds a status notice from name to the whole room.
func NewStatusMessage(name, text string, now time.Time) Message {
	return Message{
		From: name,
		To:   Broadcast,
		Text: text,
		Type: TypeStatus,
		Time: FormatTime(now),
	}
}

// UserSendable reports whether clients may post messages of this type.
// Status notices are produced by the server only.
func (t MessageType) UserSendable() bool {
	return t == TypeMessage || t == TypePrivate
}
