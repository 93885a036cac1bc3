package pubsub

import (
	"fmt"

	"github.com/nfrund/batepapo/internal/topicmgr"
)

// ParticipantEvent describes a participant entering or leaving the room.
type ParticipantEvent struct {
	Name string `json:"name"`
	At   int64  `json:"at"` // unix ms
}

// MessageEvent describes a change to the message log.
type MessageEvent struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Activity topics. Each is also listed in topicmgr.Default().
var (
	ParticipantJoined = define[ParticipantEvent]("chat.participant.joined", "A participant joined the room")
	ParticipantLeft   = define[ParticipantEvent]("chat.participant.left", "A participant was removed for inactivity")
	MessagePosted     = define[MessageEvent]("chat.message.posted", "A message was added to the log")
	MessageEdited     = define[MessageEvent]("chat.message.edited", "A message was edited by its sender")
	MessageDeleted    = define[MessageEvent]("chat.message.deleted", "A message was deleted by its sender")
)

func define[T any](name, description string) Event[T] {
	var zero T
	topicmgr.Default().MustRegister(topicmgr.Topic{
		Name:        name,
		Description: description,
		Payload:     fmt.Sprintf("%T", zero),
	})
	return NewEvent[T](name)
}
