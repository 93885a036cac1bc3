// Package pubsub is the in-process event bus. Core services publish
// activity events here; observers such as the stats counter subscribe.
// Publishing is best effort and never part of a request's outcome.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "chat.message.posted").
	Topic string
	// UserID names the participant the event is about.
	UserID string
	// Payload is the JSON encoded event.
	Payload []byte
	// Metadata can carry arbitrary key-value pairs.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages on topic to handler in the
	// background until ctx is canceled or the bus is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
