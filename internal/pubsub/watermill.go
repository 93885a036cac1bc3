package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// WatermillBridge implements Publisher and Subscriber on top of watermill's
// GoChannel.
type WatermillBridge struct {
	pub message.Publisher
	sub message.Subscriber
	log *slog.Logger
}

var (
	_ Publisher  = (*WatermillBridge)(nil)
	_ Subscriber = (*WatermillBridge)(nil)
)

const (
	// Metadata keys used to carry Message fields through a watermill message.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// NewWatermillBridge creates an in-memory bus. bufferSize is the per
// subscriber channel buffer; publishing does not block on slow subscribers
// until it fills.
func NewWatermillBridge(log *slog.Logger, bufferSize int64) *WatermillBridge {
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: bufferSize},
		NewSlogAdapter(log),
	)

	return &WatermillBridge{
		pub: goChannel,
		sub: goChannel,
		log: log,
	}
}

func mapToWatermillMessage(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyUserID && k != metaKeyTopic {
			metadata[k] = v
		}
	}
	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(msg))
}

// Subscribe implements the Subscriber interface. It returns once the
// subscription is registered; delivery runs on its own goroutine.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msg := mapToPubSubMessage(wmMsg)
			if err := handler(ctx, msg); err != nil {
				// no redelivery on the in-memory bus: log and drop
				wb.log.Error("Failed to handle message", "event", "pubsub_handler_failure",
					"topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		wb.log.Debug("Subscription message loop ended", "topic", topic)
	}()
	return nil
}

// Close shuts down the bus. Pending subscriptions end.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}

// Shutdown lets a do injector close the bus.
func (wb *WatermillBridge) Shutdown() error {
	return wb.Close()
}

// SlogAdapter routes watermill's internal logging to slog.
type SlogAdapter struct {
	log *slog.Logger
}

// NewSlogAdapter wraps log as a watermill.LoggerAdapter.
func NewSlogAdapter(log *slog.Logger) *SlogAdapter {
	return &SlogAdapter{log: log}
}

func (a *SlogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(attrs(fields), "error", err)...)
}

func (a *SlogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, attrs(fields)...)
}

// Debug is demoted: GoChannel logs every publish at debug level.
func (a *SlogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Log(context.Background(), slog.LevelDebug-2, msg, attrs(fields)...)
}

func (a *SlogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Log(context.Background(), slog.LevelDebug-4, msg, attrs(fields)...)
}

func (a *SlogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &SlogAdapter{log: a.log.With(attrs(fields)...)}
}

func attrs(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
