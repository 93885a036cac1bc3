package database

import (
	"fmt"
	"time"

	"github.com/nfrund/batepapo/internal/domain"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

const (
	participantTable = "participant"
	messageTable     = "message"
)

// participantRecord is the stored shape of a participant. Times are unix
// milliseconds so range comparisons stay plain integer comparisons.
type participantRecord struct {
	ID         *models.RecordID `json:"id,omitempty"`
	Name       string           `json:"name"`
	LastStatus int64            `json:"last_status"`
	JoinedAt   int64            `json:"joined_at"`
}

func (r participantRecord) toDomain() domain.Participant {
	return domain.Participant{
		Name:          r.Name,
		LastHeartbeat: time.UnixMilli(r.LastStatus).UTC(),
		JoinedAt:      time.UnixMilli(r.JoinedAt).UTC(),
	}
}

// messageRecord is the stored shape of a message. Field names avoid
// SurrealQL keywords.
type messageRecord struct {
	ID        *models.RecordID `json:"id,omitempty"`
	Sender    string           `json:"sender"`
	Recipient string           `json:"recipient"`
	Text      string           `json:"text"`
	MsgType   string           `json:"msg_type"`
	Time      string           `json:"time"`
}

func (r messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:   recordKey(r.ID),
		From: r.Sender,
		To:   r.Recipient,
		Text: r.Text,
		Type: domain.MessageType(r.MsgType),
		Time: r.Time,
	}
}

// recordKey returns the key part of a record id (the "abc" in message:abc).
func recordKey(id *models.RecordID) string {
	if id == nil {
		return ""
	}
	if s, ok := id.ID.(string); ok {
		return s
	}
	return fmt.Sprint(id.ID)
}
