package handlers

import (
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/samber/lo"
)

// ParticipantResponse keeps the wire shape clients already use:
// lastStatus is unix milliseconds.
type ParticipantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

// MessageResponse is the DTO for a single message.
type MessageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

// NewParticipantResponse creates a ParticipantResponse from a domain.Participant.
func NewParticipantResponse(p domain.Participant) ParticipantResponse {
	return ParticipantResponse{Name: p.Name, LastStatus: p.LastHeartbeat.UnixMilli()}
}

// NewMessageResponse creates a MessageResponse from a domain.Message.
func NewMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Type),
		Time: m.Time,
	}
}

func newParticipantResponses(ps []domain.Participant) []ParticipantResponse {
	return lo.Map(ps, func(p domain.Participant, _ int) ParticipantResponse {
		return NewParticipantResponse(p)
	})
}

func newMessageResponses(ms []domain.Message) []MessageResponse {
	return lo.Map(ms, func(m domain.Message, _ int) MessageResponse {
		return NewMessageResponse(m)
	})
}
