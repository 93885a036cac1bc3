package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/view"
)

// ParticipantLister lists live participants.
type ParticipantLister interface {
	ListParticipants(ctx context.Context) ([]domain.Participant, error)
}

// LobbyHandler serves the lobby page and its polled fragment.
type LobbyHandler struct {
	participants ParticipantLister
	clock        clock.Clock
	poll         time.Duration
}

// NewLobbyHandler creates a new LobbyHandler. poll is how often the page
// refreshes the list.
func NewLobbyHandler(participants ParticipantLister, clk clock.Clock, poll time.Duration) *LobbyHandler {
	return &LobbyHandler{participants: participants, clock: clk, poll: poll}
}

// Page handles GET /.
func (h *LobbyHandler) Page(c echo.Context) error {
	ps, err := h.participants.ListParticipants(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.Render(http.StatusOK, "", view.LobbyPage(ps, h.clock.Now(), h.poll))
}

// Participants handles GET /lobby/participants.
func (h *LobbyHandler) Participants(c echo.Context) error {
	ps, err := h.participants.ListParticipants(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.Render(http.StatusOK, "", view.ParticipantList(ps, h.clock.Now(), h.poll))
}
