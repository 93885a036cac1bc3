package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/batepapo/internal/chat"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/middleware"
)

// ChatService is the core the chat handlers drive.
type ChatService interface {
	Join(ctx context.Context, name string) (*domain.Participant, error)
	ListParticipants(ctx context.Context) ([]domain.Participant, error)
	PostMessage(ctx context.Context, sender string, in chat.MessageInput) (domain.Message, error)
	ListMessages(ctx context.Context, user string, limit int) ([]domain.Message, error)
	Heartbeat(ctx context.Context, user string) error
	EditMessage(ctx context.Context, id, editor string, in chat.MessageInput) (domain.Message, error)
	DeleteMessage(ctx context.Context, id, requester string) error
}

var _ ChatService = (*chat.Service)(nil)

const limitError = "Limit deve ser um número inteiro positivo!"

// ChatHandler serves the participant and message routes.
type ChatHandler struct {
	svc ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Join handles POST /participants.
func (h *ChatHandler) Join(c echo.Context) error {
	var req JoinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	p, err := h.svc.Join(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	middleware.FromContext(c.Request().Context()).Info("Participant joined",
		"event", "participant_joined", "name", p.Name)
	return c.JSON(http.StatusCreated, NewParticipantResponse(*p))
}

// ListParticipants handles GET /participants.
func (h *ChatHandler) ListParticipants(c echo.Context) error {
	ps, err := h.svc.ListParticipants(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newParticipantResponses(ps))
}

// PostMessage handles POST /messages.
func (h *ChatHandler) PostMessage(c echo.Context) error {
	req, err := bindMessage(c)
	if err != nil {
		return err
	}

	msg, err := h.svc.PostMessage(c.Request().Context(), middleware.UserFrom(c), toInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, NewMessageResponse(msg))
}

// ListMessages handles GET /messages?limit=n.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, []string{limitError})
		}
		limit = n
	}

	msgs, err := h.svc.ListMessages(c.Request().Context(), middleware.UserFrom(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newMessageResponses(msgs))
}

// Heartbeat handles POST /status.
func (h *ChatHandler) Heartbeat(c echo.Context) error {
	if err := h.svc.Heartbeat(c.Request().Context(), middleware.UserFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// EditMessage handles PUT /messages/:id.
func (h *ChatHandler) EditMessage(c echo.Context) error {
	req, err := bindMessage(c)
	if err != nil {
		return err
	}

	msg, err := h.svc.EditMessage(c.Request().Context(), c.Param("id"), middleware.UserFrom(c), toInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, NewMessageResponse(msg))
}

// DeleteMessage handles DELETE /messages/:id.
func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	if err := h.svc.DeleteMessage(c.Request().Context(), c.Param("id"), middleware.UserFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// bindMessage decodes and validates a message body. Errors are
// *echo.HTTPError values ready to return.
func bindMessage(c echo.Context) (MessageRequest, error) {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return req, respondError(c, err)
	}
	return req, nil
}

func toInput(req MessageRequest) chat.MessageInput {
	return chat.MessageInput{To: req.To, Text: req.Text, Type: req.Type}
}
