package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/batepapo/internal/chat"
	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/database/memory"
	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/handlers"
	"github.com/nfrund/batepapo/internal/rendering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewRenderer()
	return e
}

func registerChat(e *echo.Echo, h *handlers.ChatHandler) {
	e.POST("/participants", h.Join)
	e.GET("/participants", h.ListParticipants)
	e.POST("/messages", h.PostMessage)
	e.GET("/messages", h.ListMessages)
	e.POST("/status", h.Heartbeat)
	e.PUT("/messages/:id", h.EditMessage)
	e.DELETE("/messages/:id", h.DeleteMessage)
}

func setupChatTest(t *testing.T) (*echo.Echo, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(t0)
	svc := chat.NewService(memory.NewParticipantStore(), memory.NewMessageStore(), nil, clk, slog.Default())
	e := newEcho()
	registerChat(e, handlers.NewChatHandler(svc))
	return e, clk
}

func do(e *echo.Echo, method, target, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set("User", user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestJoinParticipant(t *testing.T) {
	e, _ := setupChatTest(t)

	rec := do(e, http.MethodPost, "/participants", "", `{"name":"ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	p := decode[handlers.ParticipantResponse](t, rec)
	assert.Equal(t, "ana", p.Name)
	assert.Equal(t, t0.UnixMilli(), p.LastStatus)

	rec = do(e, http.MethodPost, "/participants", "", `{"name":"ana"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{}`, http.StatusUnprocessableEntity},
		{"blank name", `{"name":"   "}`, http.StatusUnprocessableEntity},
		{"reserved name", `{"name":"Todos"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"name":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/participants", "", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec = do(e, http.MethodPost, "/participants", "", `{}`)
	details := decode[[]string](t, rec)
	assert.Equal(t, []string{`"name" is required`}, details)
}

func TestListParticipants(t *testing.T) {
	e, _ := setupChatTest(t)

	rec := do(e, http.MethodGet, "/participants", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	do(e, http.MethodPost, "/participants", "", `{"name":"ana"}`)
	rec = do(e, http.MethodGet, "/participants", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []handlers.ParticipantResponse{{Name: "ana", LastStatus: t0.UnixMilli()}},
		decode[[]handlers.ParticipantResponse](t, rec))
}

func TestPostMessage(t *testing.T) {
	e, clk := setupChatTest(t)
	do(e, http.MethodPost, "/participants", "", `{"name":"ana"}`)
	clk.Advance(2 * time.Second)

	rec := do(e, http.MethodPost, "/messages", "ana", `{"to":"Todos","text":"oi","type":"message"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decode[handlers.MessageResponse](t, rec)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, handlers.MessageResponse{ID: msg.ID, From: "ana", To: "Todos", Text: "oi", Type: "message", Time: "09:00:02"}, msg)

	t.Run("unknown sender", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/messages", "ghost", `{"to":"Todos","text":"oi","type":"message"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/messages", "", `{"to":"Todos","text":"oi","type":"message"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("all field errors reported", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/messages", "ana", `{"type":"status"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		details := decode[[]string](t, rec)
		assert.ElementsMatch(t, []string{
			`"to" is required`,
			`"text" is required`,
			`"type" must be one of [message, private_message]`,
		}, details)
	})

	t.Run("text only markup", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/messages", "ana", `{"to":"Todos","text":"<b></b>","type":"message"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestListMessages(t *testing.T) {
	e, _ := setupChatTest(t)
	for _, name := range []string{"ana", "bob", "carla"} {
		require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/participants", "", `{"name":"`+name+`"}`).Code)
	}
	do(e, http.MethodPost, "/messages", "ana", `{"to":"Todos","text":"oi","type":"message"}`)
	do(e, http.MethodPost, "/messages", "ana", `{"to":"bob","text":"psiu","type":"private_message"}`)

	rec := do(e, http.MethodGet, "/messages", "carla", "")
	require.Equal(t, http.StatusOK, rec.Code)
	carla := decode[[]handlers.MessageResponse](t, rec)
	assert.Len(t, carla, 4)
	for _, m := range carla {
		assert.NotEqual(t, "psiu", m.Text)
	}

	rec = do(e, http.MethodGet, "/messages?limit=2", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	bob := decode[[]handlers.MessageResponse](t, rec)
	require.Len(t, bob, 2)
	assert.Equal(t, "oi", bob[0].Text)
	assert.Equal(t, "psiu", bob[1].Text)

	for _, limit := range []string{"0", "-3", "abc", "1.5"} {
		t.Run("limit "+limit, func(t *testing.T) {
			rec := do(e, http.MethodGet, "/messages?limit="+limit, "bob", "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), "Limit deve ser")
		})
	}
}

func TestHeartbeat(t *testing.T) {
	e, _ := setupChatTest(t)
	do(e, http.MethodPost, "/participants", "", `{"name":"ana"}`)

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/status", "ana", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/status", "ghost", "").Code)
}

func TestEditAndDeleteMessage(t *testing.T) {
	e, _ := setupChatTest(t)
	do(e, http.MethodPost, "/participants", "", `{"name":"ana"}`)
	rec := do(e, http.MethodPost, "/messages", "ana", `{"to":"Todos","text":"oi","type":"message"}`)
	id := decode[handlers.MessageResponse](t, rec).ID

	body := `{"to":"bob","text":"oi bob","type":"private_message"}`
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/messages/missing", "ana", body).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPut, "/messages/"+id, "bob", body).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(e, http.MethodPut, "/messages/"+id, "ana", `{"to":"bob"}`).Code)

	rec = do(e, http.MethodPut, "/messages/"+id, "ana", body)
	require.Equal(t, http.StatusOK, rec.Code)
	edited := decode[handlers.MessageResponse](t, rec)
	assert.Equal(t, "oi bob", edited.Text)
	assert.Equal(t, "private_message", edited.Type)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/messages/missing", "ana", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodDelete, "/messages/"+id, "bob", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/messages/"+id, "ana", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/messages/"+id, "ana", "").Code)
}

// failingService returns a backing store failure from every call.
type failingService struct {
	handlers.ChatService
}

func (failingService) ListParticipants(context.Context) ([]domain.Participant, error) {
	return nil, domain.NewBackingStoreError("list participants", errors.New("connection refused"))
}

func (failingService) Heartbeat(context.Context, string) error {
	return domain.NewBackingStoreError("heartbeat", errors.New("connection refused"))
}

func TestBackingStoreFailureIs500(t *testing.T) {
	e := newEcho()
	registerChat(e, handlers.NewChatHandler(failingService{}))

	rec := do(e, http.MethodGet, "/participants", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused", "store details stay in the logs")

	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodPost, "/status", "ana", "").Code)
}
