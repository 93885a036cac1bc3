package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLogger_InjectsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	e := echo.New()
	e.Use(echomw.RequestID(), Logger)
	e.POST("/status", func(c echo.Context) error {
		FromContext(c.Request().Context()).Info("heartbeat", "name", UserFrom(c))
		return echo.NewHTTPError(http.StatusNotFound, "not in the room")
	})

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	req.Header.Set(HeaderUser, "ana")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "request_id=")
	assert.Contains(t, out, "user=ana")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "path=/status")
}

func TestFromContext_Default(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
