package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/batepapo/internal/activity"
	"github.com/nfrund/batepapo/internal/middleware"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource provides activity counters.
type StatsSource interface {
	Snapshot() activity.Stats
}

// SystemHandler serves health and stats.
type SystemHandler struct {
	store Pinger
	stats StatsSource
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(store Pinger, stats StatsSource) *SystemHandler {
	return &SystemHandler{store: store, stats: stats}
}

// Health handles GET /health.
func (h *SystemHandler) Health(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		middleware.FromContext(c.Request().Context()).Warn("Health check failed",
			"event", "health_check_failure", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Stats handles GET /stats.
func (h *SystemHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.stats.Snapshot())
}
