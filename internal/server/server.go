// Package server assembles the Echo instance: middleware, error handling and
// routes for the chat API, the lobby page and the system endpoints.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/batepapo/internal/handlers"
	appmiddleware "github.com/nfrund/batepapo/internal/middleware"
	"github.com/nfrund/batepapo/internal/rendering"
)

// Deps holds what the server needs to serve requests.
type Deps struct {
	Chat   *handlers.ChatHandler
	System *handlers.SystemHandler
	Lobby  *handlers.LobbyHandler

	AllowOrigins       []string
	RateLimitPerMinute int
}

// Server holds the Echo instance.
type Server struct {
	E *echo.Echo
}

// New creates a Server with middleware and routes registered.
func New(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewRenderer()

	// RequestID must run before Logger so the request logger carries the id.
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: deps.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, appmiddleware.HeaderUser},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))
	setupErrorHandling(e)

	s := &Server{E: e}
	s.registerRoutes(deps)
	return s
}

// setupErrorHandling logs errors that reach Echo without being mapped to an
// HTTP status, with a stack trace, then lets Echo answer 500.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				slog.String("error", err.Error()),
				slog.String("stack_trace", string(debug.Stack())),
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
