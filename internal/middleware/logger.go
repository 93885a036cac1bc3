package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger injects a request-scoped logger into the request context and logs
// one line per completed request. The logger carries the request id from the
// RequestID middleware and the acting participant, so Logger must be placed
// after RequestID.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		requestLogger := slog.Default().With(
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		if user := req.Header.Get(HeaderUser); user != "" {
			requestLogger = requestLogger.With("user", user)
		}

		ctx := context.WithValue(req.Context(), loggerKey, requestLogger)
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			// let Echo write the response so the status below is final
			c.Error(err)
		}

		requestLogger.InfoContext(ctx, "Request handled",
			"event", "http_request",
			"method", req.Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

// FromContext returns the request-scoped logger, or the default logger
// outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
