package server

import (
	"context"
	"log/slog"
)

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "event", "server_shutdown")
	return s.E.Shutdown(ctx)
}
