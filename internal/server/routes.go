package server

import (
	appmiddleware "github.com/nfrund/batepapo/internal/middleware"
	"github.com/nfrund/batepapo/internal/view"
)

func (s *Server) registerRoutes(deps Deps) {
	rateLimiter := appmiddleware.RateLimiter(deps.RateLimitPerMinute)

	s.E.POST("/participants", deps.Chat.Join, rateLimiter)
	s.E.GET("/participants", deps.Chat.ListParticipants)

	s.E.POST("/messages", deps.Chat.PostMessage)
	s.E.GET("/messages", deps.Chat.ListMessages)
	s.E.PUT("/messages/:id", deps.Chat.EditMessage)
	s.E.DELETE("/messages/:id", deps.Chat.DeleteMessage)

	s.E.POST("/status", deps.Chat.Heartbeat)

	s.E.GET("/", deps.Lobby.Page)
	s.E.GET(view.ParticipantsPath, deps.Lobby.Participants)

	s.E.GET("/health", deps.System.Health)
	s.E.GET("/stats", deps.System.Stats)
}
