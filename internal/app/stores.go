package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/batepapo/internal/config"
	"github.com/nfrund/batepapo/internal/database"
	"github.com/nfrund/batepapo/internal/database/badgerdb"
	"github.com/nfrund/batepapo/internal/database/memory"
	"github.com/nfrund/batepapo/internal/domain"
)

// Stores is the selected backing store pair.
type Stores struct {
	Participants domain.ParticipantRepository
	Messages     domain.MessageRepository
	Backend      string

	close func(ctx context.Context) error
}

// Shutdown releases the backing store. The injector calls it on shutdown.
func (s *Stores) Shutdown(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStores builds the repositories for the configured backend.
func OpenStores(ctx context.Context, cfg config.Provider, log *slog.Logger) (*Stores, error) {
	switch backend := cfg.GetStoreBackend(); backend {
	case config.BackendMemory:
		return &Stores{
			Participants: memory.NewParticipantStore(),
			Messages:     memory.NewMessageStore(),
			Backend:      backend,
		}, nil

	case config.BackendBadger:
		db, err := badgerdb.Open(cfg.GetBadgerPath(), log)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Participants: badgerdb.NewParticipantStore(db, log),
			Messages:     badgerdb.NewMessageStore(db),
			Backend:      backend,
			close:        func(context.Context) error { return db.Close() },
		}, nil

	case config.BackendSurreal:
		conn := database.NewConnection(cfg)
		if err := conn.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to surrealdb: %w", err)
		}
		conn.StartMonitoring()
		return &Stores{
			Participants: database.NewParticipantStore(conn),
			Messages:     database.NewMessageStore(conn),
			Backend:      backend,
			close:        conn.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
