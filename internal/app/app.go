// Package app builds the object graph with a samber/do injector and runs the
// service.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nfrund/batepapo/internal/activity"
	"github.com/nfrund/batepapo/internal/chat"
	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/config"
	"github.com/nfrund/batepapo/internal/handlers"
	"github.com/nfrund/batepapo/internal/presence"
	"github.com/nfrund/batepapo/internal/pubsub"
	"github.com/nfrund/batepapo/internal/server"
	"github.com/samber/do/v2"
)

// Event bus buffer per subscription.
const busBufferSize = 256

// App is a wired instance of the service.
type App struct {
	injector *do.RootScope
	cfg      config.Provider
}

// New registers every provider. Nothing is built until Run or an accessor
// asks for it.
func New(cfg config.Provider, logger *slog.Logger, clk clock.Clock) *App {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, clk)

	do.Provide(injector, func(i do.Injector) (*Stores, error) {
		return OpenStores(context.Background(), cfg, do.MustInvoke[*slog.Logger](i).With("service", "store"))
	})
	do.Provide(injector, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		return pubsub.NewWatermillBridge(do.MustInvoke[*slog.Logger](i).With("service", "pubsub"), busBufferSize), nil
	})
	do.Provide(injector, func(i do.Injector) (*activity.Tracker, error) {
		return activity.NewTracker(do.MustInvoke[clock.Clock](i), do.MustInvoke[*slog.Logger](i).With("service", "activity")), nil
	})
	do.Provide(injector, func(i do.Injector) (*presence.Sweeper, error) {
		stores := do.MustInvoke[*Stores](i)
		return presence.NewSweeper(stores.Participants, stores.Messages, do.MustInvoke[*pubsub.WatermillBridge](i),
			presence.WithInterval(cfg.GetSweepInterval()),
			presence.WithIdleTimeout(cfg.GetIdleTimeout()),
			presence.WithClock(do.MustInvoke[clock.Clock](i)),
			presence.WithLogger(do.MustInvoke[*slog.Logger](i).With("service", "sweeper")),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*chat.Service, error) {
		stores := do.MustInvoke[*Stores](i)
		return chat.NewService(stores.Participants, stores.Messages, do.MustInvoke[*pubsub.WatermillBridge](i),
			do.MustInvoke[clock.Clock](i), do.MustInvoke[*slog.Logger](i).With("service", "chat")), nil
	})
	do.Provide(injector, func(i do.Injector) (*server.Server, error) {
		svc := do.MustInvoke[*chat.Service](i)
		clk := do.MustInvoke[clock.Clock](i)
		return server.New(server.Deps{
			Chat:               handlers.NewChatHandler(svc),
			System:             handlers.NewSystemHandler(svc, do.MustInvoke[*activity.Tracker](i)),
			Lobby:              handlers.NewLobbyHandler(svc, clk, lobbyPoll(cfg)),
			AllowOrigins:       cfg.GetCORSAllowOrigins(),
			RateLimitPerMinute: cfg.GetRateLimitPerMinute(),
		}), nil
	})

	return &App{injector: injector, cfg: cfg}
}

// Server returns the HTTP server, building the graph on first use.
func (a *App) Server() (*server.Server, error) {
	return do.Invoke[*server.Server](a.injector)
}

// Chat returns the chat service.
func (a *App) Chat() (*chat.Service, error) {
	return do.Invoke[*chat.Service](a.injector)
}

// Sweeper returns the liveness sweeper.
func (a *App) Sweeper() (*presence.Sweeper, error) {
	return do.Invoke[*presence.Sweeper](a.injector)
}

// Run starts the activity tracker, the sweeper and the HTTP server, and
// blocks until ctx is canceled. Everything is shut down before it returns.
func (a *App) Run(ctx context.Context) error {
	defer a.Shutdown()

	srv, err := a.Server()
	if err != nil {
		return err
	}

	tracker := do.MustInvoke[*activity.Tracker](a.injector)
	if err := tracker.Start(ctx, do.MustInvoke[*pubsub.WatermillBridge](a.injector)); err != nil {
		return err
	}

	sweeper := do.MustInvoke[*presence.Sweeper](a.injector)
	sweeper.Start()

	stores := do.MustInvoke[*Stores](a.injector)
	slog.Info("Service started", "event", "service_started",
		"backend", stores.Backend,
		"sweep_interval", sweeper.Interval().String(),
		"idle_timeout", sweeper.IdleTimeout().String())

	return srv.Run(ctx, a.cfg.GetAppAddr())
}

// Shutdown tears down every built service in reverse dependency order.
func (a *App) Shutdown() {
	a.injector.Shutdown()
}

// lobbyPoll refreshes the lobby a few times per idle timeout so departures
// show up promptly.
func lobbyPoll(cfg config.Provider) time.Duration {
	return max(time.Second, cfg.GetIdleTimeout()/2)
}
