package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/predictdash/internal/config"
	"github.com/alanyoungcy/predictdash/internal/notify"
	"github.com/alanyoungcy/predictdash/internal/server"
	"github.com/alanyoungcy/predictdash/internal/server/handler"
	"github.com/alanyoungcy/predictdash/internal/server/ws"
	"github.com/alanyoungcy/predictdash/internal/service"
	"github.com/alanyoungcy/predictdash/internal/tui"
)

// TUIMode runs the terminal dashboard. Quitting the UI stops everything.
func (a *App) TUIMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting tui mode")
	return a.runWithUI(ctx, deps, false)
}

// ServerMode runs the HTTP API until the context is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	g, ctx := errgroup.WithContext(ctx)
	a.startBackground(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the terminal dashboard and the HTTP API over the same board
// and wallet session.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")
	return a.runWithUI(ctx, deps, true)
}

func (a *App) runWithUI(ctx context.Context, deps *Dependencies, withServer bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	a.startBackground(ctx, g, deps)
	if withServer {
		a.startHTTPServer(ctx, g, deps)
	}

	model := tui.New(deps.Board, tui.SessionWallet{Session: deps.Session, Connector: deps.Connector}, deps.Toasts, tuiOptions(a.cfg))
	g.Go(func() error {
		defer cancel()
		_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// startBackground adds the board poller, wallet auto-connect, the wallet
// relay and the archive loop to g.
func (a *App) startBackground(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	events, unsubscribe := deps.Session.Subscribe()
	g.Go(func() error {
		defer unsubscribe()
		return deps.Board.Run(ctx, a.cfg.Dashboard.PollInterval.Duration, events)
	})

	if a.cfg.Wallet.AutoConnect && deps.Connector != nil {
		g.Go(func() error {
			acct, err := deps.Connector(ctx)
			if err != nil {
				a.logger.ErrorContext(ctx, "wallet auto-connect failed", slog.String("error", err.Error()))
				return nil
			}
			if err := deps.Session.Connect(acct); err != nil {
				a.logger.ErrorContext(ctx, "wallet auto-connect failed", slog.String("error", err.Error()))
				return nil
			}
			a.logger.InfoContext(ctx, "wallet connected", slog.String("address", acct.Address.Hex()))
			return nil
		})
	}

	if deps.SignalBus != nil {
		relayEvents, stop := deps.Session.Subscribe()
		g.Go(func() error {
			defer stop()
			service.RelayWalletEvents(ctx, relayEvents, deps.SignalBus, a.logger)
			return nil
		})
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiver(ctx, deps)
		})
	}
}

// runArchiver exports purchases older than the retention window on every
// archive interval. Failures are logged and notified, never fatal.
func (a *App) runArchiver(ctx context.Context, deps *Dependencies) error {
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour
	ticker := time.NewTicker(a.cfg.Archive.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			before := time.Now().UTC().Add(-retention)
			n, err := deps.Archiver.ArchivePurchases(ctx, before)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
				if nerr := deps.Notifier.Notify(ctx, notify.EventArchiveFailed, "Archive failed", err.Error()); nerr != nil {
					a.logger.WarnContext(ctx, "archive failure notification failed", slog.String("error", nerr.Error()))
				}
				continue
			}
			a.logger.InfoContext(ctx, "archive run complete",
				slog.Int64("purchases", n),
				slog.Time("before", before),
			)
		}
	}
}

// startHTTPServer adds the API server, its shutdown watcher and, when a
// signal bus is wired, the WebSocket hub to g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, ws.Config{
			Mode:           a.cfg.Mode,
			StartedAt:      a.startedAt,
			AllowedOrigins: a.cfg.Server.CORSOrigins,
		}, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	h := server.Handlers{
		Health:  handler.NewHealthHandler(deps.Checks, nil),
		Status:  handler.NewStatusHandler(a.cfg.Mode, a.startedAt, deps.Board, deps.Session, nil),
		Markets: handler.NewMarketHandler(deps.Board, nil),
		Wizard: handler.NewWizardHandler(deps.Board, deps.Session, deps.Locks, handler.WizardConfig{
			TxTimeout: a.cfg.Chain.TxTimeout.Duration,
			LockTTL:   a.cfg.Redis.LockTTL.Duration,
		}, nil, a.logger),
		Wallet: handler.NewWalletHandler(deps.Session, deps.Connector),
	}
	if deps.PurchaseStore != nil {
		h.Purchases = handler.NewPurchaseHandler(deps.Purchases)
	}
	if deps.AuditStore != nil {
		h.Audit = handler.NewAuditHandler(deps.AuditStore)
	}

	srv := server.NewServer(server.Config{
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		APIKey:       a.cfg.Server.APIKey,
		RateLimit:    a.cfg.Server.RateLimit,
		WriteTimeout: a.cfg.Chain.TxTimeout.Duration + 30*time.Second,
	}, h, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

func tuiOptions(cfg *config.Config) tui.Options {
	return tui.Options{
		Redraw:      cfg.Dashboard.CountdownInterval.Duration,
		CallTimeout: cfg.Chain.CallTimeout.Duration,
		TxTimeout:   cfg.Chain.TxTimeout.Duration,
	}
}
