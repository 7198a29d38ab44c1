// Package server is the HTTP and WebSocket API of the dashboard.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/server/handler"
	"github.com/alanyoungcy/predictdash/internal/server/middleware"
	"github.com/alanyoungcy/predictdash/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKey, when set, is required on everything except health and metrics.
	APIKey string
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int
	// WriteTimeout must cover a full transaction confirmation.
	WriteTimeout time.Duration
}

// Handlers aggregates the route handlers. Purchases and Audit are optional.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Markets   *handler.MarketHandler
	Wizard    *handler.WizardHandler
	Wallet    *handler.WalletHandler
	Purchases *handler.PurchaseHandler
	Audit     *handler.AuditHandler
}

// Server is the headless API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in CORS, logging,
// rate limiting and auth. hub and limiter may be nil.
func NewServer(cfg Config, h Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      newHandler(cfg, h, hub, limiter, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: max(cfg.WriteTimeout, 30*time.Second),
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

func newHandler(cfg Config, h Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", h.Status.GetStatus)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/markets", h.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/count", h.Markets.Count)
	mux.HandleFunc("GET /api/markets/{id}", h.Markets.GetMarket)

	mux.HandleFunc("GET /api/markets/{id}/wizard", h.Wizard.Get)
	mux.HandleFunc("POST /api/markets/{id}/wizard/select", h.Wizard.Select)
	mux.HandleFunc("POST /api/markets/{id}/wizard/amount", h.Wizard.Amount)
	mux.HandleFunc("POST /api/markets/{id}/wizard/submit", h.Wizard.Submit)
	mux.HandleFunc("POST /api/markets/{id}/wizard/approve", h.Wizard.Approve)
	mux.HandleFunc("POST /api/markets/{id}/wizard/confirm", h.Wizard.Confirm)
	mux.HandleFunc("POST /api/markets/{id}/wizard/cancel", h.Wizard.Cancel)

	mux.HandleFunc("GET /api/wallet", h.Wallet.Get)
	mux.HandleFunc("POST /api/wallet/connect", h.Wallet.Connect)
	mux.HandleFunc("POST /api/wallet/disconnect", h.Wallet.Disconnect)

	if h.Purchases != nil {
		mux.HandleFunc("GET /api/purchases", h.Purchases.ListPurchases)
	}
	if h.Audit != nil {
		mux.HandleFunc("GET /api/audit", h.Audit.ListAudit)
	}
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var out http.Handler = mux
	out = middleware.Auth(cfg.APIKey, "/api/health", "/metrics")(out)
	out = middleware.RateLimit(limiter, cfg.RateLimit, time.Minute, logger)(out)
	out = middleware.Logging(logger)(out)
	out = middleware.CORS(cfg.CORSOrigins)(out)
	return out
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
