package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	s3blob "github.com/alanyoungcy/predictdash/internal/blob/s3"
	"github.com/alanyoungcy/predictdash/internal/cache/redis"
	"github.com/alanyoungcy/predictdash/internal/chain"
	"github.com/alanyoungcy/predictdash/internal/config"
	"github.com/alanyoungcy/predictdash/internal/crypto"
	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/notify"
	"github.com/alanyoungcy/predictdash/internal/server/handler"
	"github.com/alanyoungcy/predictdash/internal/service"
	"github.com/alanyoungcy/predictdash/internal/store/postgres"
	"github.com/alanyoungcy/predictdash/internal/tui"
	"github.com/alanyoungcy/predictdash/internal/wallet"
	"github.com/alanyoungcy/predictdash/internal/wizard"
)

// Dependencies bundles everything the modes run. Infrastructure fields are
// nil when the matching config section is disabled.
type Dependencies struct {
	Chain     *chain.Client
	Session   *wallet.Session
	Connector wallet.Connector
	Board     *dashboard.Board
	Markets   *service.MarketService
	Purchases *service.PurchaseService

	// Caches
	RateLimiter domain.RateLimiter
	Locks       domain.PurchaseLocker
	SignalBus   domain.SignalBus

	// Stores
	PurchaseStore domain.PurchaseStore
	AuditStore    domain.AuditStore

	Archiver *s3blob.Archiver
	Notifier *notify.Notifier

	// Toasts feeds the terminal UI; nil in server mode.
	Toasts tui.ToastChannel
	// Checks are the health checks of the enabled backends.
	Checks map[string]handler.Check
}

func keyConfig(w config.WalletConfig) crypto.KeyConfig {
	return crypto.KeyConfig{
		RawPrivateKey:    w.PrivateKey,
		EncryptedKeyPath: w.EncryptedKeyPath,
		KeyPassword:      w.KeyPassword,
	}
}

// Wire constructs every dependency from cfg and returns them with a cleanup
// function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(what string, err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %s: %w", what, err)
	}

	deps := &Dependencies{Checks: map[string]handler.Check{}}

	// --- Chain ---
	chainClient, err := chain.Dial(ctx, cfg.Chain.ResolvedRPCURL(), chain.Config{
		ChainID:             cfg.Chain.ChainID,
		MarketAddress:       common.HexToAddress(cfg.Chain.MarketAddress),
		TokenAddress:        common.HexToAddress(cfg.Chain.TokenAddress),
		CallTimeout:         cfg.Chain.CallTimeout.Duration,
		ReceiptPollInterval: cfg.Chain.ReceiptPollInterval.Duration,
		GasBufferPercent:    uint64(cfg.Chain.GasBufferPercent),
	}, logger)
	if err != nil {
		return fail("chain", err)
	}
	closers = append(closers, chainClient.Close)
	deps.Chain = chainClient
	deps.Checks["chain"] = func(ctx context.Context) error {
		_, err := chainClient.MarketCount(ctx)
		return err
	}

	// --- Redis ---
	var marketCache domain.MarketCache
	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail("redis", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		marketCache = redis.NewMarketCache(rc, cfg.Redis.MarketTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(rc)
		deps.Locks = redis.NewPurchaseLocks(rc)
		deps.SignalBus = redis.NewSignalBus(rc)
		deps.Checks["redis"] = rc.Ping
	}

	// --- PostgreSQL ---
	if cfg.Supabase.Enabled {
		pg, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Supabase.DSN,
			Host:     cfg.Supabase.Host,
			Port:     cfg.Supabase.Port,
			Database: cfg.Supabase.Database,
			User:     cfg.Supabase.User,
			Password: cfg.Supabase.Password,
			SSLMode:  cfg.Supabase.SSLMode,
			MaxConns: cfg.Supabase.PoolMaxConns,
			MinConns: cfg.Supabase.PoolMinConns,
		})
		if err != nil {
			return fail("postgres", err)
		}
		closers = append(closers, pg.Close)
		if cfg.Supabase.RunMigrations {
			if err := pg.RunMigrations(ctx); err != nil {
				return fail("postgres migrations", err)
			}
		}
		deps.PurchaseStore = postgres.NewPurchaseStore(pg.Pool())
		deps.AuditStore = postgres.NewAuditStore(pg.Pool())
		deps.Checks["postgres"] = pg.Ping
	}

	// --- S3 archive ---
	if cfg.S3.Enabled {
		s3c, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail("s3", err)
		}
		deps.Checks["s3"] = s3c.Health
		if cfg.Archive.Enabled && deps.PurchaseStore != nil {
			deps.Archiver = s3blob.NewArchiver(
				s3blob.NewWriter(s3c),
				deps.PurchaseStore,
				deps.AuditStore,
				s3blob.ArchiverConfig{DeleteAfterUpload: cfg.Archive.DeleteAfterUpload},
				logger,
			)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			logger.WarnContext(ctx, "telegram notifications disabled", slog.String("error", err.Error()))
		} else {
			senders = append(senders, tg)
		}
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Wallet and services ---
	deps.Session = wallet.NewSession()
	if cfg.Wallet.HasKey() {
		deps.Connector = wallet.KeyConnector(keyConfig(cfg.Wallet), cfg.Chain.ChainID)
	}
	adapter := wallet.NewAdapter(deps.Session, chainClient, chainClient, chainClient.MarketAddress())

	deps.Markets = service.NewMarketService(chainClient, marketCache, logger)
	deps.Purchases = service.NewPurchaseService(service.PurchaseDeps{
		Store:    deps.PurchaseStore,
		Audit:    deps.AuditStore,
		Bus:      deps.SignalBus,
		Notifier: deps.Notifier,
		Markets:  deps.Markets,
	}, logger)

	var toasters service.Toasters
	if cfg.Mode != "server" {
		deps.Toasts = tui.NewToastChannel()
		toasters = append(toasters, deps.Toasts)
	}
	if deps.SignalBus != nil {
		toasters = append(toasters, service.NewBusToaster(deps.SignalBus, logger))
	}

	loc := time.Local
	if cfg.Dashboard.Timezone != "" {
		// Validate has already checked the name.
		loc, _ = time.LoadLocation(cfg.Dashboard.Timezone)
	}
	deps.Board = dashboard.NewBoard(deps.Markets, adapter, deps.Session, dashboard.Options{
		Wizard: wizard.Options{
			Toaster:  toasters,
			Recorder: deps.Purchases,
			Logger:   logger,
		},
		Location:    loc,
		Concurrency: cfg.Dashboard.Concurrency,
		Logger:      logger,
	})

	return deps, cleanup, nil
}
