package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/payledger/internal/data/db"
	apphttp "github.com/yungbote/payledger/internal/http"
	"github.com/yungbote/payledger/internal/observability"
	"github.com/yungbote/payledger/internal/platform/envutil"
	"github.com/yungbote/payledger/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    *db.Service
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *apphttp.Server
	Metrics  *observability.Metrics

	shutdownTracing func(context.Context) error
}

func New() (*App, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	log, err := logger.New(envutil.String("LOG_MODE", "development", nil))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	shutdownTracing := observability.InitTracing(context.Background(), log, cfg.Tracing)
	metrics := observability.Init(log)

	store, err := openStore(log, cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		log.Sync()
		return nil, err
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		_ = shutdownTracing(context.Background())
		log.Sync()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close()
		_ = shutdownTracing(context.Background())
		log.Sync()
		return nil, fmt.Errorf("init clients: %w", err)
	}

	repos := wireRepos(store.DB(), log)
	svcs := wireServices(store.DB(), log, cfg, repos, clients, metrics)
	handlers := wireHandlers(svcs, store.Ping)
	server := wireServer(log, cfg, metrics, handlers)

	return &App{
		Log:             log,
		Cfg:             cfg,
		Store:           store,
		Clients:         clients,
		Repos:           repos,
		Services:        svcs,
		Server:          server,
		Metrics:         metrics,
		shutdownTracing: shutdownTracing,
	}, nil
}

func openStore(log *logger.Logger, cfg Config) (*db.Service, error) {
	switch cfg.DBDriver {
	case db.DriverSQLite:
		svc, err := db.NewSQLiteService(cfg.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return svc, nil
	default:
		svc, err := db.NewPostgresService(cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return svc, nil
	}
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// down and releases every resource.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
	a.Metrics.StartDBCollector(gctx, a.Log, a.Store.DB())
	a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Redis)
	if err := a.Metrics.ConsumeLedgerEvents(gctx, a.Log, a.Clients.Events); err != nil {
		a.Log.Warn("Ledger event consumer not started", "error", err)
	}

	addr := net.JoinHostPort("", a.Cfg.Port)
	g.Go(func() error {
		a.Log.Info("Server listening", "addr", addr, "db_driver", a.Store.Driver())
		if err := a.Server.Run(addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Cfg.ShutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		if err := a.shutdownTracing(ctx); err != nil {
			a.Log.Warn("Tracing shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	a.Log.Sync()
}
