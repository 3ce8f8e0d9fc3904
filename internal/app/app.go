package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/db"
	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	apphttp "github.com/yungbote/pawclinic-backend/internal/http"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

const (
	shutdownTimeout      = 15 * time.Second
	sessionSweepInterval = time.Hour
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Server   *apphttp.Server

	closeDB func() error
}

// New connects the database, migrates it and wires every layer. The caller owns Close.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	dbService, err := db.NewDBService(log, db.Config{
		Driver:           cfg.DB.Driver,
		PostgresHost:     cfg.DB.PostgresHost,
		PostgresPort:     cfg.DB.PostgresPort,
		PostgresUser:     cfg.DB.PostgresUser,
		PostgresPassword: cfg.DB.PostgresPassword,
		PostgresName:     cfg.DB.PostgresName,
		SQLitePath:       cfg.DB.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	a, err := build(ctx, log, cfg, dbService.DB())
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}
	a.closeDB = dbService.Close
	return a, nil
}

func build(ctx context.Context, log *logger.Logger, cfg Config, theDB *gorm.DB) (*App, error) {
	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(theDB, log, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	routerCfg, err := wireRouterConfig(log, cfg, clients, handlerset, middleware)
	if err != nil {
		clients.Close(ctx)
		return nil, err
	}

	return &App{
		Log:      log,
		DB:       theDB,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clients,
		Services: serviceset,
		Server:   apphttp.NewServer(routerCfg),
	}, nil
}

// Run serves HTTP and the metric collectors until ctx is cancelled, then drains the server
// and pending notifications.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.Port)

	collectCtx, stopCollectors := context.WithCancel(ctx)
	defer stopCollectors()
	a.Clients.Metrics.StartDBCollector(collectCtx, a.Log, a.DB, 15*time.Second)
	if a.Clients.Redis != nil {
		a.Clients.Metrics.StartRedisCollector(collectCtx, a.Log, a.Clients.Redis, 15*time.Second)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", addr)
		return a.Server.Run(addr)
	})
	g.Go(func() error {
		a.sweepSessions(gctx, sessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})
	err := g.Wait()

	a.Services.Notifier.Wait()
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Clients.Close(ctx)
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	a.Log.Sync()
}

// sweepSessions deletes expired login sessions every interval until ctx ends.
func (a *App) sweepSessions(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.Services.Auth.PruneExpiredSessions(ctx)
			if err != nil {
				a.Log.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				a.Log.Info("expired sessions removed", "count", n)
			}
		}
	}
}
