// Command console runs the Onegat console gateway.
//
//	@title			Onegat Console Gateway
//	@version		1.0
//	@description	Session, demo-terms and role gate in front of the Onegat colony management API.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/onegat/console/internal/api"
	"github.com/onegat/console/internal/api/middleware"
	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
	"github.com/onegat/console/internal/core/service"
	"github.com/onegat/console/internal/infrastructure/backend"
	"github.com/onegat/console/internal/infrastructure/db/memory"
	mongostore "github.com/onegat/console/internal/infrastructure/db/mongo"
	redisstore "github.com/onegat/console/internal/infrastructure/db/redis"
	"github.com/onegat/console/internal/pkg/config"
	"github.com/onegat/console/pkg/logger"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

type scopeStore interface {
	ports.ScopeStorage
	ports.HealthChecker
}

func run() error {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "onegat-console",
	})
	if envErr != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	backendCfg := backend.Config{BaseURL: cfg.Backend.URL, Timeout: cfg.Backend.Timeout}
	validator := service.NewTokenValidator(nil)
	registry := service.NewRegistry(
		storage,
		backend.NewFactory(backendCfg),
		validator,
		cfg.Session.ShellIdleTTL,
		logger.Component("registry"),
	)

	e := api.NewRouter(api.Deps{
		Shells: registry,
		Gate:   service.NewGate(cfg.Routes.LoginPath, cfg.Routes.ForbiddenPath),
		Routes: domain.DefaultRoutes(),
		Scope: middleware.ScopeConfig{
			CookieName: cfg.Session.Cookie,
			Secure:     cfg.Session.CookieSecure,
		},
		LoginRateLimit: cfg.Session.LoginRateLimit,
		Checkers:       []ports.HealthChecker{storage, backend.New(backendCfg, nil)},
		Log:            logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("session_backend", cfg.Session.Store).
			Str("backend_url", cfg.Backend.URL).
			Msg("console gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStorage connects the scope storage selected by SESSION_BACKEND.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (scopeStore, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Session.Store {
	case config.BackendRedis:
		client, err := redisstore.Connect(connectCtx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		return redisstore.NewScopeStore(client, cfg.Session.TTL), func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("closing redis")
			}
		}, nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(connectCtx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		store := mongostore.NewScopeStore(db, cfg.Session.TTL)
		if err := store.EnsureIndexes(connectCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("closing mongo")
			}
		}, nil

	default:
		log.Warn().Msg("session storage is in memory; sessions are lost on restart")
		return memory.NewScopeStore(cfg.Session.TTL), func() {}, nil
	}
}
