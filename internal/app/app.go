// Package app wires the store, core services, sweeper and transport
// together.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arenachat/arena-server/internal/config"
	"github.com/arenachat/arena-server/internal/core"
	"github.com/arenachat/arena-server/internal/images"
	"github.com/arenachat/arena-server/internal/store"
	"github.com/arenachat/arena-server/internal/store/redisstore"
	"github.com/arenachat/arena-server/internal/sweep"
	transporthttp "github.com/arenachat/arena-server/internal/transport/http"
)

// App owns the assembled application.
type App struct {
	server          *stdhttp.Server
	sweeper         *sweep.Sweeper
	store           store.Store
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("redis connected")

	st := redisstore.New(client, cfg.RoomLifetime)

	imageSvc, err := images.NewService(cfg.UploadDir, st, logger)
	if err != nil {
		return nil, fmt.Errorf("init images: %w", err)
	}

	registry := core.NewRegistry()
	engine := core.NewEngine(registry, st, logger)
	lifecycle := core.NewLifecycle(st, imageSvc, logger)
	sweeper := sweep.New(cfg.SweepInterval, st, registry, lifecycle, logger)

	server := transporthttp.NewServer(transporthttp.Deps{
		Store:     st,
		Registry:  registry,
		Engine:    engine,
		Lifecycle: lifecycle,
		Images:    imageSvc,
	}, cfg, logger)

	return &App{
		server:          server,
		sweeper:         sweeper,
		store:           st,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and the expiry sweeper and blocks until
// context cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.sweeper.Run(ctx)
	})

	g.Go(func() error {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.cleanup()
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// cleanup closes the store connection.
func (a *App) cleanup() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
}
