package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arenachat/arena-server/internal/app"
	"github.com/arenachat/arena-server/internal/config"
	"github.com/arenachat/arena-server/internal/log"
)

func main() {
	var (
		configPath    string
		addr          string
		redisAddr     string
		logLevel      string
		roomLifetime  time.Duration
		sweepInterval time.Duration
	)
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&redisAddr, "redis-addr", "", "Redis address (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.DurationVar(&roomLifetime, "room-lifetime", 0, "room lifetime (overrides config)")
	flag.DurationVar(&sweepInterval, "sweep-interval", 0, "expiry sweep interval (overrides config)")
	flag.Parse()

	bootLogger := log.New("info")
	cfg, resolvedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Str("path", resolvedPath).Msg("failed to load config")
	}

	if addr != "" {
		cfg.Addr = addr
	}
	if redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if roomLifetime != 0 {
		cfg.RoomLifetime = roomLifetime
	}
	if sweepInterval != 0 {
		cfg.SweepInterval = sweepInterval
	}

	logger := log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting arena server")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
