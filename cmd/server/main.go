package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/territorybattle/internal/api"
	"github.com/mcoot/territorybattle/internal/config"
	"github.com/mcoot/territorybattle/internal/factory"
	"github.com/mcoot/territorybattle/internal/scheduler"
)

func main() {
	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	config.LoadDotEnv(logger)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := factory.New(ctx, factory.FromConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	if err := app.Stats.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialise schema: %w", err)
	}

	sched := scheduler.New(logger)
	if err := app.RegisterJobs(ctx, cfg, sched, logger); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	router := api.NewRouter(api.RouterConfig{
		Logger:    logger,
		Stats:     app.Stats,
		Version:   cfg.Version,
		RateLimit: cfg.RateLimit,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Bool("cache", cfg.RedisURL != ""),
		slog.Bool("events", cfg.NATSURL != ""),
		slog.Bool("snapshots", cfg.S3.Enabled()),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	logger.Info("server stopped")
	return nil
}
