package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/signedchess/internal/api"
	"github.com/mcoot/signedchess/internal/factory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cmd := newCmd(cfg)
	cmd.SetContext(ctx)
	cobra.CheckErr(cmd.Execute())
}

func run(ctx context.Context, cfg *Config) error {
	logger := cfg.logger()
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(cfg.factoryConfig(logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Engine:      app.Engine,
		Broadcaster: app.Broadcaster,
	})

	server := api.NewServer(router, cfg.serverConfig(), logger)
	// Realtime connections outlive Shutdown unless their rooms are closed
	server.OnShutdown(app.HubManager.Close)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.storage),
		slog.Bool("external_history", cfg.historyBin != ""),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
