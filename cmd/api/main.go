package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/joho/godotenv"

	"github.com/recallbe/recall/internal/app"
	"github.com/recallbe/recall/internal/config"
	"github.com/recallbe/recall/internal/httpapi"
	"github.com/recallbe/recall/internal/logger"
	"github.com/recallbe/recall/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env, cfg.LogLevel)

	baseCtx := context.Background()

	application, err := app.Build(baseCtx, cfg, logr)
	if err != nil {
		logr.Error("failed to init application", "err", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			logr.Error("error releasing resources", "err", cerr)
		}
	}()

	srv := server.New(cfg, logr)

	httpapi.Register(srv.Mux(), logr, application.Services, application.Voice())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logr.Error("server error", "err", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", "err", err)
	}
	logr.Info("live sessions dropped at shutdown", "sessions", application.Sessions.Len())
}
