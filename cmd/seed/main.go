package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/recallbe/recall/internal/config"
	"github.com/recallbe/recall/internal/database"
	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/messages"
	"github.com/recallbe/recall/internal/logger"
	"github.com/recallbe/recall/internal/storage/sqlstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog := logger.New("development", "")
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env, cfg.LogLevel)

	if cfg.DataBackend != "postgres" && cfg.DataBackend != "sqlite" {
		logr.Error("seed command requires DATA_BACKEND=postgres or DATA_BACKEND=sqlite")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, database.Options{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		Logger:          logr,
	})
	if err != nil {
		logr.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logr.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	history := callhistory.NewService(sqlstore.NewCallHistoryRepository(db.DB, db.Dialect))
	msgs := messages.NewService(sqlstore.NewMessageRepository(db.DB, db.Dialect))

	calls, msgCount, err := seed(ctx, history, msgs)
	if err != nil {
		logr.Error("seed failed", "err", err)
		os.Exit(1)
	}

	logr.Info("seed data inserted", "calls", calls, "messages", msgCount)
}
