package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallbe/recall/internal/database"
	"github.com/recallbe/recall/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" || cfg.DatabaseDriver == "" {
		return errors.New("migrate requires DATABASE_URL with DATA_BACKEND=postgres, sqlite or supabase")
	}
	logr := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cmd.Context(), database.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseURL,
		Logger: logr,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
