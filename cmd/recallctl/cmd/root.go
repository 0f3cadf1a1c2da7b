// Package cmd provides the recallctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recallbe/recall/internal/app"
	"github.com/recallbe/recall/internal/config"
	"github.com/recallbe/recall/internal/logger"
)

// Version information, set by main before Execute.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "recallctl",
	Short: "Operator tools for the recall voice agents",
	Long: `recallctl runs operator tasks against the same configuration as the
API server: dispatching recall calls, inspecting calendar availability,
reading call history and applying database migrations.

Configuration is read from the environment, an optional .env file and the
YAML file named by RECALL_CONFIG.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
	rootCmd.SetVersionTemplate("recallctl {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Root returns the root command for testing purposes.
func Root() *cobra.Command {
	return rootCmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildApp logs to stderr; stdout carries command output.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logr := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Env, cfg.LogLevel)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app.Build(ctx, cfg, logr)
}
