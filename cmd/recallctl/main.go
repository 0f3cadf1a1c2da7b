// Package main is the entry point for the recallctl operator CLI.
package main

import (
	"github.com/joho/godotenv"

	"github.com/recallbe/recall/cmd/recallctl/cmd"
)

// Version information, set by build flags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()
	cmd.Version, cmd.Commit, cmd.Date = version, commit, date
	cmd.Execute()
}
