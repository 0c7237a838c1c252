// Package main provides the CLI entry point for ReAgent-Go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phillip1029/ReAgent/cmd/reagent/commands"
	"github.com/phillip1029/ReAgent/pkg/reagent"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reagent",
	Short: "ReAgent - offline reinforcement learning workflows",
	Long: `ReAgent runs actor-critic training workflows over logged experience data.

It provides:
  - Feature identification with per-feature normalization statistics
  - Dataset materialization from SQLite and Parquet experience tables
  - A train/evaluate loop with observer-based progress reporting
  - Serving-module export for deployed decision policies`,
	Version: reagent.Version,
}

func init() {
	rootCmd.AddCommand(commands.WorkflowCmd)
}
