// Package main provides the entry point for the segtree CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/segtree/cmd/segtree/commands"
	"github.com/Sumatoshi-tech/segtree/pkg/version"
)

// exitCodeValidationFailure is the exit code for invalid workload files.
const exitCodeValidationFailure = 2

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "segtree",
		Short: "segtree - interval-coverage engine",
		Long: `segtree maintains overlap counts of half-open segments over a fixed
coordinate set and answers union, coverage and point queries.

Commands:
  run       Replay a workload file and report coverage
  validate  Check a workload file against the workload schema
  serve     Serve the engine over HTTP/JSON
  mcp       Serve the engine as MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if errors.Is(err, commands.ErrValidationFailed) {
			os.Exit(exitCodeValidationFailure)
		}

		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "segtree %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
