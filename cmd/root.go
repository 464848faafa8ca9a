// Package cmd implements the command-line interface for the crawl job
// ledger. It provides the root command and subcommands for inspecting runs
// and maintaining staged records.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/crawlkit/crawljob/cmd/initdb"
	"github.com/crawlkit/crawljob/cmd/requeue"
	"github.com/crawlkit/crawljob/cmd/runs"
	"github.com/crawlkit/crawljob/cmd/status"
)

// rootCmd represents the root command for the crawljob CLI.
var rootCmd = &cobra.Command{
	Use:   "crawljob",
	Short: "Crawl job ledger and staged record maintenance",
	Long: `crawljob tracks executions of the recurring crawl batch job and
manages the lifecycle of staged records. Subcommands inspect the run
ledger and apply maintenance to stale records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(initdb.Command())
	rootCmd.AddCommand(runs.Command())
	rootCmd.AddCommand(status.Command())
	rootCmd.AddCommand(requeue.Command())
}
