// Package status implements the status command, which summarizes the
// staged record pipeline and the latest run.
package status

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/crawlkit/crawljob/cmd/common"
	"github.com/crawlkit/crawljob/internal/domain"
)

// Command returns the status command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show record counts per status and the latest run",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := common.Setup()
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := deps.Report.Summarize(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Record Status", "Count"})
			for _, recordStatus := range domain.RecordStatuses() {
				t.AppendRow(table.Row{recordStatus.Label(), summary.RecordCounts[recordStatus]})
			}
			t.Render()

			out := cmd.OutOrStdout()
			if summary.LatestRun == nil {
				fmt.Fprintln(out, "no runs recorded yet")
				return nil
			}

			run := summary.LatestRun
			fmt.Fprintf(out, "latest run: %s %s started %s\n",
				run.JobName, run.Status.Label(), run.StartedAt.Format(time.RFC3339))
			if seconds := run.ExecutionSeconds(); seconds != nil {
				fmt.Fprintf(out, "completed in %ds\n", *seconds)
			}

			return nil
		},
	}
}
