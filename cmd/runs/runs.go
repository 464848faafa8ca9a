// Package runs implements the runs command, which displays recent ledger
// entries in a formatted table.
package runs

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/crawlkit/crawljob/cmd/common"
	"github.com/crawlkit/crawljob/internal/domain"
)

const defaultWindow = 7 * 24 * time.Hour

// Command returns the runs command.
func Command() *cobra.Command {
	var (
		since   time.Duration
		jobName string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent crawl runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := common.Setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			now := time.Now().UTC()

			list, err := deps.Report.RunsInRange(ctx, now.Add(-since), now)
			if err != nil {
				return err
			}
			if jobName != "" {
				list = filterByName(list, jobName)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Job", "Status", "Started", "Seconds", "Total", "Success", "Fail", "Rate", "Error"})

			for _, run := range list {
				t.AppendRow(table.Row{
					run.JobName,
					run.Status.Label(),
					run.StartedAt.Format(time.RFC3339),
					formatSeconds(run),
					formatCount(run.TotalCount),
					formatCount(run.SuccessCount),
					formatCount(run.FailCount),
					formatRate(run),
					formatMessage(run.ErrorMessage),
				})
			}
			t.Render()

			rate, err := deps.Report.AverageSuccessRate(ctx)
			if err != nil {
				return err
			}
			if rate != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "average success rate: %.1f%%\n", *rate*100)
			}

			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", defaultWindow, "how far back to list runs")
	cmd.Flags().StringVar(&jobName, "job", "", "filter by job name")

	return cmd
}

func filterByName(runs []*domain.JobRun, jobName string) []*domain.JobRun {
	filtered := runs[:0]
	for _, run := range runs {
		if run.JobName == jobName {
			filtered = append(filtered, run)
		}
	}
	return filtered
}

func formatSeconds(run *domain.JobRun) string {
	if seconds := run.ExecutionSeconds(); seconds != nil {
		return fmt.Sprintf("%d", *seconds)
	}
	return "-"
}

func formatRate(run *domain.JobRun) string {
	if rate := run.SuccessRate(); rate != nil {
		return fmt.Sprintf("%.0f%%", *rate*100)
	}
	return "-"
}

func formatCount(count *int) string {
	if count == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *count)
}

func formatMessage(msg *string) string {
	if msg == nil {
		return ""
	}
	return *msg
}
