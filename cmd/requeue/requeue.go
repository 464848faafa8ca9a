// Package requeue implements the requeue command, the maintenance pass
// that re-queues staged records stuck in PENDING past a threshold.
package requeue

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crawlkit/crawljob/cmd/common"
	"github.com/crawlkit/crawljob/internal/domain"
)

// Command returns the requeue command.
func Command() *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "requeue",
		Short: "Requeue staged records stuck in PENDING",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := common.Setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if olderThan <= 0 {
				olderThan = deps.Config.Ledger.StaleThreshold
			}
			threshold := time.Now().UTC().Add(-olderThan)
			out := cmd.OutOrStdout()

			if dryRun {
				stale, staleErr := deps.Staging.FindStale(ctx, domain.RecordStatusPending, threshold)
				if staleErr != nil {
					return staleErr
				}
				for _, record := range stale {
					fmt.Fprintf(out, "%s  %s  crawled %s\n",
						record.ID, record.SourceURL, record.CrawledAt.Format(time.RFC3339))
				}
				fmt.Fprintf(out, "%d stale record(s), none requeued (dry run)\n", len(stale))
				return nil
			}

			requeued, err := deps.Staging.RequeueStale(ctx, threshold)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "requeued %d stale record(s)\n", requeued)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "staleness threshold (defaults to ledger.stale_threshold)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list stale records without requeueing")

	return cmd
}
