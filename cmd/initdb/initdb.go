// Package initdb implements the initdb command, which creates the ledger
// and staged record tables.
package initdb

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crawlkit/crawljob/cmd/common"
	"github.com/crawlkit/crawljob/internal/database"
)

// Command returns the initdb command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the crawl run and staged record tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := common.Setup()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := database.EnsureSchema(cmd.Context(), deps.DB); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
