package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newScrapeCmd creates and configures the 'scrape' subcommand. Without a
// --date flag it walks backward from the oldest date already recorded in
// the status ledger.
func newScrapeCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrapes one day of comments into the database",
		Long: `Harvests every comment posted on the target date, fetches the full
payloads with attachment text, resolves the referenced dockets and
documents, and writes everything to the database. The run is recorded
in the status ledger so repeated invocations keep walking backward
through history.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			if date != "" {
				err = appInstance.Pipeline.RunDate(cmd.Context(), date)
			} else {
				err = appInstance.Pipeline.Run(cmd.Context())
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("run scrape: %w", err)
			}

			appInstance.Logger.Info("scrape command finished", zap.String("date", date))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "scrape this date (YYYY-MM-DD) instead of the ledger's next date")

	return cmd
}
