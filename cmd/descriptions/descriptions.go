// Package descriptions implements the descriptions command, a standalone
// backfill pass for jobs whose stored description is a search-card snippet.
package descriptions

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/jobscout/cmd/common"
)

// Command returns the descriptions command.
func Command() *cobra.Command {
	var (
		limit  int
		source string
		jobID  int64
	)

	cmd := &cobra.Command{
		Use:   "descriptions",
		Short: "Fetch full descriptions for jobs that only have snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if jobID > 0 {
				if err := app.Pipeline.RefreshJobDescription(ctx, jobID); err != nil {
					return err
				}
				fmt.Printf("Description refreshed for job %d.\n", jobID)
				return nil
			}

			stats, err := app.Pipeline.RunDescriptions(ctx, limit, source, nil)
			if err != nil {
				return err
			}

			fmt.Printf("Descriptions refreshed: %s\n", stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0,
		"maximum jobs to refresh (default: the configured limit)")
	cmd.Flags().StringVar(&source, "source", "",
		"only refresh jobs from this job board")
	cmd.Flags().Int64Var(&jobID, "job", 0,
		"refresh a single job by id, even if it already has a full description")

	return cmd
}
