// Package process implements the process command, which runs the AI
// enrichment pass over stored jobs.
package process

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/jobscout/cmd/common"
)

// Command returns the process command.
func Command() *cobra.Command {
	var (
		limit int
		jobID int64
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Clean and tag stored jobs with the AI model",
		Long: `Sends unprocessed job descriptions to the configured model, then stores
the cleaned markdown, tags, and extracted entities back on each job.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if jobID > 0 {
				stats, err := app.Pipeline.ProcessJob(ctx, jobID)
				if err != nil {
					return err
				}
				fmt.Printf("AI pass finished: %s\n", stats)
				return nil
			}

			stats, err := app.Pipeline.RunAI(ctx, limit, nil)
			if err != nil {
				return err
			}

			fmt.Printf("AI pass finished: %s\n", stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0,
		"maximum jobs to process (default: the configured limit)")
	cmd.Flags().Int64Var(&jobID, "job", 0,
		"process a single job by id, even if it was processed before")

	return cmd
}
