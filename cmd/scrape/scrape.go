// Package scrape implements the scrape command, one full pass across the
// configured job boards.
package scrape

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/jobscout/cmd/common"
	"github.com/jonesrussell/jobscout/internal/models"
)

// Command returns the scrape command.
func Command() *cobra.Command {
	var (
		sources   []string
		configIDs []int64
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the configured job boards once",
		Long: `Runs every enabled saved search against the requested job boards,
deduplicates the results into the store, and backfills full descriptions
for the records it touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.Pipeline.RunScrape(ctx, sources, configIDs, nil)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("Nothing to scrape: no enabled search configs.")
				return nil
			}

			renderResults(results)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "sources", nil,
		"job boards to scrape (default: the configured list)")
	cmd.Flags().Int64SliceVar(&configIDs, "configs", nil,
		"search config ids to run (default: all enabled)")

	return cmd
}

func renderResults(results []models.SourceResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Search", "Found", "Added", "Error"})

	for _, r := range results {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Source, r.Config, r.Found, r.Added, errMsg})
	}

	t.Render()
}
