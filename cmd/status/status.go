// Package status implements the status command, a snapshot of the store,
// the scheduler stages, and recent scrape activity.
package status

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/jobscout/cmd/common"
	"github.com/jonesrussell/jobscout/internal/models"
)

const recentScrapeRows = 10

// Command returns the status command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store totals, stage states, and recent scrapes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.Store.Stats(ctx)
			if err != nil {
				return err
			}
			renderStoreStats(stats)

			renderStages(app)
			renderKeys(app)

			if err := renderScrapes(ctx, app); err != nil {
				return err
			}

			runs, err := app.Pipeline.ScrapeActivity(ctx, "")
			if err != nil {
				return err
			}
			fmt.Printf("\n%d scrape runs in the last hour.\n", runs)

			return nil
		},
	}
}

func renderStoreStats(stats *models.StoreStats) {
	fmt.Println("Store")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Jobs", "Sources", "Companies", "Applied", "Remote", "Contract", "Permanent"})
	t.AppendRow(table.Row{
		stats.Total, stats.Sources, stats.Companies, stats.Applied,
		stats.Remote, stats.Contract, stats.Permanent,
	})
	t.Render()
}

func renderStages(app *common.App) {
	fmt.Println("\nStages")
	states := app.Pipeline.TaskStates()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "Status", "Progress", "Message", "Error"})

	for _, stage := range models.Stages {
		st := states[stage]
		t.AppendRow(table.Row{
			string(stage), string(st.Status),
			fmt.Sprintf("%d/%d", st.Progress, st.Total),
			st.Message, st.Error,
		})
	}

	t.Render()
}

func renderKeys(app *common.App) {
	keys := app.Pipeline.RateStatus()
	if len(keys) == 0 {
		fmt.Println("\nAI stage disabled: no credentials configured.")
		return
	}

	fmt.Println("\nAI keys")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Key", "Used", "Limit", "Available"})

	for _, k := range keys {
		t.AppendRow(table.Row{k.Name, k.Used, k.Limit, k.Available})
	}

	t.Render()
}

func renderScrapes(ctx context.Context, app *common.App) error {
	entries, err := app.Store.RecentScrapes(ctx, recentScrapeRows)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("\nNo scrape runs recorded yet.")
		return nil
	}

	fmt.Println("\nRecent scrapes")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Started", "Source", "Found", "Added", "OK", "Error"})

	for _, e := range entries {
		errMsg := ""
		if e.ErrorMessage != nil {
			errMsg = *e.ErrorMessage
		}
		t.AppendRow(table.Row{
			e.StartedAt.Format("2006-01-02 15:04"),
			e.Source, e.JobsFound, e.JobsAdded, e.Success, errMsg,
		})
	}

	t.Render()
	return nil
}
