// Package scheduler implements the scheduler command, which runs the
// pipeline stages on their configured intervals until interrupted.
package scheduler

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/jobscout/cmd/common"
)

// Command returns the scheduler command.
func Command() *cobra.Command {
	var enable bool

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the pipeline stages on a schedule",
		Long: `Starts the background scheduler and blocks until interrupted. Each stage
runs on its own interval; adjust the cadence with "scheduler config".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			cfg := app.Pipeline.SchedulerConfig()
			if enable && !cfg.Enabled {
				cfg.Enabled = true
				if err := app.Pipeline.UpdateSchedulerConfig(ctx, cfg); err != nil {
					return err
				}
			}
			if !cfg.Enabled {
				fmt.Println(`Scheduler is disabled. Start with --enable, or persist it with
"jobscout scheduler config --enabled=true".`)
				return nil
			}

			app.Pipeline.StartScheduler(ctx)
			app.Deps.Logger.Info("Scheduler running; press Ctrl-C to stop")
			<-ctx.Done()
			app.Pipeline.StopScheduler()
			return nil
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false,
		"enable scheduled runs before starting (persisted)")

	cmd.AddCommand(configCommand())
	cmd.AddCommand(resetRateCommand())

	return cmd
}

func configCommand() *cobra.Command {
	var (
		enabled             bool
		scrapeInterval      int
		descriptionInterval int
		aiInterval          int
		scrapeEnabled       bool
		descriptionEnabled  bool
		aiEnabled           bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the schedule",
		Long: `Without flags, prints the current schedule. Any flag that is set is
persisted and picked up on the next scheduler start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			cfg := app.Pipeline.SchedulerConfig()

			changed := false
			flags := cmd.Flags()
			if flags.Changed("enabled") {
				cfg.Enabled = enabled
				changed = true
			}
			if flags.Changed("scrape-interval") {
				cfg.ScrapeIntervalMinutes = scrapeInterval
				changed = true
			}
			if flags.Changed("description-interval") {
				cfg.DescriptionIntervalMinutes = descriptionInterval
				changed = true
			}
			if flags.Changed("ai-interval") {
				cfg.AIIntervalMinutes = aiInterval
				changed = true
			}
			if flags.Changed("scrape-enabled") {
				cfg.ScrapeEnabled = scrapeEnabled
				changed = true
			}
			if flags.Changed("description-enabled") {
				cfg.DescriptionEnabled = descriptionEnabled
				changed = true
			}
			if flags.Changed("ai-enabled") {
				cfg.AIEnabled = aiEnabled
				changed = true
			}

			if changed {
				if err := app.Pipeline.UpdateSchedulerConfig(ctx, cfg); err != nil {
					return err
				}
			}

			fmt.Printf("Scheduler enabled: %t\n", cfg.Enabled)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Stage", "Interval", "Enabled"})
			t.AppendRow(table.Row{"scrape", fmt.Sprintf("%dm", cfg.ScrapeIntervalMinutes), cfg.ScrapeEnabled})
			t.AppendRow(table.Row{"descriptions", fmt.Sprintf("%dm", cfg.DescriptionIntervalMinutes), cfg.DescriptionEnabled})
			t.AppendRow(table.Row{"ai", fmt.Sprintf("%dm", cfg.AIIntervalMinutes), cfg.AIEnabled})
			t.Render()

			return nil
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", false, "run stages automatically")
	cmd.Flags().IntVar(&scrapeInterval, "scrape-interval", 0, "minutes between scrape passes")
	cmd.Flags().IntVar(&descriptionInterval, "description-interval", 0, "minutes between description passes")
	cmd.Flags().IntVar(&aiInterval, "ai-interval", 0, "minutes between AI passes")
	cmd.Flags().BoolVar(&scrapeEnabled, "scrape-enabled", true, "include the scrape stage")
	cmd.Flags().BoolVar(&descriptionEnabled, "description-enabled", true, "include the description stage")
	cmd.Flags().BoolVar(&aiEnabled, "ai-enabled", true, "include the AI stage")

	return cmd
}

func resetRateCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "reset-rate",
		Short: "Clear the scrape-rate accounting log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			n, err := app.Pipeline.ResetRateAccounting(ctx, source)
			if err != nil {
				return err
			}

			fmt.Printf("Cleared %d scrape log entries.\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "",
		"only clear entries for this job board")

	return cmd
}
