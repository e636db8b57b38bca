// Package configs implements the configs command group for managing the
// saved searches that each scrape pass runs.
package configs

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/jobscout/cmd/common"
	"github.com/jonesrussell/jobscout/internal/models"
)

// Command returns the configs command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Manage saved searches",
		Long: `Saved searches define what each scrape pass looks for: keywords, a
location with a radius, and optional employment types. Every enabled
search runs against every job board.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}

	cmd.AddCommand(addCommand())
	cmd.AddCommand(enableCommand())
	cmd.AddCommand(disableCommand())
	cmd.AddCommand(removeCommand())

	return cmd
}

func runList(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := common.NewApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	configs, err := app.Store.SearchConfigs(ctx, false)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		fmt.Println("No saved searches. Add one with \"jobscout configs add\".")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Keywords", "Location", "Radius", "Types", "Enabled"})

	for _, sc := range configs {
		t.AppendRow(table.Row{
			sc.ID, sc.Name, sc.Keywords, sc.Location, sc.Radius,
			strings.Join(sc.EmploymentTypeList(), ", "), sc.Enabled,
		})
	}

	t.Render()
	return nil
}

func addCommand() *cobra.Command {
	var (
		name     string
		keywords string
		location string
		radius   int
		types    []string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a saved search",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			sc := &models.SearchConfig{
				Name:            name,
				Keywords:        keywords,
				Location:        location,
				Radius:          radius,
				EmploymentTypes: strings.Join(types, ","),
				Enabled:         !disabled,
			}
			if err := app.Store.CreateSearchConfig(ctx, sc); err != nil {
				return err
			}

			fmt.Printf("Added search %d (%s).\n", sc.ID, sc.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "short label for the search")
	cmd.Flags().StringVar(&keywords, "keywords", "", "search keywords")
	cmd.Flags().StringVar(&location, "location", "", "town or region to search around")
	cmd.Flags().IntVar(&radius, "radius", 10, "search radius in miles")
	cmd.Flags().StringSliceVar(&types, "types", nil, "employment types (permanent, contract, temp)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the search disabled")

	return cmd
}

func enableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, args[0], true)
		},
	}
}

func disableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, args[0], false)
		},
	}
}

func setEnabled(cmd *cobra.Command, rawID string, enabled bool) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid config id %q", rawID)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := common.NewApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.SetSearchConfigEnabled(ctx, id, enabled); err != nil {
		return err
	}

	if enabled {
		fmt.Printf("Enabled search %d.\n", id)
	} else {
		fmt.Printf("Disabled search %d.\n", id)
	}
	return nil
}

func removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid config id %q", args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.DeleteSearchConfig(ctx, id); err != nil {
				return err
			}

			fmt.Printf("Removed search %d.\n", id)
			return nil
		},
	}
}
