// Package cmd implements the jobscout command-line interface. It provides
// the root command and wires up the subcommands for scraping, enrichment,
// and scheduling.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdconfigs "github.com/jonesrussell/jobscout/cmd/configs"
	cmddescriptions "github.com/jonesrussell/jobscout/cmd/descriptions"
	cmdprocess "github.com/jonesrussell/jobscout/cmd/process"
	cmdscheduler "github.com/jonesrussell/jobscout/cmd/scheduler"
	cmdscrape "github.com/jonesrussell/jobscout/cmd/scrape"
	cmdstatus "github.com/jonesrussell/jobscout/cmd/status"
	"github.com/jonesrussell/jobscout/internal/config"
)

const version = "0.4.0"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug raises the log level for every command.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "jobscout",
		Short: "A job board scraper and enrichment pipeline",
		Long: `jobscout scrapes UK job boards into a local SQLite database, backfills
full descriptions from each job's detail page, and enriches records
with AI-extracted tags and entities.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Parse flags early so --config is known before viper reads anything.
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := config.Init(cfgFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	if debug {
		viper.Set("logger.level", "debug")
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jobscout version %s\n", version)
		},
	})

	rootCmd.AddCommand(cmdscrape.Command())
	rootCmd.AddCommand(cmddescriptions.Command())
	rootCmd.AddCommand(cmdprocess.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
	rootCmd.AddCommand(cmdconfigs.Command())
	rootCmd.AddCommand(cmdstatus.Command())
}
