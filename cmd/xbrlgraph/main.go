// Package main provides the xbrlgraph CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/xbrlgraph/internal/config"
	"github.com/joss/xbrlgraph/internal/logging"
	"github.com/joss/xbrlgraph/internal/render"
)

var (
	version     = "0.1.0"
	cfg         *config.Config
	configPath  string
	jsonOut     bool
	pretty      bool
	metricsAddr string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xbrlgraph",
		Short: "Validate XBRL filings and project them into a property graph",
		Long: `xbrlgraph: XBRL fact validation and relationship derivation.

Filings are read as pre-parsed snapshots (YAML or JSON). Each report is
deduplicated, validated against its networks' hypercubes, reconciled
against its calculation networks and written to Memgraph/Neo4j.

Use 'xbrlgraph validate <file>' for a dry run of one filing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(config.Resolve(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			if !cmd.Flags().Changed("pretty") {
				pretty = render.IsTerminal(os.Stdout)
			}
			logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "Colored output (default when stdout is a terminal)")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	root.AddGroup(
		&cobra.Group{ID: "pipeline", Title: "Pipeline:"},
		&cobra.Group{ID: "inspect", Title: "Inspection:"},
	)

	ingest := ingestCmd()
	ingest.GroupID = "pipeline"
	root.AddCommand(ingest)

	validate := validateCmd()
	validate.GroupID = "pipeline"
	root.AddCommand(validate)

	classify := classifyCmd()
	classify.GroupID = "inspect"
	root.AddCommand(classify)

	history := historyCmd()
	history.GroupID = "inspect"
	root.AddCommand(history)

	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xbrlgraph %s\n", version)
		},
	}
}
