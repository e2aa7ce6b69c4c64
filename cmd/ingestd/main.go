// Command ingestd drives the source-adapter pipeline: either as a one-shot
// local run over disk-resident fixtures, or as a long-running HTTP
// admission endpoint that accepts work items from an external scheduler.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phulin/statute-ingest/internal/config"
)

// version is set at build time via -ldflags; left as a default for local
// builds and `go run`.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ingestd",
		Short:         "Legal-corpus ingestion driver",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to ingestd.toml (overrides INGESTD_CONFIG and default search path)")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newIngestCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ingestd version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
