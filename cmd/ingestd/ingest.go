package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phulin/statute-ingest/internal/ingest"
	"github.com/phulin/statute-ingest/internal/logging"
	"github.com/phulin/statute-ingest/internal/sources"

	_ "github.com/phulin/statute-ingest/internal/sources/cgs"
	_ "github.com/phulin/statute-ingest/internal/sources/usc"
)

// newIngestCmd runs a single source adapter end-to-end against documents
// already sitting on disk, using the in-memory Cache/NodeSink/UrlQueue from
// internal/ingest. This is the fixture-driven debugging path: no cache
// proxy, no remote callback, nodes printed as NDJSON to stdout.
func newIngestCmd(configPath *string) *cobra.Command {
	var source string
	var seedURL string
	var docPath string
	var maxConcurrency int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one source adapter over a local document and print emitted nodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()

			adapter, ok := sources.Global.Get(source)
			if !ok {
				return fmt.Errorf("unknown source %q; available: %v", source, sources.Global.List())
			}

			raw, err := os.ReadFile(docPath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", docPath, err)
			}
			if seedURL == "" {
				seedURL = "file://" + filepath.Clean(docPath)
			}

			cache := ingest.NewMemoryCache(map[string][]byte{seedURL: raw})
			sink := ingest.NewMemorySink()
			queue := ingest.NewMemoryQueue()

			driver := &ingest.Driver{
				Cache:   cache,
				Sink:    sink,
				Queue:   queue,
				Logger:  logger,
				Adapter: adapter,
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			pending := []ingest.UnitWorkItem{{URL: seedURL, LevelName: "root"}}
			for len(pending) > 0 {
				statuses := driver.ProcessAll(ctx, pending, maxConcurrency)
				for i, st := range statuses {
					logger.Info("unit finished", ingest.F("url", pending[i].URL), ingest.F("status", st.String()))
				}
				pending = queue.Drain()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, node := range sink.Nodes {
				if err := enc.Encode(node); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "registered source adapter key (usc|cgs)")
	cmd.Flags().StringVar(&seedURL, "url", "", "synthetic URL to register the document under (defaults to file://<path>)")
	cmd.Flags().StringVar(&docPath, "file", "", "path to the document to parse")
	cmd.Flags().IntVar(&maxConcurrency, "concurrency", 4, "max concurrent units in flight")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("file")

	return cmd
}
