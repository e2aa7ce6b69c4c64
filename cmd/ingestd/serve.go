package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/phulin/statute-ingest/internal/ingest"
	"github.com/phulin/statute-ingest/internal/ingest/callback"
	"github.com/phulin/statute-ingest/internal/logging"
	"github.com/phulin/statute-ingest/internal/sources"

	_ "github.com/phulin/statute-ingest/internal/sources/cgs"
	_ "github.com/phulin/statute-ingest/internal/sources/usc"
)

// newServeCmd starts the HTTP admission endpoint an external scheduler
// posts work items to. The endpoint itself is a thin shim: validation and
// scheduling policy live outside this repository's specified core, so
// this handler only decodes a unit, looks up its adapter, and runs it
// against the HTTP-backed callback collaborators in a background
// goroutine, returning 202 immediately.
func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP admission endpoint",
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

			client := callback.New(cfg.Callback.BaseURL, cfg.Callback.Token, &http.Client{Timeout: 60 * time.Second})

			mux := http.NewServeMux()
			mux.HandleFunc("/api/units", admitUnitHandler(logger, client))
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			logger.Info("ingestd listening", ingest.F("addr", cfg.Server.ListenAddr))
			return http.ListenAndServe(cfg.Server.ListenAddr, mux)
		},
	}
	return cmd
}

type admitUnitRequest struct {
	Source string              `json:"source"`
	Unit   ingest.UnitWorkItem `json:"unit"`
}

func admitUnitHandler(logger ingest.Logger, client *callback.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req admitUnitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		adapter, ok := sources.Global.Get(req.Source)
		if !ok {
			http.Error(w, "unknown source", http.StatusBadRequest)
			return
		}

		driver := &ingest.Driver{
			Cache:   client,
			Sink:    client,
			Queue:   &callbackQueue{logger: logger},
			Logger:  logger,
			Adapter: adapter,
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			status := driver.ProcessUnit(ctx, req.Unit)
			logger.Info("admitted unit finished", ingest.F("url", req.Unit.URL), ingest.F("status", status.String()))
		}()

		w.WriteHeader(http.StatusAccepted)
	}
}

// callbackQueue logs discovered follow-on units rather than re-enqueuing
// them through another HTTP hop; wiring a real remote work queue is
// scheduler-specific and out of this repository's specified core.
type callbackQueue struct {
	logger ingest.Logger
}

func (q *callbackQueue) Enqueue(_ context.Context, item ingest.UnitWorkItem) error {
	q.logger.Info("follow-on unit discovered", ingest.F("url", item.URL), ingest.F("levelName", item.LevelName))
	return nil
}
