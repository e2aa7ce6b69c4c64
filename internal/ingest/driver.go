package ingest

import (
	"context"
	"errors"

	"github.com/phulin/statute-ingest/internal/xmlspec"
)

// BatchSize is the number of NodePayload values the driver accumulates
// before calling NodeSink.InsertNodes, matching the reference container's
// batching granularity.
const BatchSize = 200

// UnitStatus is the terminal state of one ProcessUnit call.
type UnitStatus int

const (
	UnitCompleted UnitStatus = iota
	UnitSkipped
	UnitError
)

func (s UnitStatus) String() string {
	switch s {
	case UnitCompleted:
		return "completed"
	case UnitSkipped:
		return "skipped"
	case UnitError:
		return "error"
	default:
		return "unknown"
	}
}

// SourceAdapter is the per-jurisdiction plug-in point: given the already
// fetched bytes for one unit, it produces every NodePayload the unit
// contributes (both structural nodes and leaf sections) plus any further
// units discovered while walking it (e.g. a title document listing
// chapter URLs). Adapters must not perform their own I/O; the driver owns
// fetching via Cache and publishing via UrlQueue/NodeSink.
type SourceAdapter interface {
	// UnitLabel returns a short human-readable label for logging.
	UnitLabel(unit UnitWorkItem) string
	// BuildNodes parses raw, the unit's bytes as fetched by the driver,
	// and resolves it into payloads and follow-on work.
	BuildNodes(ctx context.Context, unit UnitWorkItem, raw []byte) (nodes []NodePayload, next []UnitWorkItem, err error)
}

// Driver owns the collaborators every SourceAdapter needs and exposes the
// fetch/parse/resolve/emit pipeline as a single per-unit call plus a
// convenience to drain a slice of seed units.
type Driver struct {
	Cache   Cache
	Sink    NodeSink
	Queue   UrlQueue
	Logger  Logger
	Adapter SourceAdapter
}

// ProcessUnit runs one unit through the pipeline: fetch its bytes from
// Cache, hand them to the adapter to parse and resolve, enqueue any
// discovered follow-on units, and emit every produced NodePayload to Sink
// in BatchSize-sized batches.
func (d *Driver) ProcessUnit(ctx context.Context, unit UnitWorkItem) UnitStatus {
	label := d.Adapter.UnitLabel(unit)

	raw, err := d.Cache.Fetch(ctx, unit.URL, unit.URL)
	if err != nil {
		var miss *CacheMiss
		if errors.As(err, &miss) {
			d.Logger.Warn("unit skipped: cache miss", F("unit", label), F("url", unit.URL))
			return UnitSkipped
		}
		d.Logger.Error("unit fetch failed", F("unit", label), F("error", err.Error()))
		return UnitError
	}

	nodes, next, err := d.Adapter.BuildNodes(ctx, unit, raw)
	if err != nil {
		var htmlErr *xmlspec.HTMLWhenXMLExpected
		if errors.As(err, &htmlErr) {
			d.Logger.Warn("unit skipped: html where xml was expected", F("unit", label), F("detail", htmlErr.Detail))
			return UnitSkipped
		}
		d.Logger.Error("unit build failed", F("unit", label), F("error", err.Error()))
		return UnitError
	}

	if err := d.emitBatched(ctx, nodes); err != nil {
		d.Logger.Error("unit emit failed", F("unit", label), F("error", err.Error()))
		return UnitError
	}

	for _, item := range next {
		if err := d.Queue.Enqueue(ctx, item); err != nil {
			d.Logger.Error("unit enqueue failed", F("unit", label), F("error", err.Error()))
			return UnitError
		}
	}

	d.Logger.Info("unit completed", F("unit", label), F("nodes", len(nodes)), F("next", len(next)))
	return UnitCompleted
}

func (d *Driver) emitBatched(ctx context.Context, nodes []NodePayload) error {
	for start := 0; start < len(nodes); start += BatchSize {
		end := start + BatchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		if err := d.Sink.InsertNodes(ctx, nodes[start:end]); err != nil {
			return &SinkError{Err: err}
		}
	}
	return d.Sink.Flush(ctx)
}

// ProcessAll runs every seed unit in turn, one goroutine per unit, bounded
// by maxConcurrency; cross-unit ordering is unspecified, but within a
// single unit nodes are emitted in the order the adapter returned them.
func (d *Driver) ProcessAll(ctx context.Context, units []UnitWorkItem, maxConcurrency int) []UnitStatus {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	results := make([]UnitStatus, len(units))
	sem := make(chan struct{}, maxConcurrency)
	done := make(chan int, len(units))

	for i, unit := range units {
		i, unit := i, unit
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- i }()
			results[i] = d.ProcessUnit(ctx, unit)
		}()
	}
	for range units {
		<-done
	}
	return results
}
