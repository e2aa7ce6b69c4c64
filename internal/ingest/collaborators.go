package ingest

import "context"

// Cache fetches (and caches) the bytes at url, keyed separately so a
// caller can force a distinct cache entry for the same URL under
// different parse assumptions (e.g. XML vs HTML fallback decoding).
// Implementations must be safe for concurrent use: the driver calls
// Fetch from one goroutine per in-flight unit.
type Cache interface {
	Fetch(ctx context.Context, url, key string) ([]byte, error)
}

// NodeSink receives emitted payloads in batches and acknowledges receipt;
// Flush blocks until every previously-accepted batch has been durably
// accepted downstream. Implementations must be safe for concurrent use.
type NodeSink interface {
	InsertNodes(ctx context.Context, batch []NodePayload) error
	Flush(ctx context.Context) error
}

// UrlQueue publishes a unit of follow-on work (e.g. a chapter discovered
// while processing a title) for later processing. Implementations must be
// safe for concurrent use.
type UrlQueue interface {
	Enqueue(ctx context.Context, item UnitWorkItem) error
}

// Logger is the narrow structured-logging surface the driver depends on;
// internal/logging supplies the concrete zap-backed implementation used by
// cmd/ingestd, but tests can supply a no-op or recording stub without
// importing zap.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a single structured-logging key/value pair.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

// UnitWorkItem describes one fetch-parse-emit unit: a document to pull
// from the Cache, plus the hierarchy context it should be attached under.
// JobID is a stable identifier assigned when the item is enqueued (see
// MemoryQueue.Enqueue), carried through logging so a unit's processing can
// be traced back to the queue entry that produced it.
type UnitWorkItem struct {
	URL        string
	ParentID   string
	LevelName  string
	LevelIndex int
	Metadata   map[string]string
	JobID      string
}
