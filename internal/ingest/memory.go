package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCache is a reference Cache backed by a fixed map of url -> bytes,
// useful for fixture-driven tests and the `ingestd ingest` CLI subcommand
// where documents are already on disk rather than behind a real proxy.
type MemoryCache struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryCache(docs map[string][]byte) *MemoryCache {
	m := make(map[string][]byte, len(docs))
	for k, v := range docs {
		m[k] = v
	}
	return &MemoryCache{docs: m}
}

func (c *MemoryCache) Fetch(_ context.Context, url, _ string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.docs[url]
	if !ok {
		return nil, &CacheMiss{URL: url, Err: errNotFound}
	}
	return b, nil
}

var errNotFound = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

// MemorySink accumulates every batch it is handed, for assertions in
// tests.
type MemorySink struct {
	mu    sync.Mutex
	Nodes []NodePayload
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) InsertNodes(_ context.Context, batch []NodePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nodes = append(s.Nodes, batch...)
	return nil
}

func (s *MemorySink) Flush(context.Context) error { return nil }

// MemoryQueue records every enqueued unit, for tests and for the `ingest`
// CLI subcommand's single-process run loop.
type MemoryQueue struct {
	mu    sync.Mutex
	Items []UnitWorkItem
}

func NewMemoryQueue() *MemoryQueue { return &MemoryQueue{} }

func (q *MemoryQueue) Enqueue(_ context.Context, item UnitWorkItem) error {
	if item.JobID == "" {
		item.JobID = uuid.NewString()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Items = append(q.Items, item)
	return nil
}

// Drain returns and clears every item enqueued so far, for a caller
// driving a simple work-list loop.
func (q *MemoryQueue) Drain() []UnitWorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.Items
	q.Items = nil
	return items
}

// NopLogger discards every log call; useful in tests that don't assert on
// logging.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
