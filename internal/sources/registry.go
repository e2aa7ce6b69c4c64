// Package sources holds the Registry of per-jurisdiction SourceAdapter
// implementations and the concrete adapters themselves (usc, cgs).
package sources

import (
	"fmt"
	"sync"

	"github.com/phulin/statute-ingest/internal/ingest"
)

// Registry maps a source key (e.g. "usc", "cgs") to the SourceAdapter that
// handles it, in the same register/get/list shape as a language-provider
// registry: adapters self-register from an init func, and cmd/ingestd
// looks one up by the key given in the ingest subcommand's --source flag
// or in an admitted unit's source field.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]ingest.SourceAdapter
}

// Global is the process-wide registry adapters register themselves into.
var Global = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]ingest.SourceAdapter)}
}

// Register adds adapter under key, panicking on a duplicate key since
// that can only indicate a programming error (two packages claiming the
// same source), never a runtime condition to recover from.
func (r *Registry) Register(key string, adapter ingest.SourceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[key]; exists {
		panic(fmt.Sprintf("sources: adapter %q already registered", key))
	}
	r.adapters[key] = adapter
}

// Get returns the adapter registered under key.
func (r *Registry) Get(key string) (ingest.SourceAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[key]
	return a, ok
}

// List returns every registered source key.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	return keys
}
