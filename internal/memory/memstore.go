package memory

import (
	"context"
	"maps"
	"sync"
)

// MemoryBacking is an in-process Backing for tests and ephemeral runs.
type MemoryBacking struct {
	mu       sync.RWMutex
	profiles map[string]string
}

// NewMemoryBacking creates an empty in-memory backing.
func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{profiles: make(map[string]string)}
}

// Load implements Backing.
func (b *MemoryBacking) Load(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	content, ok := b.profiles[key]
	return content, ok, nil
}

// Save implements Backing.
func (b *MemoryBacking) Save(_ context.Context, key, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profiles[key] = content
	return nil
}

// List implements Backing.
func (b *MemoryBacking) List(_ context.Context) (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.profiles), nil
}
