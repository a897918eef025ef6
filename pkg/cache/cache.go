package cache

import (
	"context"
	"sync"

	"github.com/joripage/matching-engine/pkg/orderbook"
)

// SnapshotCache stores the latest book snapshot of each symbol.
type SnapshotCache interface {
	Set(ctx context.Context, snap orderbook.Snapshot) error
	// Get returns ok == false when no snapshot is cached for symbol.
	Get(ctx context.Context, symbol string) (snap orderbook.Snapshot, ok bool, err error)
	// Reset drops every cached snapshot.
	Reset(ctx context.Context) error
}

type MemoryCache struct {
	mu    sync.RWMutex
	snaps map[string]orderbook.Snapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{snaps: make(map[string]orderbook.Snapshot)}
}

func (c *MemoryCache) Set(_ context.Context, snap orderbook.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[snap.Symbol] = snap
	return nil
}

func (c *MemoryCache) Get(_ context.Context, symbol string) (orderbook.Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snaps[symbol]
	return snap, ok, nil
}

func (c *MemoryCache) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = make(map[string]orderbook.Snapshot)
	return nil
}
