package cache

import (
	"context"
	"sync"
	"time"

	"github.com/devpulse/devpulse-backend/internal/types"
)

type memoryEntry struct {
	interaction *types.Interaction
	expiresAt   time.Time
}

// MemoryInteractions is a bounded TTL cache for single-node deployments and
// tests. Per-key rings are capped at maxPerKey; expired entries are dropped
// on read and by a background sweep.
type MemoryInteractions struct {
	mu        sync.RWMutex
	entries   map[string][]memoryEntry
	ttl       time.Duration
	maxPerKey int
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemoryInteractions(ttl time.Duration, maxPerKey int) *MemoryInteractions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxPerKey <= 0 {
		maxPerKey = 500
	}
	m := &MemoryInteractions{
		entries:   make(map[string][]memoryEntry),
		ttl:       ttl,
		maxPerKey: maxPerKey,
		done:      make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *MemoryInteractions) Add(ctx context.Context, key string, interaction *types.Interaction) error {
	if interaction == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ring := append(m.entries[key], memoryEntry{
		interaction: interaction,
		expiresAt:   time.Now().Add(m.ttl),
	})
	if len(ring) > m.maxPerKey {
		ring = ring[len(ring)-m.maxPerKey:]
	}
	m.entries[key] = ring
	return nil
}

func (m *MemoryInteractions) Get(ctx context.Context, key string, since time.Time) ([]*types.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var out []*types.Interaction
	for _, e := range m.entries[key] {
		if now.After(e.expiresAt) {
			continue
		}
		if e.interaction.CreatedAt.Before(since) {
			continue
		}
		out = append(out, e.interaction)
	}
	return out, nil
}

func (m *MemoryInteractions) RecentAll(ctx context.Context, since time.Time) ([]*types.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var out []*types.Interaction
	for _, ring := range m.entries {
		for _, e := range ring {
			if now.After(e.expiresAt) {
				continue
			}
			if e.interaction.CreatedAt.Before(since) {
				continue
			}
			out = append(out, e.interaction)
		}
	}
	return out, nil
}

func (m *MemoryInteractions) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryInteractions) sweepLoop() {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *MemoryInteractions) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, ring := range m.entries {
		kept := ring[:0]
		for _, e := range ring {
			if now.Before(e.expiresAt) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(m.entries, key)
			continue
		}
		m.entries[key] = kept
	}
}
