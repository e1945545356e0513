package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/devpulse/devpulse-backend/internal/types"
)

func testInteraction(createdAt time.Time) *types.Interaction {
	return &types.Interaction{
		ID:        uuid.New(),
		ContentID: uuid.New(),
		Type:      types.InteractionView,
		CreatedAt: createdAt,
	}
}

func TestMemoryInteractionsAddGet(t *testing.T) {
	m := NewMemoryInteractions(time.Hour, 100)
	defer m.Close()
	ctx := context.Background()

	key := UserKey(uuid.New())
	in := testInteraction(time.Now())
	if err := m.Add(ctx, key, in); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := m.Get(ctx, key, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0].ID != in.ID {
		t.Fatalf("Get = %v, want the added interaction", got)
	}

	other, err := m.Get(ctx, SessionKey("someone-else"), time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Get(other key): %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("leak across keys: %v", other)
	}
}

func TestMemoryInteractionsSinceFilter(t *testing.T) {
	m := NewMemoryInteractions(time.Hour, 100)
	defer m.Close()
	ctx := context.Background()

	key := SessionKey("s1")
	old := testInteraction(time.Now().Add(-2 * time.Hour))
	recent := testInteraction(time.Now())
	_ = m.Add(ctx, key, old)
	_ = m.Add(ctx, key, recent)

	got, err := m.Get(ctx, key, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0].ID != recent.ID {
		t.Fatalf("since filter kept %d entries, want only the recent one", len(got))
	}
}

func TestMemoryInteractionsPerKeyCap(t *testing.T) {
	m := NewMemoryInteractions(time.Hour, 3)
	defer m.Close()
	ctx := context.Background()

	key := SessionKey("capped")
	var last *types.Interaction
	for i := 0; i < 10; i++ {
		last = testInteraction(time.Now())
		_ = m.Add(ctx, key, last)
	}

	got, err := m.Get(ctx, key, time.Time{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want cap 3", len(got))
	}
	// Oldest entries are evicted first.
	if got[len(got)-1].ID != last.ID {
		t.Fatalf("newest entry missing after eviction")
	}
}

func TestMemoryInteractionsTTLExpiry(t *testing.T) {
	m := NewMemoryInteractions(10*time.Millisecond, 100)
	defer m.Close()
	ctx := context.Background()

	key := SessionKey("expiring")
	_ = m.Add(ctx, key, testInteraction(time.Now()))

	time.Sleep(30 * time.Millisecond)

	got, err := m.Get(ctx, key, time.Time{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expired entries survived: %v", got)
	}
}

func TestMemoryInteractionsRecentAll(t *testing.T) {
	m := NewMemoryInteractions(time.Hour, 100)
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := SessionKey(fmt.Sprintf("s%d", i))
		_ = m.Add(ctx, key, testInteraction(time.Now()))
	}

	got, err := m.RecentAll(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("RecentAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("RecentAll len = %d, want 3 across keys", len(got))
	}
}

func TestMemoryInteractionsCloseIdempotent(t *testing.T) {
	m := NewMemoryInteractions(time.Hour, 100)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
