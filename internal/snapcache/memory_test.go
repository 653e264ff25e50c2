package snapcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/papapumpkin/astrolabe/internal/chart"
)

func snap(jd float64) *chart.Snapshot {
	return &chart.Snapshot{JulianDay: jd}
}

func TestMemory_GetPut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(4, time.Hour)

	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get on empty cache: %v", err)
	}
	if err := m.Put(ctx, "a", snap(1)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.JulianDay != 1 {
		t.Errorf("JulianDay = %v, want 1", got.JulianDay)
	}

	if err := m.Put(ctx, "a", snap(2)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _ = m.Get(ctx, "a")
	if got.JulianDay != 2 || m.Len() != 1 {
		t.Errorf("overwrite: jd=%v len=%d", got.JulianDay, m.Len())
	}
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(2, 0)

	m.Put(ctx, "a", snap(1))
	m.Put(ctx, "b", snap(2))
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatalf("Get a: %v", err)
	}
	m.Put(ctx, "c", snap(3))

	if _, err := m.Get(ctx, "b"); !errors.Is(err, ErrMiss) {
		t.Errorf("b should have been evicted, got %v", err)
	}
	for _, k := range []string{"a", "c"} {
		if _, err := m.Get(ctx, k); err != nil {
			t.Errorf("Get %s: %v", k, err)
		}
	}
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(4, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Put(ctx, "a", snap(1))
	now = now.Add(59 * time.Second)
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}
	now = now.Add(time.Second)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get at expiry: %v, want ErrMiss", err)
	}
	if m.Len() != 0 {
		t.Errorf("expired entry not removed, len=%d", m.Len())
	}
}

func TestMemory_Invalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(0, 0)

	m.Put(ctx, "a", snap(1))
	if err := m.Invalidate(ctx, "a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := m.Invalidate(ctx, "a"); err != nil {
		t.Errorf("Invalidate absent key: %v", err)
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after Invalidate: %v", err)
	}
}

func TestMemory_ConcurrentSafety(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(8, time.Hour)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%16))
			m.Put(ctx, key, snap(float64(i)))
			m.Get(ctx, key)
			if i%5 == 0 {
				m.Invalidate(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	if m.Len() > 8 {
		t.Errorf("cache grew past its size: %d", m.Len())
	}
}
