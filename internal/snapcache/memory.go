// Package snapcache keeps computed chart snapshots keyed by the fingerprint
// of their inputs. Memory is a per-process LRU; Redis shares entries between
// processes.
package snapcache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papapumpkin/astrolabe/internal/chart"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("snapshot cache miss")

type memEntry struct {
	key     string
	snap    *chart.Snapshot
	expires time.Time
}

// Memory is a size-bounded LRU cache with a per-entry TTL. It is safe for
// concurrent use.
type Memory struct {
	mu    sync.Mutex
	size  int
	ttl   time.Duration
	order *list.List // front is most recently used
	items map[string]*list.Element
	now   func() time.Time
}

// NewMemory returns a cache holding at most size snapshots, each for ttl.
// A non-positive ttl keeps entries until they are evicted.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size < 1 {
		size = 1
	}
	return &Memory{
		size:  size,
		ttl:   ttl,
		order: list.New(),
		items: make(map[string]*list.Element, size),
		now:   time.Now,
	}
}

// Get returns the snapshot stored under key.
func (m *Memory) Get(_ context.Context, key string) (*chart.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	e := el.Value.(*memEntry)
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.remove(el)
		return nil, ErrMiss
	}
	m.order.MoveToFront(el)
	return e.snap, nil
}

// Put stores snap under key, evicting the least recently used entry when
// the cache is full.
func (m *Memory) Put(_ context.Context, key string, snap *chart.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if m.ttl > 0 {
		expires = m.now().Add(m.ttl)
	}
	if el, ok := m.items[key]; ok {
		e := el.Value.(*memEntry)
		e.snap, e.expires = snap, expires
		m.order.MoveToFront(el)
		return nil
	}
	m.items[key] = m.order.PushFront(&memEntry{key: key, snap: snap, expires: expires})
	for m.order.Len() > m.size {
		m.remove(m.order.Back())
	}
	return nil
}

// Invalidate drops key. Dropping an absent key is not an error.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

// Len returns the number of entries, expired ones included until touched.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Backend names the cache in metrics and logs.
func (m *Memory) Backend() string { return "memory" }

func (m *Memory) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*memEntry).key)
}
