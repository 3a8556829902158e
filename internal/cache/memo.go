// Package cache memoizes the single compound table query for a short TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"molintel/domain/compound"
	"molintel/ports"

	"golang.org/x/sync/singleflight"
)

// Memo owns one cached LoadResult and the time it was fetched. It is the
// only state shared between passes.
type Memo struct {
	loader ports.CompoundLoader
	ttl    time.Duration

	mu        sync.Mutex
	value     compound.LoadResult
	fetchedAt time.Time
	valid     bool
	// generation is bumped by Invalidate so a load started before the
	// invalidation cannot repopulate the memo.
	generation uint64

	group singleflight.Group
}

// NewMemo creates a memo in front of loader. A zero ttl disables caching.
func NewMemo(loader ports.CompoundLoader, ttl time.Duration) *Memo {
	return &Memo{loader: loader, ttl: ttl}
}

// TTL returns the configured time-to-live
func (m *Memo) TTL() time.Duration {
	return m.ttl
}

// GetOrRefresh returns the cached result when it is younger than the TTL
// at now, and otherwise runs the loader. Results carrying a diagnostic are
// returned but not kept, so the next pass retries the query. Concurrent
// misses share one load, which runs detached from the caller's
// cancellation so one disconnecting client cannot fail the others.
func (m *Memo) GetOrRefresh(ctx context.Context, now time.Time) (compound.LoadResult, bool) {
	m.mu.Lock()
	if m.valid && now.Sub(m.fetchedAt) < m.ttl {
		value := m.value
		m.mu.Unlock()
		return value, true
	}
	gen := m.generation
	m.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := m.group.Do("compounds", func() (interface{}, error) {
		result := m.loader.Load(loadCtx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if !result.Failed() && gen == m.generation {
			m.value = result
			m.fetchedAt = now
			m.valid = true
		}
		return result, nil
	})
	return v.(compound.LoadResult), false
}

// Invalidate drops the cached value; the next GetOrRefresh re-queries
func (m *Memo) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	m.value = compound.LoadResult{}
	m.generation++
	m.group.Forget("compounds")
}

// FetchedAt reports when the cached value was loaded, and whether there is one
func (m *Memo) FetchedAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchedAt, m.valid
}
