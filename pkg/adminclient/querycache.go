package adminclient

import (
	"sync"
	"time"
)

type cacheEntry struct {
	data    []byte
	tables  []string
	expires time.Time
}

// QueryCache holds recent GET responses keyed by request. Entries record
// which tables they were built from so a change event can drop exactly
// the affected queries.
type QueryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewQueryCache returns a cache whose entries go stale after ttl.
func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

func (q *QueryCache) Get(key string) ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[key]
	if !ok {
		return nil, false
	}
	if q.now().After(e.expires) {
		delete(q.entries, key)
		return nil, false
	}
	return e.data, true
}

func (q *QueryCache) Set(key string, data []byte, tables ...string) {
	q.mu.Lock()
	q.entries[key] = cacheEntry{data: data, tables: tables, expires: q.now().Add(q.ttl)}
	q.mu.Unlock()
}

// InvalidateTable drops every entry built from table and returns how many
// were removed.
func (q *QueryCache) InvalidateTable(table string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for key, e := range q.entries {
		for _, t := range e.tables {
			if t == table {
				delete(q.entries, key)
				n++
				break
			}
		}
	}
	return n
}

func (q *QueryCache) Clear() {
	q.mu.Lock()
	q.entries = make(map[string]cacheEntry)
	q.mu.Unlock()
}

func (q *QueryCache) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
