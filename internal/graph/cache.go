package graph

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"
)

// QueryCache is a bounded LRU of read results. Entries older than the TTL
// are dropped on lookup.
type QueryCache struct {
	mu     sync.Mutex
	ll     *list.List
	index  map[string]*list.Element
	limit  int
	ttl    time.Duration
	hits   int64
	misses int64
}

type cached struct {
	key     string
	records []Record
	stored  time.Time
}

// NewQueryCache holds at most capacity results for ttl each.
func NewQueryCache(capacity int, ttl time.Duration) *QueryCache {
	if capacity < 1 {
		capacity = 1
	}
	return &QueryCache{ll: list.New(), index: make(map[string]*list.Element), limit: capacity, ttl: ttl}
}

// Parameter maps marshal with sorted keys, so equal maps give equal keys.
func queryKey(query string, params map[string]any) string {
	p, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return query + "\x00" + string(p)
}

// Get returns a fresh result for query and params.
func (c *QueryCache) Get(query string, params map[string]any) ([]Record, bool) {
	key := queryKey(query, params)
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if ok && time.Since(el.Value.(*cached).stored) > c.ttl {
		c.remove(el)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.ll.MoveToFront(el)
	return el.Value.(*cached).records, true
}

// Set stores records, evicting the least recently used entry when full.
// Queries whose parameters cannot be marshalled are not cached.
func (c *QueryCache) Set(query string, params map[string]any, records []Record) {
	key := queryKey(query, params)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value = &cached{key: key, records: records, stored: time.Now()}
		c.ll.MoveToFront(el)
		return
	}
	c.index[key] = c.ll.PushFront(&cached{key: key, records: records, stored: time.Now()})
	for c.ll.Len() > c.limit {
		c.remove(c.ll.Back())
	}
}

func (c *QueryCache) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.index, el.Value.(*cached).key)
}

// Clear drops every entry. Hit and miss counters are kept.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	c.ll.Init()
	c.index = make(map[string]*list.Element)
	c.mu.Unlock()
}

type CacheStats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

func (c *QueryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := CacheStats{Size: c.ll.Len(), Capacity: c.limit, Hits: c.hits, Misses: c.misses}
	if n := c.hits + c.misses; n > 0 {
		st.HitRate = float64(c.hits) / float64(n)
	}
	return st
}

// CachedDriver serves repeated read-backs of written reports from a
// QueryCache. Any write empties the cache, since a MERGE may change any
// previously read node.
type CachedDriver struct {
	Driver
	cache *QueryCache
}

func NewCachedDriver(d Driver, cache *QueryCache) *CachedDriver {
	return &CachedDriver{Driver: d, cache: cache}
}

func (d *CachedDriver) Execute(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	if recs, ok := d.cache.Get(query, params); ok {
		return recs, nil
	}
	recs, err := d.Driver.Execute(ctx, query, params)
	if err != nil {
		return nil, err
	}
	d.cache.Set(query, params, recs)
	return recs, nil
}

func (d *CachedDriver) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	d.cache.Clear()
	return d.Driver.ExecuteWrite(ctx, query, params)
}

func (d *CachedDriver) Cache() *QueryCache { return d.cache }
