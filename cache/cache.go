// Package cache stores finished face triangulations so repeated meshing
// of the same face with the same parameters is free.
//
// The cache is a sharded LRU keyed by face identity and parameter
// fingerprint. Concurrent requests for a missing key are collapsed with
// singleflight: the first caller computes, the others wait and share its
// result.
package cache

import (
	"encoding/binary"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/surfmesh/mesh"
)

const (
	// ShardCount is the number of shards. Must be a power of 2.
	ShardCount = 16

	// DefaultCapacity is the default number of entries per shard.
	DefaultCapacity = 64

	shardMask = ShardCount - 1
)

// Key identifies a face meshed with a given parameter set.
type Key struct {
	Face   uint64
	Params uint64
}

func (k Key) hash() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], k.Face)
	binary.LittleEndian.PutUint64(buf[8:], k.Params)
	h := fnv.New64a()
	_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	return h.Sum64()
}

func (k Key) String() string {
	return strconv.FormatUint(k.Face, 16) + "/" + strconv.FormatUint(k.Params, 16)
}

// Entry is a cached face result. Mesh is shared and must not be modified.
type Entry struct {
	Mesh   *mesh.Triangulation
	Status mesh.Status
}

// Stats reports cache activity.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Shared    uint64
	Evictions uint64
	HitRate   float64
}

// MeshCache is a concurrency-safe triangulation cache.
type MeshCache struct {
	shards   [ShardCount]*shard
	capacity int
	group    singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	shared    atomic.Uint64
	evictions atomic.Uint64
}

type shard struct {
	mu      sync.RWMutex
	entries map[Key]*cacheEntry
	order   recency
}

// New returns a cache holding up to capacity entries per shard. If
// capacity <= 0, DefaultCapacity is used.
func New(capacity int) *MeshCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &MeshCache{capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[Key]*cacheEntry)}
		c.shards[i].order.reset()
	}
	return c
}

func (c *MeshCache) shard(k Key) *shard {
	return c.shards[k.hash()&shardMask]
}

// Get returns the entry for k and marks it recently used.
func (c *MeshCache) Get(k Key) (Entry, bool) {
	s := c.shard(k)

	s.mu.RLock()
	_, ok := s.entries[k]
	s.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}

	s.mu.Lock()
	e, ok := s.entries[k]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		return Entry{}, false
	}
	s.order.touch(e)
	v := e.value
	s.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// Set stores e under k, evicting the least recently used entries of the
// shard when full.
func (c *MeshCache) Set(k Key, v Entry) {
	s := c.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[k]; ok {
		e.value = v
		s.order.touch(e)
		return
	}
	for s.order.len() >= c.capacity {
		old := s.order.oldest()
		if old == nil {
			break
		}
		s.order.unlink(old)
		delete(s.entries, old.key)
		c.evictions.Add(1)
	}
	e := &cacheEntry{key: k, value: v}
	s.entries[k] = e
	s.order.touch(e)
}

// Do returns the entry for k, computing it at most once across concurrent
// callers. reused is true for callers that did not run compute
// themselves: cache hits and waiters sharing another caller's result.
// Results flagged UserBreak and errors are returned but not stored, and a
// waiter handed one of them computes again under its own compute.
func (c *MeshCache) Do(k Key, compute func() (Entry, error)) (Entry, bool, error) {
	if e, ok := c.Get(k); ok {
		return e, true, nil
	}
	for {
		ran := false
		v, err, _ := c.group.Do(k.String(), func() (any, error) {
			if e, ok := c.peek(k); ok {
				return e, nil
			}
			ran = true
			e, err := compute()
			if err == nil && !e.Status.Has(mesh.UserBreak) {
				c.Set(k, e)
			}
			return e, err
		})
		e, _ := v.(Entry)
		if ran {
			return e, false, err
		}
		if err == nil && !e.Status.Has(mesh.UserBreak) {
			c.shared.Add(1)
			return e, true, nil
		}
	}
}

// peek looks k up without touching statistics.
func (c *MeshCache) peek(k Key) (Entry, bool) {
	s := c.shard(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[k]; ok {
		return e.value, true
	}
	return Entry{}, false
}

// Delete removes k and reports whether it was present.
func (c *MeshCache) Delete(k Key) bool {
	s := c.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok {
		return false
	}
	s.order.unlink(e)
	delete(s.entries, k)
	return true
}

// Clear removes every entry.
func (c *MeshCache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[Key]*cacheEntry)
		s.order.reset()
		s.mu.Unlock()
	}
}

// Len returns the number of entries.
func (c *MeshCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Capacity returns the per-shard capacity.
func (c *MeshCache) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the counters.
func (c *MeshCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity * ShardCount,
		Hits:      hits,
		Misses:    misses,
		Shared:    c.shared.Load(),
		Evictions: c.evictions.Load(),
		HitRate:   rate,
	}
}
