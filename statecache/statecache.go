// Package statecache provides a sharded, reference-counted deduplication
// cache that maps structural state values to small integer tokens.
//
// Tokens stand in for the full structural value: two values that are equal
// under the same cache always receive the same token, so callers can detect
// redundant state with a single integer comparison instead of comparing the
// full value. Entries are reference counted; a token stays stable for as
// long as at least one owner holds it.
package statecache

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
)

// Token is a small integer identity for a cached state value.
// Equal values acquired from the same cache yield equal tokens.
type Token uint32

// Dynamic is the reserved token for state that is supplied per draw and
// must never be compared structurally. No cached value ever receives it.
const Dynamic Token = 0

// Default configuration constants.
const (
	// shardCount is the number of shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	shardCount = 16

	// shardMask is used for fast shard selection (shardCount - 1).
	shardMask = shardCount - 1
)

// Cache deduplicates structural state values and assigns them tokens.
//
// Cache is safe for concurrent use. Keys are partitioned across 16 shards,
// each with its own mutex, so unrelated acquisitions do not serialize on a
// single lock. Token assignment is monotonic and process-wide unique within
// one cache; released entries never recycle their token.
type Cache[K comparable] struct {
	shards [shardCount]shard[K]
	seed   maphash.Seed
	next   atomic.Uint32

	// Statistics (atomic for zero-allocation reads)
	hits   atomic.Uint64
	misses atomic.Uint64
}

// shard is a single shard of the cache with its own lock.
type shard[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// entry holds a token with its reference count.
type entry struct {
	token Token
	refs  int
}

// New creates an empty token cache.
func New[K comparable]() *Cache[K] {
	c := &Cache[K]{seed: maphash.MakeSeed()}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*entry)
	}
	return c
}

// getShard returns the shard for a given key.
func (c *Cache[K]) getShard(key K) *shard[K] {
	h := maphash.Comparable(c.seed, key)
	return &c.shards[h&shardMask]
}

// Acquire returns the token for key, assigning a fresh one if the value has
// not been seen, and increments the entry's reference count. The returned
// token is never Dynamic.
func (c *Cache[K]) Acquire(key K) Token {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.refs++
		c.hits.Add(1)
		return e.token
	}

	tok := Token(c.next.Add(1))
	s.entries[key] = &entry{token: tok, refs: 1}
	c.misses.Add(1)
	return tok
}

// Release drops one reference to key's entry. The entry is removed when the
// last reference is released. Releasing a key that is not present is a no-op,
// which makes teardown paths tolerant of partially constructed owners.
func (c *Cache[K]) Release(key K) {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(s.entries, key)
	}
}

// Lookup returns the token currently assigned to key without taking a
// reference. Returns (Dynamic, false) if the value is not cached.
func (c *Cache[K]) Lookup(key K) (Token, bool) {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		return e.token, true
	}
	return Dynamic, false
}

// Refs returns the current reference count for key, or 0 if not cached.
func (c *Cache[K]) Refs(key K) int {
	s := c.getShard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the total number of live entries across all shards.
func (c *Cache[K]) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of live entries.
	Len int

	// Hits counts acquisitions that found an existing entry.
	Hits uint64

	// Misses counts acquisitions that assigned a fresh token.
	Misses uint64
}

// Stats returns current cache statistics.
func (c *Cache[K]) Stats() Stats {
	return Stats{
		Len:    c.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
