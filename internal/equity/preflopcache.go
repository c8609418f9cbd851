package equity

import "sync"

// cacheEntryCap bounds how many distinct preflop ids the histogram cache
// holds before it flushes: an unbounded cache would keep growing for
// inputs with a huge preflop space and little board-completion reuse per
// entry, trading memory for a cache-hit rate that was never going to pay
// for itself.
const cacheEntryCap = 1_000_000

// preflopCache memoizes, for a given canonical (suit- and
// player-order-isomorphism-reduced) preflop id, the full winsByPlayerMask
// histogram produced by enumerating every remaining board completion once,
// stored in sorted-combo order (see canonicalPreflopID). Many distinct
// decoded deals reduce to the same canonical id — suit-permuted duplicates,
// or the same set of combos dealt to a different permutation of seats — so
// caching the whole histogram rather than one hand's rank turns an entire
// repeated postflop enumeration into a single lookup plus one histogram
// permute back into the querying deal's own seat order.
type preflopCache struct {
	mu sync.RWMutex
	m  map[uint64][]uint64
}

func newPreflopCache() *preflopCache {
	return &preflopCache{m: make(map[uint64][]uint64)}
}

func (c *preflopCache) get(id uint64) ([]uint64, bool) {
	c.mu.RLock()
	v, ok := c.m[id]
	c.mu.RUnlock()
	return v, ok
}

func (c *preflopCache) put(id uint64, hist []uint64) {
	c.mu.Lock()
	if len(c.m) >= cacheEntryCap {
		c.m = make(map[uint64][]uint64)
	}
	c.m[id] = hist
	c.mu.Unlock()
}
