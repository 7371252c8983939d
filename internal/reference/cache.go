package reference

import (
	"sync"
)

// Cache memoizes resolved references for one build. Entries are keyed by the
// canonical reference URL, so resolving the same entity through different
// authored spellings produces exactly one entry. The entry count therefore
// equals the number of distinct resolved references, not the number of
// resolution attempts.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]TopicReference
}

// NewCache creates an empty resolution cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]TopicReference)}
}

// Lookup returns the cached reference for a canonical URL.
func (c *Cache) Lookup(canonicalURL string) (TopicReference, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.entries[canonicalURL]
	return ref, ok
}

// Store records a resolved reference under its canonical URL. Storing the
// same reference again is a no-op.
func (c *Cache) Store(ref TopicReference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ref.URL()] = ref
}

// Count returns the number of distinct cached references.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
