package preview

import (
	"log/slog"
	"sync"

	"github.com/golang/groupcache/lru"
)

// Cache memoizes resolved previews by exact URL string.
// The first stored value for a key wins; least recently used entries are evicted beyond capacity.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache
}

// NewCache creates a cache holding at most capacity entries. A non-positive capacity disables eviction.
func NewCache(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}

	entries := lru.New(capacity)
	entries.OnEvicted = func(key lru.Key, _ interface{}) {
		slog.Debug("Evicted preview", "url", key)
	}

	return &Cache{
		entries: entries,
	}
}

func (c *Cache) Get(url string) (LinkPreviewMeta, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries.Get(url)
	if !ok {
		return LinkPreviewMeta{}, false
	}

	return value.(LinkPreviewMeta), true
}

// Add stores meta under url unless an entry already exists. It reports whether meta was stored.
func (c *Cache) Add(url string, meta LinkPreviewMeta) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries.Get(url); ok {
		return false
	}

	c.entries.Add(url, meta)
	return true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len()
}
