package search

import "sync"

// Cache remembers the last query per location path for the process
// lifetime. Reopening search on the same path pre-fills the query;
// other paths start blank.
type Cache struct {
	mu   sync.Mutex
	last map[string]string
}

// NewCache creates an empty query cache.
func NewCache() *Cache {
	return &Cache{last: make(map[string]string)}
}

// Put records the last query for a path. An empty query clears the
// entry.
func (c *Cache) Put(path, query string) {
	if path == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if query == "" {
		delete(c.last, path)
		return
	}
	c.last[path] = query
}

// Get returns the cached query for a path, or "".
func (c *Cache) Get(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last[path]
}
