package configstore

import (
	"sync"
	"time"

	"github.com/eugenenazirov/sut-config/internal/storage"
)

// documentCache holds the last parsed document for one path. Cached documents
// are read-only; writers always load a fresh copy.
type documentCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	path     string
	doc      *storage.Document
	loadedAt time.Time
}

func newDocumentCache() *documentCache {
	return &documentCache{
		clock: time.Now,
	}
}

func (c *documentCache) get(path string) (*storage.Document, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc == nil || c.path != path {
		return nil, false
	}
	if c.clock().Sub(c.loadedAt) >= c.ttl {
		c.doc = nil
		return nil, false
	}
	return c.doc, true
}

func (c *documentCache) put(path string, doc *storage.Document) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.path = path
	c.doc = doc
	c.loadedAt = c.clock()
	c.mu.Unlock()
}

func (c *documentCache) invalidate(path string) {
	c.mu.Lock()
	if c.path == path {
		c.doc = nil
	}
	c.mu.Unlock()
}
