package history

import (
	"log"
	"sync"

	"github.com/blackhouse/concursobot/models"
)

const defaultLimit = 500

// Store persists registered fingerprints so the recency window survives a
// restart. Implemented by database.DB; a nil Store keeps the cache purely
// in memory.
type Store interface {
	SaveFingerprint(fp models.Fingerprint) error
	LoadFingerprints(limit int) ([]models.Fingerprint, error)
}

// Cache is a bounded FIFO of recently delivered question fingerprints with a
// companion set for O(1) membership checks. Once the ceiling is reached the
// oldest entries are evicted first. Safe for concurrent use; a manual send
// may race a scheduled one.
type Cache struct {
	mu    sync.Mutex
	order []models.Fingerprint
	seen  map[models.Fingerprint]struct{}
	limit int
	store Store
}

// New creates a Cache with the given ceiling, pre-filled from the store when
// one is provided. A load failure is logged and the cache starts empty.
func New(limit int, store Store) *Cache {
	if limit < 1 {
		limit = defaultLimit
	}
	c := &Cache{
		seen:  make(map[models.Fingerprint]struct{}),
		limit: limit,
		store: store,
	}

	if store != nil {
		fps, err := store.LoadFingerprints(limit)
		if err != nil {
			log.Printf("Could not load delivery history: %v", err)
		} else {
			for _, fp := range fps {
				c.insert(fp)
			}
			log.Printf("Loaded %d fingerprints from delivery history", len(c.order))
		}
	}

	return c
}

// Register records a fingerprint as recently delivered, evicting the oldest
// entries if the ceiling would be exceeded. Returns false when the
// fingerprint was already present.
func (c *Cache) Register(fp models.Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[fp]; ok {
		return false
	}
	c.insert(fp)

	if c.store != nil {
		if err := c.store.SaveFingerprint(fp); err != nil {
			log.Printf("Could not persist fingerprint: %v", err)
		}
	}
	return true
}

// insert appends without touching the store. Callers hold the lock or own
// the cache exclusively.
func (c *Cache) insert(fp models.Fingerprint) {
	if _, ok := c.seen[fp]; ok {
		return
	}
	c.order = append(c.order, fp)
	c.seen[fp] = struct{}{}
	for len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
}

// Contains reports whether the fingerprint was delivered recently.
func (c *Cache) Contains(fp models.Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[fp]
	return ok
}

// Len returns the number of fingerprints currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
