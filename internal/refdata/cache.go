// Package refdata caches the category -> subcategory hierarchy used during
// consultant registration. Read-through with replace-on-success semantics;
// no invalidation beyond re-fetch on demand.
package refdata

import (
	"context"
	"sync"

	"consulting-marketplace/client/internal/api"
)

// Loader is the slice of the backend the cache needs.
type Loader interface {
	Categories(ctx context.Context) ([]api.Category, error)
}

// Cache holds the loaded hierarchy. Safe for concurrent use.
type Cache struct {
	loader Loader

	mu     sync.RWMutex
	byID   map[string]api.Category
	order  []string
	loaded bool
}

// NewCache returns an empty cache over the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Load fetches the category list and replaces the cached hierarchy on
// success. On failure the previous contents are kept. Idempotent and safe to
// call repeatedly.
func (c *Cache) Load(ctx context.Context) error {
	cats, err := c.loader.Categories(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]api.Category, len(cats))
	order := make([]string, 0, len(cats))
	for _, cat := range cats {
		if _, dup := byID[cat.ID]; dup {
			continue
		}
		byID[cat.ID] = cat
		order = append(order, cat.ID)
	}
	c.mu.Lock()
	c.byID = byID
	c.order = order
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Loaded reports whether Load has succeeded at least once.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Categories returns the cached categories in load order.
func (c *Cache) Categories() []api.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Category, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Get returns the category with the given id.
func (c *Cache) Get(categoryID string) (api.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.byID[categoryID]
	return cat, ok
}

// SubcategoriesFor returns the subcategories of categoryID, empty for
// unknown ids.
func (c *Cache) SubcategoriesFor(categoryID string) []api.Subcategory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.byID[categoryID]
	if !ok {
		return nil
	}
	out := make([]api.Subcategory, len(cat.Subcategories))
	copy(out, cat.Subcategories)
	return out
}

// Belongs reports whether subcategoryID is a child of categoryID. Used to
// enforce that a selection row never references a subcategory outside its
// selected category.
func (c *Cache) Belongs(categoryID, subcategoryID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.byID[categoryID]
	if !ok {
		return false
	}
	for _, sub := range cat.Subcategories {
		if sub.ID == subcategoryID {
			return true
		}
	}
	return false
}
