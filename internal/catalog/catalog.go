package catalog

import (
	"fmt"
	"sync"

	"codeberg.org/mutker/scadactl/internal/logger"
)

// Catalog is the read side of the point store consumed by the collection
// engine. Lookups are atomic; the backing list can be hot-swapped with
// Reload between collection cycles without stopping the loop.
type Catalog struct {
	store Store

	mu     sync.RWMutex
	points []Point
	byName map[string]Point
}

func NewCatalog(store Store) (*Catalog, error) {
	c := &Catalog{store: store}
	if err := c.Reload(); err != nil {
		return nil, err
	}

	return c, nil
}

// Reload replaces the in-memory point list with the current store
// contents. In-flight cycles keep the list they started with; the next
// cycle observes the new one.
func (c *Catalog) Reload() error {
	points, err := c.store.List()
	if err != nil {
		return err
	}

	byName := make(map[string]Point, len(points))
	for _, p := range points {
		byName[p.Name] = p
	}

	c.mu.Lock()
	c.points = points
	c.byName = byName
	c.mu.Unlock()

	logger.Debug().Int("points", len(points)).Msg("Catalog reloaded")

	return nil
}

// ListNames returns the logical point names in catalog order.
func (c *Catalog) ListNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.points))
	for i, p := range c.points {
		names[i] = p.Name
	}

	return names
}

// Points returns a copy of the current point list.
func (c *Catalog) Points() []Point {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := make([]Point, len(c.points))
	copy(points, c.points)

	return points
}

// Get returns the point with the given name, or false.
func (c *Catalog) Get(name string) (Point, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byName[name]

	return p, ok
}

// Resolve translates a logical name into its XID. Unknown names are
// returned unchanged, so resolution never fails.
func (c *Catalog) Resolve(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.byName[name]; ok {
		return p.XID
	}

	return name
}

// Add persists a new point and refreshes the cached list.
func (c *Catalog) Add(point Point) error {
	if err := c.store.Add(point); err != nil {
		return err
	}

	return c.Reload()
}

// Update persists changes to an existing point and refreshes the cache.
func (c *Catalog) Update(point Point) error {
	if err := c.store.Update(point); err != nil {
		return err
	}

	return c.Reload()
}

// Delete removes a point and refreshes the cache.
func (c *Catalog) Delete(name string) error {
	if err := c.store.Delete(name); err != nil {
		return err
	}

	return c.Reload()
}

// Reorder rewrites the catalog order and refreshes the cache. Names not
// listed keep their relative order after the listed ones.
func (c *Catalog) Reorder(names []string) error {
	if err := c.store.Reorder(names); err != nil {
		return err
	}

	return c.Reload()
}

// CheckSafe validates a proposed write against the point's configured
// range. Unknown points are unsafe.
func (c *Catalog) CheckSafe(name string, value float64) (bool, string) {
	c.mu.RLock()
	p, ok := c.byName[name]
	c.mu.RUnlock()

	if !ok {
		return false, fmt.Sprintf("point %q is not in the catalog", name)
	}
	if p.MinVal != nil && value < *p.MinVal {
		return false, fmt.Sprintf("value %g below safe minimum %g for %s", value, *p.MinVal, name)
	}
	if p.MaxVal != nil && value > *p.MaxVal {
		return false, fmt.Sprintf("value %g above safe maximum %g for %s", value, *p.MaxVal, name)
	}

	return true, ""
}
