package ephem

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultCacheSize is the number of instants a Cached provider remembers.
const DefaultCacheSize = 64

// Cached memoizes another provider's sun and moon positions by instant.
// A paused or slow simulated clock re-applies the same instant many times;
// the cache turns those into map lookups. Safe for concurrent use.
type Cached struct {
	inner Provider
	size  int

	mu      sync.Mutex
	entries map[int64]*cachedPositions
	order   []int64 // insertion order, oldest first
	hits    uint64
	misses  uint64
}

// cachedPositions stores the positions computed for one instant.
type cachedPositions struct {
	sun, moon         mgl64.Vec3
	haveSun, haveMoon bool
}

// NewCached wraps p. A non-positive size selects DefaultCacheSize.
func NewCached(p Provider, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cached{
		inner:   p,
		size:    size,
		entries: make(map[int64]*cachedPositions, size),
	}
}

// Name implements Provider.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// SunPositionECEF implements Provider.
func (c *Cached) SunPositionECEF(t time.Time) mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(t)
	if !e.haveSun {
		c.misses++
		e.sun, e.haveSun = c.inner.SunPositionECEF(t), true
	} else {
		c.hits++
	}
	return e.sun
}

// MoonPositionECEF implements Provider.
func (c *Cached) MoonPositionECEF(t time.Time) mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(t)
	if !e.haveMoon {
		c.misses++
		e.moon, e.haveMoon = c.inner.MoonPositionECEF(t), true
	} else {
		c.hits++
	}
	return e.moon
}

// ECEFFromRADecl implements Provider. It is not cached.
func (c *Cached) ECEFFromRADecl(ra, decl, radius float64) mgl64.Vec3 {
	return c.inner.ECEFFromRADecl(ra, decl, radius)
}

// Stats returns the cache hit and miss counts. Safe to call from a
// metrics scrape while the sky is rendering.
func (c *Cached) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// entry returns the slot for t, evicting the oldest instant when full.
// Caller holds mu.
func (c *Cached) entry(t time.Time) *cachedPositions {
	key := t.UnixNano()
	if e, ok := c.entries[key]; ok {
		return e
	}

	if len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	e := &cachedPositions{}
	c.entries[key] = e
	c.order = append(c.order, key)
	return e
}
