package resolvercore

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// valueCache holds resolved scalars keyed by ResolutionKey. Keys are
// write-once per session: once a value lands in the map it is never
// overwritten, which is what makes the "stable within one top-level
// call" invariant (spec §3) trivial to uphold.
//
// The in-flight dedup map from spec §4.6 is a singleflight.Group keyed
// by the ResolutionKey's string form — a second arrival on a key that's
// already being computed calls Group.Do with the same key and blocks on
// the first caller's result rather than starting a redundant resolution.
type valueCache struct {
	mu     sync.RWMutex
	values map[ResolutionKey]Scalar
	group  singleflight.Group
	hits   int
}

func newValueCache() *valueCache {
	return &valueCache{values: map[ResolutionKey]Scalar{}}
}

func (c *valueCache) get(key ResolutionKey) (Scalar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	if ok {
		c.hits++
	}
	return v, ok
}

// resolveOnce runs compute once per key and caches a successful result
// for the lifetime of the session; concurrent callers on the same key
// share one computation and observe the same result. A failed compute is
// not cached, so a later call on that key runs compute again.
func (c *valueCache) resolveOnce(key ResolutionKey, compute func() (Scalar, error)) (Scalar, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}
	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		// re-check under the group: another goroutine may have already
		// populated the cache between our first get() and entering Do.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return Empty, err
	}
	return result.(Scalar), nil
}
