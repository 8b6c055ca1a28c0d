package common

import (
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheInterface is the cache shared by the code registry and the AeroAPI
// client. Values must survive a JSON round trip because the Redis backend
// stores them as JSON: use strings, numbers or plain structs.
type CacheInterface interface {
	Set(key string, value interface{}, ttl time.Duration)
	Get(key string) (interface{}, bool)
	Delete(key string)

	// GetOrSet returns the cached value for key or stores what load
	// returns. Concurrent callers missing the same key share one load.
	// Failed loads are not cached.
	GetOrSet(key string, ttl time.Duration, load func() (any, error)) (interface{}, error)

	Close() error
}

// loadGroup implements GetOrSet on top of Get and Set.
type loadGroup struct {
	group singleflight.Group
}

func (g *loadGroup) getOrSet(c CacheInterface, key string, ttl time.Duration, load func() (any, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the key while we waited.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	return v, err
}

// AsUint reads back an id stored in a cache. Redis hands numbers back as float64.
func AsUint(v interface{}) (uint, bool) {
	switch n := v.(type) {
	case uint:
		return n, true
	case int:
		return uint(n), n >= 0
	case int64:
		return uint(n), n >= 0
	case float64:
		return uint(n), n >= 0
	default:
		return 0, false
	}
}
