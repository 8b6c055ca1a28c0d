package common

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CacheService keeps entries in process memory. It is the default when no
// Redis address is configured, so entries last for one command run.
type CacheService struct {
	items *gocache.Cache
	loads loadGroup
}

var _ CacheInterface = (*CacheService)(nil)

// NewCacheService creates a cache whose entries default to ttl and are
// swept every cleanup.
func NewCacheService(ttl, cleanup time.Duration) *CacheService {
	return &CacheService{items: gocache.New(ttl, cleanup)}
}

func (c *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	c.items.Set(key, value, ttl)
}

func (c *CacheService) Get(key string) (interface{}, bool) {
	return c.items.Get(key)
}

func (c *CacheService) Delete(key string) {
	c.items.Delete(key)
}

func (c *CacheService) GetOrSet(key string, ttl time.Duration, load func() (any, error)) (interface{}, error) {
	return c.loads.getOrSet(c, key, ttl, load)
}

// Len is the number of entries, expired ones included until swept.
func (c *CacheService) Len() int {
	return c.items.ItemCount()
}

// Flush drops every entry.
func (c *CacheService) Flush() {
	c.items.Flush()
}

func (c *CacheService) Close() error {
	c.items.Flush()
	return nil
}
