package common

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_GetOrSet(t *testing.T) {
	cache := NewCacheService(time.Minute, time.Minute)
	defer cache.Close()

	calls := 0
	loader := func() (any, error) {
		calls++
		return "payload", nil
	}

	v, err := cache.GetOrSet("k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	v, err = cache.GetOrSet("k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
	assert.Equal(t, 1, calls)

	_, err = cache.GetOrSet("bad", time.Minute, func() (any, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	_, found := cache.Get("bad")
	assert.False(t, found)

	cache.Delete("k")
	_, found = cache.Get("k")
	assert.False(t, found)
}

func TestAsUint(t *testing.T) {
	for _, v := range []interface{}{uint(7), 7, int64(7), float64(7)} {
		n, ok := AsUint(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, uint(7), n)
	}
	_, ok := AsUint("7")
	assert.False(t, ok)
	_, ok = AsUint(-1)
	assert.False(t, ok)
}

func TestNewRedisCacheService_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCacheService(ctx, "127.0.0.1:1", "")
	assert.Error(t, err)
}

func TestCacheService_GetOrSetSharesConcurrentLoads(t *testing.T) {
	cache := NewCacheService(time.Minute, time.Minute)
	defer cache.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (any, error) {
		calls.Add(1)
		<-release
		return "KBOS", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetOrSet("AIRPORT_icao:KBOS", time.Minute, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	// Give every goroutine time to block on the shared load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "KBOS", v)
	}
	assert.Equal(t, 1, cache.Len())
}
