package workers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_PreservesInputOrder(t *testing.T) {
	pool := NewLookupPool(3)
	inputs := []int{5, 1, 4, 2, 3}

	results := Lookup(context.Background(), pool, inputs, func(_ context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("leg-%d", n), nil
	})

	require.Len(t, results, len(inputs))
	for i, n := range inputs {
		require.NoError(t, results[i].Err)
		assert.Equal(t, fmt.Sprintf("leg-%d", n), results[i].Value)
	}
}

func TestLookup_BoundsConcurrency(t *testing.T) {
	pool := NewLookupPool(2)
	var running, peak int32

	Lookup(context.Background(), pool, make([]int, 10), func(context.Context, int) (struct{}, error) {
		now := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(1))
}

func TestLookup_ErrorsStayPerItem(t *testing.T) {
	boom := errors.New("boom")
	results := Lookup(context.Background(), NewLookupPool(0), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 10, nil
	})

	assert.Equal(t, 10, results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, 30, results[2].Value)
}

func TestLookup_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	results := Lookup(ctx, NewLookupPool(2), []int{1, 2, 3}, func(context.Context, int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, nil
	})

	assert.Zero(t, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestNewLookupPool_Default(t *testing.T) {
	assert.Equal(t, DefaultLookupConcurrency, NewLookupPool(-1).Concurrency())
}
