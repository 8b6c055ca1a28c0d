package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	gormModels "infinite-experiment/flightlog/internal/models/gorm"
)

func setupTestStore(t *testing.T) *Store {
	store, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_MigrateAndPing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	for _, table := range []string{"airports", "airlines", "flights", "routes"} {
		assert.True(t, store.DB().Migrator().HasTable(table), table)
	}
}

func TestStore_WriteIsExclusive(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Write(ctx, func(db *gorm.DB) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestStore_WriteHonoursCancelledContext(t *testing.T) {
	store := setupTestStore(t)

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = store.Write(context.Background(), func(db *gorm.DB) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := store.Write(ctx, func(db *gorm.DB) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	iata := "JFK"

	err := store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&gormModels.Airport{IATACode: &iata, Name: "Kennedy"}).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, store.DB().Model(&gormModels.Airport{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, isPostgresDSN("postgres://u:p@localhost/flights"))
	assert.True(t, isPostgresDSN("postgresql://localhost/flights"))
	assert.False(t, isPostgresDSN("/home/me/flight_log.sqlite"))
	assert.False(t, isPostgresDSN(":memory:"))
}
