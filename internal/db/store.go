package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Store owns the connection to one flight log and its writer lock. Every
// mutation (ingest, route rebuild) runs through Write or Transaction so at
// most one writer touches the log at a time; reads use DB directly.
type Store struct {
	db   *gorm.DB
	lock chan struct{}
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, lock: make(chan struct{}, 1)}
}

// DB returns the underlying handle for reads.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.lock
}

// Write runs fn while holding the writer lock. Waiting for the lock honours ctx.
func (s *Store) Write(ctx context.Context, fn func(db *gorm.DB) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	return fn(s.db.WithContext(ctx))
}

// Transaction runs fn inside a database transaction while holding the writer lock.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("flight log unreachable: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
