package repositories

import (
	"context"

	"infinite-experiment/flightlog/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// RouteRepository handles routes table operations
type RouteRepository struct {
	db *gormlib.DB
}

func NewRouteRepository(db *gormlib.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// WithDB returns a copy bound to db, typically a transaction.
func (r *RouteRepository) WithDB(db *gormlib.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// ReplaceAll deletes every route and inserts routes. Run it inside a
// transaction so readers never observe a half-built table.
func (r *RouteRepository) ReplaceAll(ctx context.Context, routes []gorm.Route) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("1 = 1").Delete(&gorm.Route{}).Error; err != nil {
		return err
	}
	if len(routes) == 0 {
		return nil
	}
	return db.CreateInBatches(routes, 100).Error
}

// All returns every route with both airports preloaded
func (r *RouteRepository) All(ctx context.Context) ([]gorm.Route, error) {
	var routes []gorm.Route

	err := r.db.WithContext(ctx).
		Preload("Airport1").
		Preload("Airport2").
		Order("id ASC").
		Find(&routes).Error

	return routes, err
}

func (r *RouteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gorm.Route{}).Count(&count).Error
	return count, err
}
