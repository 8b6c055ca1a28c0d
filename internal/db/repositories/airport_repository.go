package repositories

import (
	"context"
	"strings"

	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// AirportRepository handles airport table operations
type AirportRepository struct {
	db *gormlib.DB
}

// NewAirportRepository creates a new airport repository
func NewAirportRepository(db *gormlib.DB) *AirportRepository {
	return &AirportRepository{db: db}
}

// WithDB returns a copy bound to db, typically a transaction.
func (r *AirportRepository) WithDB(db *gormlib.DB) *AirportRepository {
	return &AirportRepository{db: db}
}

// FindLiveByCode returns non-defunct airports carrying code (case-insensitive).
// At most two rows are loaded; callers only need to tell one from many.
func (r *AirportRepository) FindLiveByCode(ctx context.Context, kind models.CodeKind, code string) ([]gorm.Airport, error) {
	var airports []gorm.Airport

	err := r.db.WithContext(ctx).
		Where("UPPER("+kind.Column()+") = ? AND is_defunct = ?", strings.ToUpper(code), false).
		Order("id ASC").
		Limit(2).
		Find(&airports).Error

	if err != nil {
		return nil, err
	}
	return airports, nil
}

// FindByID returns nil when the airport does not exist
func (r *AirportRepository) FindByID(ctx context.Context, id uint) (*gorm.Airport, error) {
	var airport gorm.Airport

	err := r.db.WithContext(ctx).First(&airport, id).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &airport, nil
}

// FindByIDs loads airports keyed by id
func (r *AirportRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]gorm.Airport, error) {
	out := make(map[uint]gorm.Airport, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var airports []gorm.Airport
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&airports).Error; err != nil {
		return nil, err
	}
	for _, a := range airports {
		out[a.ID] = a
	}
	return out, nil
}

func (r *AirportRepository) Create(ctx context.Context, airport *gorm.Airport) error {
	if err := airport.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(airport).Error
}

// BatchInsert inserts multiple airports
func (r *AirportRepository) BatchInsert(ctx context.Context, airports []gorm.Airport) error {
	if len(airports) == 0 {
		return nil
	}
	for i := range airports {
		if err := airports[i].Validate(); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).
		CreateInBatches(airports, 100).Error
}

// MarkDefunct retires an airport so its codes can be reused
func (r *AirportRepository) MarkDefunct(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&gorm.Airport{}).
		Where("id = ?", id).
		Update("is_defunct", true).Error
}

// Count returns total number of airports
func (r *AirportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gorm.Airport{}).Count(&count).Error
	return count, err
}
