package repositories

import (
	"context"
	"strings"

	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// AirlineRepository handles airline table operations
type AirlineRepository struct {
	db *gormlib.DB
}

func NewAirlineRepository(db *gormlib.DB) *AirlineRepository {
	return &AirlineRepository{db: db}
}

// FindLiveByCode returns up to two non-defunct airlines carrying code.
func (r *AirlineRepository) FindLiveByCode(ctx context.Context, kind models.CodeKind, code string) ([]gorm.Airline, error) {
	var airlines []gorm.Airline

	err := r.db.WithContext(ctx).
		Where("UPPER("+kind.Column()+") = ? AND is_defunct = ?", strings.ToUpper(code), false).
		Order("id ASC").
		Limit(2).
		Find(&airlines).Error

	if err != nil {
		return nil, err
	}
	return airlines, nil
}

func (r *AirlineRepository) FindByID(ctx context.Context, id uint) (*gorm.Airline, error) {
	var airline gorm.Airline

	err := r.db.WithContext(ctx).First(&airline, id).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &airline, nil
}

func (r *AirlineRepository) Create(ctx context.Context, airline *gorm.Airline) error {
	return r.db.WithContext(ctx).Create(airline).Error
}

func (r *AirlineRepository) BatchInsert(ctx context.Context, airlines []gorm.Airline) error {
	if len(airlines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(airlines, 100).Error
}

func (r *AirlineRepository) MarkDefunct(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&gorm.Airline{}).
		Where("id = ?", id).
		Update("is_defunct", true).Error
}

func (r *AirlineRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gorm.Airline{}).Count(&count).Error
	return count, err
}
