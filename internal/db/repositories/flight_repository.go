package repositories

import (
	"context"
	"time"

	"infinite-experiment/flightlog/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// FlightRepository handles flights table operations
type FlightRepository struct {
	db *gormlib.DB
}

func NewFlightRepository(db *gormlib.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// WithDB returns a copy bound to db, typically a transaction.
func (r *FlightRepository) WithDB(db *gormlib.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// FindByProviderID matches on a provider identifier. Empty identifiers never match.
func (r *FlightRepository) FindByProviderID(ctx context.Context, faFlightID string, fhID *int64) (*gorm.Flight, error) {
	if faFlightID == "" && fhID == nil {
		return nil, nil
	}

	q := r.db.WithContext(ctx)
	switch {
	case faFlightID != "" && fhID != nil:
		q = q.Where("fa_flight_id = ? OR fh_id = ?", faFlightID, *fhID)
	case faFlightID != "":
		q = q.Where("fa_flight_id = ?", faFlightID)
	default:
		q = q.Where("fh_id = ?", *fhID)
	}

	var flight gorm.Flight
	if err := q.Order("id ASC").First(&flight).Error; err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &flight, nil
}

// FindByDesignatorDay matches marketing airline, flight number and the UTC
// calendar day starting at dayStart.
func (r *FlightRepository) FindByDesignatorDay(ctx context.Context, airlineID uint, flightNumber string, dayStart time.Time) (*gorm.Flight, error) {
	var flight gorm.Flight

	err := r.db.WithContext(ctx).
		Where("airline_id = ? AND flight_number = ?", airlineID, flightNumber).
		Where("departure_utc >= ? AND departure_utc < ?", dayStart, dayStart.Add(24*time.Hour)).
		Order("id ASC").
		First(&flight).Error

	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &flight, nil
}

func (r *FlightRepository) Create(ctx context.Context, flight *gorm.Flight) error {
	if err := flight.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(flight).Error
}

// All returns every flight ordered by departure, without associations.
func (r *FlightRepository) All(ctx context.Context) ([]gorm.Flight, error) {
	var flights []gorm.Flight

	err := r.db.WithContext(ctx).
		Omit("fa_json").
		Order("departure_utc ASC, id ASC").
		Find(&flights).Error

	return flights, err
}

// List returns a page of flights with airlines and airports preloaded, newest first.
func (r *FlightRepository) List(ctx context.Context, limit, offset int) ([]gorm.Flight, error) {
	var flights []gorm.Flight

	err := r.db.WithContext(ctx).
		Preload("Airline").
		Preload("Operator").
		Preload("CodeshareAirline").
		Preload("OriginAirport").
		Preload("DestinationAirport").
		Omit("fa_json").
		Order("departure_utc DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&flights).Error

	return flights, err
}

func (r *FlightRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gorm.Flight{}).Count(&count).Error
	return count, err
}
