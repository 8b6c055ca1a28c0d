package gorm

import (
	"errors"
	"time"

	"gorm.io/datatypes"

	"infinite-experiment/flightlog/internal/geometry"
)

var (
	ErrIncompleteCodeshare = errors.New("codeshare airline and codeshare flight number must both be set or both be empty")
	ErrMissingDeparture    = errors.New("flight departure time is required")
)

// Flight is one flown leg.
type Flight struct {
	ID                    uint           `gorm:"column:id;primaryKey;autoIncrement"`
	DepartureUTC          time.Time      `gorm:"column:departure_utc;not null;index"`
	ArrivalUTC            *time.Time     `gorm:"column:arrival_utc"`
	AirlineID             uint           `gorm:"column:airline_id;not null;index"`
	FlightNumber          string         `gorm:"column:flight_number;type:varchar(8)"`
	OriginAirportID       uint           `gorm:"column:origin_airport_id;not null;index"`
	DestinationAirportID  uint           `gorm:"column:destination_airport_id;not null;index"`
	OperatorID            uint           `gorm:"column:operator_id;not null"`
	CodeshareAirlineID    *uint          `gorm:"column:codeshare_airline_id"`
	CodeshareFlightNumber *string        `gorm:"column:codeshare_flight_number;type:varchar(8)"`
	FAFlightID            *string        `gorm:"column:fa_flight_id;type:varchar(64);index"`
	FHID                  *int64         `gorm:"column:fh_id;index"`
	FAJSON                datatypes.JSON `gorm:"column:fa_json"`
	AircraftType          *string        `gorm:"column:aircraft_type;type:varchar(8)"`
	TailNumber            *string        `gorm:"column:tail_number;type:varchar(16)"`
	BoardingPassData      *string        `gorm:"column:boarding_pass_data;type:text"`
	GeomSource            *string        `gorm:"column:geom_source;type:varchar(32)"`
	DistanceMi            *int           `gorm:"column:distance_mi"`
	Geometry              geometry.Track `gorm:"column:geometry"`
	Comments              *string        `gorm:"column:comments;type:text"`
	CreatedAt             time.Time      `gorm:"column:created_at;autoCreateTime"`

	Airline            *Airline `gorm:"foreignKey:AirlineID"`
	Operator           *Airline `gorm:"foreignKey:OperatorID"`
	CodeshareAirline   *Airline `gorm:"foreignKey:CodeshareAirlineID"`
	OriginAirport      *Airport `gorm:"foreignKey:OriginAirportID"`
	DestinationAirport *Airport `gorm:"foreignKey:DestinationAirportID"`
}

func (Flight) TableName() string {
	return "flights"
}

func (f *Flight) Validate() error {
	if f.DepartureUTC.IsZero() {
		return ErrMissingDeparture
	}
	if (f.CodeshareAirlineID == nil) != (f.CodeshareFlightNumber == nil) {
		return ErrIncompleteCodeshare
	}
	return nil
}
