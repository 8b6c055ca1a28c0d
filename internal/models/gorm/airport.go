package gorm

import (
	"errors"
	"time"
)

var ErrAirportWithoutCode = errors.New("airport needs an IATA or ICAO code")

// Airport represents an airport record with geographic coordinates
type Airport struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	IATACode  *string   `gorm:"column:iata_code;type:varchar(3);index"`
	ICAOCode  *string   `gorm:"column:icao_code;type:varchar(4);index"`
	Name      string    `gorm:"column:name;type:text"`
	City      string    `gorm:"column:city;type:varchar(100)"`
	Country   string    `gorm:"column:country;type:varchar(2)"`
	Timezone  string    `gorm:"column:timezone;type:varchar(50)"`
	Latitude  *float64  `gorm:"column:latitude"`
	Longitude *float64  `gorm:"column:longitude"`
	IsDefunct bool      `gorm:"column:is_defunct;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Airport) TableName() string {
	return "airports"
}

func (a *Airport) Validate() error {
	if a.IATACode == nil && a.ICAOCode == nil {
		return ErrAirportWithoutCode
	}
	return nil
}

// HasCoordinates reports whether both latitude and longitude are known.
func (a *Airport) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Code returns the most specific code for display.
func (a *Airport) Code() string {
	if a.IATACode != nil {
		return *a.IATACode
	}
	if a.ICAOCode != nil {
		return *a.ICAOCode
	}
	return ""
}
