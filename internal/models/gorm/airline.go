package gorm

import "time"

// Airline is a carrier. Marketing-only brands own no aircraft.
type Airline struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string    `gorm:"column:name;type:text"`
	ICAOCode        string    `gorm:"column:icao_code;type:varchar(3);index"`
	IATACode        *string   `gorm:"column:iata_code;type:varchar(2);index"`
	NumericCode     *string   `gorm:"column:numeric_code;type:varchar(3)"`
	IsMarketingOnly bool      `gorm:"column:is_marketing_only;not null;default:false"`
	IsDefunct       bool      `gorm:"column:is_defunct;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Airline) TableName() string {
	return "airlines"
}

func (a *Airline) Code() string {
	if a.IATACode != nil {
		return *a.IATACode
	}
	return a.ICAOCode
}
