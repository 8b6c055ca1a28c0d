package gorm

import (
	"time"

	"infinite-experiment/flightlog/internal/geometry"
)

// Route aggregates every flight between an unordered airport pair.
// Airport1 is the origin of the earliest flight in the group.
type Route struct {
	ID          uint                `gorm:"column:id;primaryKey;autoIncrement"`
	Airport1ID  uint                `gorm:"column:airport1_id;not null;index"`
	Airport2ID  uint                `gorm:"column:airport2_id;not null;index"`
	FlightCount int                 `gorm:"column:flight_count;not null"`
	DistanceMi  int                 `gorm:"column:distance_mi;not null"`
	Geometry    geometry.LineString `gorm:"column:geometry"`
	SyncedAt    time.Time           `gorm:"column:synced_at;autoCreateTime"`

	Airport1 *Airport `gorm:"foreignKey:Airport1ID"`
	Airport2 *Airport `gorm:"foreignKey:Airport2ID"`
}

func (Route) TableName() string {
	return "routes"
}
