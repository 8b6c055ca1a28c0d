package api

import (
	"time"

	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/db/repositories"
)

// Handlers serves the read-only flight log API.
type Handlers struct {
	store   *db.Store
	flights *repositories.FlightRepository
	routes  *repositories.RouteRepository
	upSince time.Time
}

func NewHandlers(store *db.Store, upSince time.Time) *Handlers {
	return &Handlers{
		store:   store,
		flights: repositories.NewFlightRepository(store.DB()),
		routes:  repositories.NewRouteRepository(store.DB()),
		upSince: upSince,
	}
}
