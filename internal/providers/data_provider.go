package providers

import (
	"context"
	"encoding/json"

	"infinite-experiment/flightlog/internal/models/dtos"
)

// Identifier kinds accepted by FlightLookupProvider.GetFlights
const (
	IdentTypeDesignator = "designator"
	IdentTypeFAFlightID = "fa_flight_id"
)

// FlightLookupProvider looks flights up by identifier or by carrier and number.
// Every method also returns the HTTP status of the last provider response.
type FlightLookupProvider interface {
	GetFlights(ctx context.Context, ident, identType string) ([]json.RawMessage, int, error)
	GetTrack(ctx context.Context, faFlightID string) (*dtos.AeroTrack, int, error)
	GetAirport(ctx context.Context, code string) (*dtos.AeroAirportInfo, int, error)
	GetProviderType() string
}

// RecentFlightsProvider lists the account's recently completed flights.
// Windows of successive calls may overlap.
type RecentFlightsProvider interface {
	GetRecentFlights(ctx context.Context) ([]json.RawMessage, int, error)
	GetProviderType() string
}
