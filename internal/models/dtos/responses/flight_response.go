package responses

import "time"

// FlightView is one logged flight as served by GET /flights.
type FlightView struct {
	ID               uint       `json:"id"`
	DepartureUTC     time.Time  `json:"departure_utc"`
	ArrivalUTC       *time.Time `json:"arrival_utc,omitempty"`
	Airline          string     `json:"airline"`
	FlightNumber     string     `json:"flight_number"`
	Operator         string     `json:"operator,omitempty"`
	Codeshare        string     `json:"codeshare,omitempty"`
	Origin           string     `json:"origin"`
	Destination      string     `json:"destination"`
	AircraftType     string     `json:"aircraft_type,omitempty"`
	TailNumber       string     `json:"tail_number,omitempty"`
	DistanceMi       *int       `json:"distance_mi,omitempty"`
	FAFlightID       string     `json:"fa_flight_id,omitempty"`
	FHID             *int64     `json:"fh_id,omitempty"`
	HasTrack         bool       `json:"has_track"`
	FromBoardingPass bool       `json:"from_boarding_pass"`
}

type FlightListResponse struct {
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
	Flights []FlightView `json:"flights"`
}
