package dtos

import (
	"encoding/json"
	"time"
)

// AeroFlightsResponse is the body of GET /flights/{ident}
type AeroFlightsResponse struct {
	Flights  []json.RawMessage `json:"flights"`
	NumPages int               `json:"num_pages"`
}

type AeroAirport struct {
	Code     string `json:"code"`
	CodeICAO string `json:"code_icao"`
	CodeIATA string `json:"code_iata"`
	CodeLID  string `json:"code_lid"`
	Timezone string `json:"timezone"`
	Name     string `json:"name"`
	City     string `json:"city"`
}

// AeroFlight is one entry of AeroFlightsResponse.Flights
type AeroFlight struct {
	Ident          string       `json:"ident"`
	IdentICAO      string       `json:"ident_icao"`
	IdentIATA      string       `json:"ident_iata"`
	FAFlightID     string       `json:"fa_flight_id"`
	Operator       string       `json:"operator"`
	OperatorICAO   string       `json:"operator_icao"`
	OperatorIATA   string       `json:"operator_iata"`
	FlightNumber   string       `json:"flight_number"`
	Registration   string       `json:"registration"`
	AircraftType   string       `json:"aircraft_type"`
	Codeshares     []string     `json:"codeshares"`
	CodesharesIATA []string     `json:"codeshares_iata"`
	Origin         *AeroAirport `json:"origin"`
	Destination    *AeroAirport `json:"destination"`

	ProgressPercent *int   `json:"progress_percent"`
	Status          string `json:"status"`
	Cancelled       bool   `json:"cancelled"`
	Diverted        bool   `json:"diverted"`
	RouteDistance   *int   `json:"route_distance"`

	ScheduledOut *time.Time `json:"scheduled_out"`
	EstimatedOut *time.Time `json:"estimated_out"`
	ActualOut    *time.Time `json:"actual_out"`
	ScheduledOff *time.Time `json:"scheduled_off"`
	EstimatedOff *time.Time `json:"estimated_off"`
	ActualOff    *time.Time `json:"actual_off"`
	ScheduledOn  *time.Time `json:"scheduled_on"`
	EstimatedOn  *time.Time `json:"estimated_on"`
	ActualOn     *time.Time `json:"actual_on"`
	ScheduledIn  *time.Time `json:"scheduled_in"`
	EstimatedIn  *time.Time `json:"estimated_in"`
	ActualIn     *time.Time `json:"actual_in"`
}

// AeroPosition is one track point. Altitude is in hundreds of feet.
type AeroPosition struct {
	Longitude   float64   `json:"longitude"`
	Latitude    float64   `json:"latitude"`
	Altitude    float64   `json:"altitude"`
	Groundspeed int       `json:"groundspeed"`
	Heading     *int      `json:"heading"`
	Timestamp   time.Time `json:"timestamp"`
	UpdateType  string    `json:"update_type"`
}

// AeroTrack is the body of GET /flights/{id}/track
type AeroTrack struct {
	ActualDistance *int           `json:"actual_distance"`
	Positions      []AeroPosition `json:"positions"`
}

// AeroAirportInfo is the body of GET /airports/{id}
type AeroAirportInfo struct {
	AirportCode string   `json:"airport_code"`
	CodeICAO    string   `json:"code_icao"`
	CodeIATA    string   `json:"code_iata"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	CountryCode string   `json:"country_code"`
	Timezone    string   `json:"timezone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}
