package dtos

import "time"

// HistorianFlight is one entry of Flight Historian's recent_flights list
type HistorianFlight struct {
	FHID            *int64     `json:"fh_id"`
	FAFlightID      string     `json:"fa_flight_id"`
	AirlineICAO     string     `json:"airline_icao"`
	AirlineIATA     string     `json:"airline_iata"`
	FlightNumber    string     `json:"flight_number"`
	OperatorICAO    string     `json:"operator_icao"`
	OperatorIATA    string     `json:"operator_iata"`
	OriginICAO      string     `json:"origin_icao"`
	OriginIATA      string     `json:"origin_iata"`
	DestinationICAO string     `json:"destination_icao"`
	DestinationIATA string     `json:"destination_iata"`
	DepartureUTC    *time.Time `json:"departure_utc"`
	ArrivalUTC      *time.Time `json:"arrival_utc"`
	TailNumber      string     `json:"tail_number"`
	AircraftType    string     `json:"aircraft_type"`
}
