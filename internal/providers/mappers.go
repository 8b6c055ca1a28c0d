package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/geometry"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/dtos"
)

// feetPerHundredToMeters converts AeroAPI altitudes (hundreds of feet).
const feetPerHundredToMeters = 30.48

// firstTime returns the first non-nil timestamp in preference order.
func firstTime(candidates ...*time.Time) *time.Time {
	for _, t := range candidates {
		if t != nil && !t.IsZero() {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

func invalidRecord(provider, reason string) *ProviderError {
	return &ProviderError{
		Code:    constants.ErrCodeInvalidDataFormat,
		Message: fmt.Sprintf("%s record %s", provider, reason),
	}
}

// MapAeroAPIFlight converts one AeroAPI flight object. Flights that have
// not reached their destination fail with ErrFlightInProgress and
// cancelled flights with ErrFlightCancelled.
func MapAeroAPIFlight(raw json.RawMessage) (models.CanonicalLeg, error) {
	var leg models.CanonicalLeg
	var f dtos.AeroFlight
	if err := json.Unmarshal(raw, &f); err != nil {
		return leg, newProviderError(constants.ErrCodeDecodeFailed, err)
	}

	if f.Cancelled {
		return leg, fmt.Errorf("%s: %w", f.FAFlightID, ErrFlightCancelled)
	}
	if f.ProgressPercent == nil || *f.ProgressPercent < 100 {
		return leg, fmt.Errorf("%s: %w", f.FAFlightID, ErrFlightInProgress)
	}
	if f.Origin == nil || f.Destination == nil {
		return leg, invalidRecord(constants.ProviderAeroAPI, "has no origin or destination")
	}

	// Gate times before wheels times, actual before estimated before scheduled.
	departure := firstTime(f.ActualOut, f.ActualOff, f.EstimatedOut, f.EstimatedOff, f.ScheduledOut, f.ScheduledOff)
	if departure == nil {
		return leg, invalidRecord(constants.ProviderAeroAPI, "has no departure time")
	}
	arrival := firstTime(f.ActualIn, f.ActualOn, f.EstimatedIn, f.EstimatedOn, f.ScheduledIn, f.ScheduledOn)

	marketing := models.CodeSet{ICAO: f.OperatorICAO, IATA: f.OperatorIATA}
	if marketing.IsZero() {
		marketing = models.AirlineCodes(f.Operator)
	}
	if marketing.IsZero() {
		return leg, invalidRecord(constants.ProviderAeroAPI, "has no operator")
	}

	number := f.FlightNumber
	if number == "" {
		number = strings.TrimLeft(f.IdentICAO, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	leg = models.CanonicalLeg{
		Marketing:     marketing,
		FlightNumber:  models.NormalizeFlightNumber(number),
		Origin:        aeroAirportCodes(f.Origin),
		Destination:   aeroAirportCodes(f.Destination),
		DepartureDate: models.DayStart(*departure),
		Departure:     departure,
		Arrival:       arrival,
		FAFlightID:    f.FAFlightID,
		RawPayload:    raw,
		AircraftType:  f.AircraftType,
		TailNumber:    f.Registration,
		Codeshares:    aeroCodeshares(f.Codeshares, f.CodesharesIATA),

		OriginSeed:      aeroAirportSeed(f.Origin),
		DestinationSeed: aeroAirportSeed(f.Destination),
		MarketingSeed:   &models.AirlineSeed{ICAO: marketing.ICAO, IATA: marketing.IATA},
	}
	if leg.Origin.IsZero() || leg.Destination.IsZero() {
		return models.CanonicalLeg{}, invalidRecord(constants.ProviderAeroAPI, "has an airport without codes")
	}
	return leg, nil
}

// aeroCodeshares pairs the ICAO and IATA codeshare lists, which AeroAPI
// returns in the same order. Unparseable entries are dropped.
func aeroCodeshares(icao, iata []string) []models.Designator {
	n := max(len(icao), len(iata))
	if n == 0 {
		return nil
	}
	paired := len(icao) == len(iata)
	out := make([]models.Designator, 0, n)
	for i := 0; i < n; i++ {
		var d models.Designator
		if i < len(icao) && (paired || len(icao) >= len(iata)) {
			d.Airline.ICAO, d.Number = splitDesignator(icao[i], 3)
		}
		if i < len(iata) && (paired || len(iata) > len(icao)) {
			var number string
			d.Airline.IATA, number = splitDesignator(iata[i], 2)
			if d.Number == "" {
				d.Number = number
			}
		}
		if d.Airline.IsZero() || d.Number == "" {
			continue
		}
		d.Number = models.NormalizeFlightNumber(d.Number)
		out = append(out, d)
	}
	return out
}

// splitDesignator cuts an ident such as "AAL6170" after the airline code.
func splitDesignator(ident string, codeLen int) (string, string) {
	ident = strings.ToUpper(strings.TrimSpace(ident))
	if len(ident) <= codeLen {
		return "", ""
	}
	return ident[:codeLen], ident[codeLen:]
}

func aeroAirportCodes(a *dtos.AeroAirport) models.CodeSet {
	codes := models.CodeSet{ICAO: a.CodeICAO, IATA: a.CodeIATA}
	if codes.IsZero() && a.Code != "" {
		codes = models.AirportCodes(a.Code)
	}
	return codes
}

func aeroAirportSeed(a *dtos.AeroAirport) *models.AirportSeed {
	codes := aeroAirportCodes(a)
	return &models.AirportSeed{
		ICAO:     codes.ICAO,
		IATA:     codes.IATA,
		Name:     a.Name,
		City:     a.City,
		Timezone: a.Timezone,
	}
}

// MapHistorianFlight converts one Flight Historian recent flight. The
// operating carrier is only recorded when it differs from the airline.
func MapHistorianFlight(raw json.RawMessage) (models.CanonicalLeg, error) {
	var leg models.CanonicalLeg
	var f dtos.HistorianFlight
	if err := json.Unmarshal(raw, &f); err != nil {
		return leg, newProviderError(constants.ErrCodeDecodeFailed, err)
	}
	if f.FHID == nil {
		return leg, invalidRecord(constants.ProviderHistorian, "has no fh_id")
	}
	if f.DepartureUTC == nil || f.DepartureUTC.IsZero() {
		return leg, invalidRecord(constants.ProviderHistorian, "has no departure time")
	}

	departure := f.DepartureUTC.UTC()
	leg = models.CanonicalLeg{
		Marketing:     models.CodeSet{ICAO: f.AirlineICAO, IATA: f.AirlineIATA},
		FlightNumber:  models.NormalizeFlightNumber(f.FlightNumber),
		Origin:        models.CodeSet{ICAO: f.OriginICAO, IATA: f.OriginIATA},
		Destination:   models.CodeSet{ICAO: f.DestinationICAO, IATA: f.DestinationIATA},
		DepartureDate: models.DayStart(departure),
		Departure:     &departure,
		Arrival:       firstTime(f.ArrivalUTC),
		FAFlightID:    f.FAFlightID,
		FHID:          f.FHID,
		RawPayload:    raw,
		AircraftType:  f.AircraftType,
		TailNumber:    f.TailNumber,
	}
	if operator := (models.CodeSet{ICAO: f.OperatorICAO, IATA: f.OperatorIATA}); !operator.IsZero() && !operator.Matches(leg.Marketing) {
		leg.Operating = operator
	}

	switch {
	case leg.Marketing.IsZero():
		return models.CanonicalLeg{}, invalidRecord(constants.ProviderHistorian, "has no airline")
	case leg.Origin.IsZero(), leg.Destination.IsZero():
		return models.CanonicalLeg{}, invalidRecord(constants.ProviderHistorian, "has an airport without codes")
	}
	return leg, nil
}

// ApplyAeroAPITrack attaches a flown track to leg. The track is split
// where it crosses the antimeridian and altitudes are stored in metres.
// The provider's flown distance wins over the distance along the track.
func ApplyAeroAPITrack(leg *models.CanonicalLeg, track *dtos.AeroTrack) {
	if track == nil || len(track.Positions) < 2 {
		return
	}
	points := make([]geometry.TrackPoint, 0, len(track.Positions))
	for _, p := range track.Positions {
		points = append(points, geometry.TrackPoint{
			Lon:  p.Longitude,
			Lat:  p.Latitude,
			AltM: p.Altitude * feetPerHundredToMeters,
		})
	}

	leg.Track = geometry.SplitAtAntimeridian(points)
	leg.GeomSource = constants.ProviderAeroAPI
	distance := geometry.LineDistanceMiles(leg.Track)
	if track.ActualDistance != nil && *track.ActualDistance > 0 {
		distance = *track.ActualDistance
	}
	leg.DistanceMi = &distance
}

// AirportSeedFiller completes airport seeds with AeroAPI airport metadata.
// Lookup failures leave the seed as it was.
func AirportSeedFiller(p FlightLookupProvider) func(ctx context.Context, seed models.AirportSeed) models.AirportSeed {
	return func(ctx context.Context, seed models.AirportSeed) models.AirportSeed {
		code := seed.ICAO
		if code == "" {
			code = seed.IATA
		}
		if p == nil || code == "" {
			return seed
		}
		info, _, err := p.GetAirport(ctx, code)
		if err != nil {
			logging.Warn("Airport lookup failed", "code", code, "error", err)
			return seed
		}
		if seed.Latitude == nil || seed.Longitude == nil {
			seed.Latitude, seed.Longitude = info.Latitude, info.Longitude
		}
		if seed.ICAO == "" {
			seed.ICAO = info.CodeICAO
		}
		if seed.IATA == "" {
			seed.IATA = info.CodeIATA
		}
		if seed.Name == "" {
			seed.Name = info.Name
		}
		if seed.City == "" {
			seed.City = info.City
		}
		if seed.Country == "" {
			seed.Country = info.CountryCode
		}
		if seed.Timezone == "" {
			seed.Timezone = info.Timezone
		}
		return seed
	}
}
