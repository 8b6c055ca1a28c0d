package api

import (
	"net/http"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/models/dtos/responses"
	"infinite-experiment/flightlog/internal/models/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ListFlights handles GET /flights?limit=&offset=, newest first.
func (h *Handlers) ListFlights() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, okLimit := queryInt(r, "limit", defaultPageSize)
		offset, okOffset := queryInt(r, "offset", 0)
		if !okLimit || !okOffset {
			respondWithError(w, r, http.StatusBadRequest, "limit and offset must be non-negative integers")
			return
		}
		if limit == 0 || limit > maxPageSize {
			limit = maxPageSize
		}

		flights, err := h.flights.List(r.Context(), limit, offset)
		if err != nil {
			logging.Error("Failed to list flights", "error", err)
			respondWithError(w, r, http.StatusInternalServerError, "failed to load flights")
			return
		}
		total, err := h.flights.Count(r.Context())
		if err != nil {
			logging.Error("Failed to count flights", "error", err)
			respondWithError(w, r, http.StatusInternalServerError, "failed to load flights")
			return
		}

		resp := responses.FlightListResponse{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			Flights: make([]responses.FlightView, 0, len(flights)),
		}
		for i := range flights {
			resp.Flights = append(resp.Flights, flightView(&flights[i]))
		}
		respondWithSuccess(w, r, http.StatusOK, &resp)
	}
}

// FlightsGeoJSON handles GET /flights.geojson: every flown track as a
// MultiLineString feature. Flights without a track are left out.
func (h *Handlers) FlightsGeoJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flights, err := h.flights.All(r.Context())
		if err != nil {
			logging.Error("Failed to load flights", "error", err)
			respondWithError(w, r, http.StatusInternalServerError, "failed to load flights")
			return
		}

		fc := geojson.NewFeatureCollection()
		for _, f := range flights {
			if len(f.Geometry) == 0 {
				continue
			}
			feature := geojson.NewFeature(f.Geometry.MultiLineString())
			feature.ID = f.ID
			feature.Properties["departure_utc"] = f.DepartureUTC.UTC()
			feature.Properties["flight_number"] = f.FlightNumber
			if f.GeomSource != nil {
				feature.Properties["geom_source"] = *f.GeomSource
			}
			if f.DistanceMi != nil {
				feature.Properties["distance_mi"] = *f.DistanceMi
			}
			fc.Append(feature)
		}
		writeJSON(w, http.StatusOK, "application/geo+json", fc)
	}
}

func flightView(f *gorm.Flight) responses.FlightView {
	v := responses.FlightView{
		ID:               f.ID,
		DepartureUTC:     f.DepartureUTC.UTC(),
		ArrivalUTC:       f.ArrivalUTC,
		FlightNumber:     f.FlightNumber,
		DistanceMi:       f.DistanceMi,
		FHID:             f.FHID,
		HasTrack:         len(f.Geometry) > 0,
		FromBoardingPass: f.BoardingPassData != nil,
	}
	if f.Airline != nil {
		v.Airline = f.Airline.Code()
	}
	if f.Operator != nil && f.OperatorID != f.AirlineID {
		v.Operator = f.Operator.Code()
	}
	if f.CodeshareAirline != nil && f.CodeshareFlightNumber != nil {
		v.Codeshare = f.CodeshareAirline.Code() + *f.CodeshareFlightNumber
	}
	if f.OriginAirport != nil {
		v.Origin = f.OriginAirport.Code()
	}
	if f.DestinationAirport != nil {
		v.Destination = f.DestinationAirport.Code()
	}
	if f.AircraftType != nil {
		v.AircraftType = *f.AircraftType
	}
	if f.TailNumber != nil {
		v.TailNumber = *f.TailNumber
	}
	if f.FAFlightID != nil {
		v.FAFlightID = *f.FAFlightID
	}
	return v
}
