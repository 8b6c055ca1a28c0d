package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"
	gormlib "gorm.io/gorm"

	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/db/repositories"
	"infinite-experiment/flightlog/internal/geometry"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/metrics"
	"infinite-experiment/flightlog/internal/models/gorm"
)

// SkippedPair is an airport pair that produced no route row.
type SkippedPair struct {
	Airport1ID uint
	Airport2ID uint
	Reason     string
}

// RouteSet is the result of one rebuild.
type RouteSet struct {
	Routes  []gorm.Route
	Skipped []SkippedPair
}

// RouteService derives the routes table from the flights table.
type RouteService struct {
	store   *db.Store
	opts    geometry.GreatCircleOptions
	metrics *metrics.MetricsRegistry
}

func NewRouteService(store *db.Store, opts geometry.GreatCircleOptions, m *metrics.MetricsRegistry) *RouteService {
	return &RouteService{store: store, opts: opts, metrics: m}
}

type airportPair struct{ lo, hi uint }

func pairOf(a, b uint) airportPair {
	if a > b {
		a, b = b, a
	}
	return airportPair{a, b}
}

// BuildRoutes groups flights by unordered airport pair and draws one great
// circle per pair, oriented like the earliest flight of the pair. Pairs
// with an airport lacking coordinates, or with antipodal airports, are
// reported in Skipped.
func (s *RouteService) BuildRoutes(flights []gorm.Flight, airports map[uint]gorm.Airport) RouteSet {
	sorted := make([]gorm.Flight, len(flights))
	copy(sorted, flights)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].DepartureUTC.Equal(sorted[j].DepartureUTC) {
			return sorted[i].DepartureUTC.Before(sorted[j].DepartureUTC)
		}
		return sorted[i].ID < sorted[j].ID
	})

	type group struct {
		from, to uint
		count    int
	}
	var order []airportPair
	groups := make(map[airportPair]*group)
	for _, f := range sorted {
		key := pairOf(f.OriginAirportID, f.DestinationAirportID)
		g, ok := groups[key]
		if !ok {
			g = &group{from: f.OriginAirportID, to: f.DestinationAirportID}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
	}

	var set RouteSet
	for _, key := range order {
		g := groups[key]
		from, okFrom := airports[g.from]
		to, okTo := airports[g.to]
		if !okFrom || !okTo || !from.HasCoordinates() || !to.HasCoordinates() {
			set.Skipped = append(set.Skipped, SkippedPair{Airport1ID: g.from, Airport2ID: g.to, Reason: "airport has no coordinates"})
			continue
		}

		a := orb.Point{*from.Longitude, *from.Latitude}
		b := orb.Point{*to.Longitude, *to.Latitude}
		line, err := geometry.GreatCircle(a, b, s.opts)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, geometry.ErrAntipodal) {
				reason = "airports are antipodal"
			}
			set.Skipped = append(set.Skipped, SkippedPair{Airport1ID: g.from, Airport2ID: g.to, Reason: reason})
			continue
		}

		set.Routes = append(set.Routes, gorm.Route{
			Airport1ID:  g.from,
			Airport2ID:  g.to,
			FlightCount: g.count,
			DistanceMi:  geometry.DistanceMiles(a, b),
			Geometry:    geometry.LineString(line),
		})
	}
	return set
}

// RebuildRoutes replaces the routes table in one transaction under the
// store's writer lock.
func (s *RouteService) RebuildRoutes(ctx context.Context) (RouteSet, error) {
	started := time.Now()
	var set RouteSet

	err := s.store.Transaction(ctx, func(tx *gormlib.DB) error {
		flights, err := repositories.NewFlightRepository(tx).All(ctx)
		if err != nil {
			return fmt.Errorf("failed to load flights: %w", err)
		}

		ids := make([]uint, 0, 2*len(flights))
		seen := make(map[uint]bool)
		for _, f := range flights {
			for _, id := range []uint{f.OriginAirportID, f.DestinationAirportID} {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		airports, err := repositories.NewAirportRepository(tx).FindByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load airports: %w", err)
		}

		set = s.BuildRoutes(flights, airports)
		return repositories.NewRouteRepository(tx).ReplaceAll(ctx, set.Routes)
	})
	if err != nil {
		return RouteSet{}, err
	}

	s.metrics.ObserveRouteRebuild(started, len(set.Routes))
	for _, skipped := range set.Skipped {
		logging.Warn("Route skipped", "airport1_id", skipped.Airport1ID, "airport2_id", skipped.Airport2ID, "reason", skipped.Reason)
	}
	logging.Info("Routes rebuilt", "routes", len(set.Routes), "skipped", len(set.Skipped), "duration", time.Since(started))
	return set, nil
}
