package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/flightlog/internal/db/repositories"
	"infinite-experiment/flightlog/internal/geometry"
	"infinite-experiment/flightlog/internal/metrics"
	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/gorm"
)

func airportAt(id uint, code string, lat, lon float64) gorm.Airport {
	return gorm.Airport{ID: id, IATACode: strPtr(code), Latitude: floatPtr(lat), Longitude: floatPtr(lon)}
}

func flightBetween(id, from, to uint, departure time.Time) gorm.Flight {
	return gorm.Flight{ID: id, OriginAirportID: from, DestinationAirportID: to, DepartureUTC: departure}
}

func TestBuildRoutes_GroupsUnorderedPairs(t *testing.T) {
	svc := NewRouteService(nil, geometry.GreatCircleOptions{}, nil)
	airports := map[uint]gorm.Airport{
		1: airportAt(1, "BOS", 42.3656, -71.0096),
		2: airportAt(2, "JFK", 40.6413, -73.7781),
		3: airportAt(3, "LHR", 51.4700, -0.4543),
	}
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	flights := []gorm.Flight{
		flightBetween(10, 3, 2, day.Add(72*time.Hour)),
		flightBetween(11, 2, 1, day.Add(48*time.Hour)),
		flightBetween(12, 1, 2, day),
		flightBetween(13, 2, 3, day.Add(24*time.Hour)),
	}

	set := svc.BuildRoutes(flights, airports)
	require.Len(t, set.Routes, 2)
	assert.Empty(t, set.Skipped)

	bosJFK := set.Routes[0]
	assert.Equal(t, uint(1), bosJFK.Airport1ID, "oriented like the earliest flight")
	assert.Equal(t, uint(2), bosJFK.Airport2ID)
	assert.Equal(t, 2, bosJFK.FlightCount)
	assert.InDelta(t, 187, bosJFK.DistanceMi, 2)

	jfkLHR := set.Routes[1]
	assert.Equal(t, uint(2), jfkLHR.Airport1ID)
	assert.Equal(t, uint(3), jfkLHR.Airport2ID)
	assert.Equal(t, 2, jfkLHR.FlightCount)

	line := jfkLHR.Geometry.Orb()
	require.Greater(t, len(line), 2)
	assert.Equal(t, -73.7781, line[0].Lon())
	assert.Equal(t, -0.4543, line[len(line)-1].Lon())
}

func TestBuildRoutes_SkipsUnusablePairs(t *testing.T) {
	svc := NewRouteService(nil, geometry.GreatCircleOptions{}, nil)
	airports := map[uint]gorm.Airport{
		1: airportAt(1, "AAA", 10, 20),
		2: airportAt(2, "BBB", -10, -160),
		3: {ID: 3, IATACode: strPtr("CCC")},
		4: airportAt(4, "DDD", 0, 0),
	}
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	flights := []gorm.Flight{
		flightBetween(1, 1, 2, day),
		flightBetween(2, 1, 3, day.Add(time.Hour)),
		flightBetween(3, 4, 5, day.Add(2*time.Hour)),
		flightBetween(4, 4, 4, day.Add(3*time.Hour)),
	}

	set := svc.BuildRoutes(flights, airports)
	require.Len(t, set.Skipped, 3)
	assert.Equal(t, "airports are antipodal", set.Skipped[0].Reason)
	assert.Equal(t, "airport has no coordinates", set.Skipped[1].Reason)
	assert.Equal(t, "airport has no coordinates", set.Skipped[2].Reason)

	// A round trip to the same airport still counts, with no line to draw.
	require.Len(t, set.Routes, 1)
	assert.Equal(t, uint(4), set.Routes[0].Airport1ID)
	assert.Zero(t, set.Routes[0].DistanceMi)
	assert.Empty(t, set.Routes[0].Geometry)
}

func TestRebuildRoutes_ReplacesTable(t *testing.T) {
	store, ingest := newTestIngestion(t)
	ctx := context.Background()
	m := metrics.NewMetricsRegistry()
	svc := NewRouteService(store, geometry.GreatCircleOptions{StepKm: 50}, m)

	ingest.IngestBatch(ctx, []models.CanonicalLeg{
		bosJFK("2024-02-14T15:05:00Z"),
		bosJFK("2024-02-16T15:05:00Z"),
	})

	first, err := svc.RebuildRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, first.Routes, 1)
	assert.Equal(t, 2, first.Routes[0].FlightCount)

	second, err := svc.RebuildRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, second.Routes, 1)

	stored, err := repositories.NewRouteRepository(store.DB()).All(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first.Routes[0].Airport1ID, stored[0].Airport1ID)
	assert.Equal(t, first.Routes[0].DistanceMi, stored[0].DistanceMi)
	assert.Equal(t, len(first.Routes[0].Geometry), len(stored[0].Geometry))
}

func TestRebuildRoutes_EmptyLog(t *testing.T) {
	store := setupTestStore(t)
	svc := NewRouteService(store, geometry.GreatCircleOptions{}, nil)

	set, err := svc.RebuildRoutes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, set.Routes)

	count, err := repositories.NewRouteRepository(store.DB()).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
