package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"

	"infinite-experiment/flightlog/internal/geometry"
	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/gorm"
)

func setupTestDB(t *testing.T) *gormlib.DB {
	db, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&gorm.Airport{}, &gorm.Airline{}, &gorm.Flight{}, &gorm.Route{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func TestAirportRepository_FindLiveByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAirportRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.BatchInsert(ctx, []gorm.Airport{
		{IATACode: strPtr("JFK"), ICAOCode: strPtr("KJFK"), Name: "John F Kennedy"},
		{IATACode: strPtr("BER"), ICAOCode: strPtr("EDDB"), Name: "Berlin Brandenburg"},
		{IATACode: strPtr("BER"), ICAOCode: strPtr("EDBB"), Name: "Berlin Tempelhof", IsDefunct: true},
	}))

	found, err := repo.FindLiveByCode(ctx, models.CodeIATA, "ber")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Berlin Brandenburg", found[0].Name)

	found, err = repo.FindLiveByCode(ctx, models.CodeICAO, "KJFK")
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = repo.FindLiveByCode(ctx, models.CodeICAO, "EDBB")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAirportRepository_CreateRequiresCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAirportRepository(db)

	err := repo.Create(context.Background(), &gorm.Airport{Name: "Nowhere"})
	assert.ErrorIs(t, err, gorm.ErrAirportWithoutCode)
}

func TestFlightRepository_Dedup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlightRepository(db)
	ctx := context.Background()

	dep := time.Date(2024, 5, 1, 22, 15, 0, 0, time.UTC)
	fa := "AAL100-1714500000-schedule-0001"
	flight := &gorm.Flight{
		DepartureUTC:         dep,
		AirlineID:            1,
		FlightNumber:         "100",
		OriginAirportID:      1,
		DestinationAirportID: 2,
		OperatorID:           1,
		FAFlightID:           &fa,
		Geometry:             geometry.Track{{{Lon: 1, Lat: 2, AltM: 3}, {Lon: 2, Lat: 3, AltM: 4}}},
	}
	require.NoError(t, repo.Create(ctx, flight))

	got, err := repo.FindByProviderID(ctx, fa, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, flight.ID, got.ID)
	assert.Equal(t, flight.Geometry, got.Geometry)

	got, err = repo.FindByProviderID(ctx, "", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.FindByDesignatorDay(ctx, 1, "100", models.DayStart(dep))
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = repo.FindByDesignatorDay(ctx, 1, "100", models.DayStart(dep).Add(24*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFlightRepository_CreateValidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlightRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &gorm.Flight{AirlineID: 1})
	assert.ErrorIs(t, err, gorm.ErrMissingDeparture)

	err = repo.Create(ctx, &gorm.Flight{
		DepartureUTC:          time.Now().UTC(),
		CodeshareFlightNumber: strPtr("123"),
	})
	assert.ErrorIs(t, err, gorm.ErrIncompleteCodeshare)
}

func TestRouteRepository_ReplaceAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRouteRepository(db)
	ctx := context.Background()

	first := []gorm.Route{
		{Airport1ID: 1, Airport2ID: 2, FlightCount: 1, DistanceMi: 187, Geometry: geometry.LineString{{-71, 42}, {-73.7, 40.6}}},
		{Airport1ID: 2, Airport2ID: 3, FlightCount: 2, DistanceMi: 3451},
	}
	require.NoError(t, db.Transaction(func(tx *gormlib.DB) error {
		return repo.WithDB(tx).ReplaceAll(ctx, first)
	}))

	routes, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, first[0].Geometry, routes[0].Geometry)
	assert.Nil(t, routes[1].Geometry)

	require.NoError(t, repo.ReplaceAll(ctx, first[:1]))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
