package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/models/gorm"
)

const airportsJSON = `{
	"KBOS": {"icao": "KBOS", "iata": "BOS", "name": "General Edward Lawrence Logan International Airport", "city": "Boston", "country": "US", "lat": 42.3643, "lon": -71.0052, "tz": "America/New_York"},
	"KJFK": {"icao": "KJFK", "iata": "JFK", "name": "John F Kennedy International Airport", "city": "New York", "country": "US", "lat": 40.6398, "lon": -73.7789, "tz": "America/New_York"},
	"XXXX": {"icao": "", "name": "Nameless"}
}`

func setupLoader(t *testing.T) (*db.Store, *ReferenceLoader) {
	t.Helper()
	store, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store, NewReferenceLoader(store, nil)
}

func TestLoadAirports_CreatesThenUpdates(t *testing.T) {
	store, loader := setupLoader(t)
	ctx := context.Background()

	stats, err := loader.LoadAirports(ctx, strings.NewReader(airportsJSON))
	require.NoError(t, err)
	assert.Equal(t, LoadStats{Created: 2, Skipped: 1}, stats)

	var bos gorm.Airport
	require.NoError(t, store.DB().Where("icao_code = ?", "KBOS").First(&bos).Error)
	require.True(t, bos.HasCoordinates())
	assert.Equal(t, "BOS", *bos.IATACode)

	updated := strings.Replace(airportsJSON, `"lat": 42.3643`, `"lat": 42.3656`, 1)
	stats, err = loader.LoadAirports(ctx, strings.NewReader(updated))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Updated)
	assert.Zero(t, stats.Created)

	var again gorm.Airport
	require.NoError(t, store.DB().Where("icao_code = ?", "KBOS").First(&again).Error)
	assert.Equal(t, bos.ID, again.ID)
	assert.Equal(t, 42.3656, *again.Latitude)
}

func TestLoadAirports_BadInput(t *testing.T) {
	_, loader := setupLoader(t)
	_, err := loader.LoadAirports(context.Background(), strings.NewReader(`{}`))
	assert.Error(t, err)
	_, err = loader.LoadAirports(context.Background(), strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestLoadAirlines(t *testing.T) {
	store, loader := setupLoader(t)
	ctx := context.Background()

	stats, err := loader.LoadAirlines(ctx, strings.NewReader(`[
		{"icao": "jbu", "iata": "b6", "numeric": "279", "name": "JetBlue"},
		{"icao": "PAA", "iata": "PA", "name": "Pan Am", "defunct": true},
		{"iata": "ZZ", "name": "No ICAO"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, LoadStats{Created: 2, Skipped: 1}, stats)

	var jbu gorm.Airline
	require.NoError(t, store.DB().Where("icao_code = ?", "JBU").First(&jbu).Error)
	assert.Equal(t, "B6", *jbu.IATACode)
	assert.Equal(t, "279", *jbu.NumericCode)
}

func TestFetchAirports(t *testing.T) {
	_, loader := setupLoader(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/airports.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(airportsJSON))
	}))
	defer srv.Close()

	stats, err := loader.FetchAirports(context.Background(), srv.URL+"/airports.json")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)

	_, err = loader.FetchAirports(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}
