package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/db/repositories"
	"infinite-experiment/flightlog/internal/models/dtos"
	"infinite-experiment/flightlog/internal/models/gorm"
	"infinite-experiment/flightlog/internal/providers"
)

func setupTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

// seedReferenceData loads a handful of real airports and airlines.
func seedReferenceData(t *testing.T, store *db.Store) {
	t.Helper()
	ctx := context.Background()

	airports := []gorm.Airport{
		{IATACode: strPtr("BOS"), ICAOCode: strPtr("KBOS"), Name: "Logan International", City: "Boston", Country: "US", Latitude: floatPtr(42.3656), Longitude: floatPtr(-71.0096)},
		{IATACode: strPtr("JFK"), ICAOCode: strPtr("KJFK"), Name: "John F Kennedy International", City: "New York", Country: "US", Latitude: floatPtr(40.6413), Longitude: floatPtr(-73.7781)},
		{IATACode: strPtr("LHR"), ICAOCode: strPtr("EGLL"), Name: "Heathrow", City: "London", Country: "GB", Latitude: floatPtr(51.4700), Longitude: floatPtr(-0.4543)},
		{IATACode: strPtr("ORD"), ICAOCode: strPtr("KORD"), Name: "O'Hare International", City: "Chicago", Country: "US", Latitude: floatPtr(41.9786), Longitude: floatPtr(-87.9048)},
		{IATACode: strPtr("BER"), ICAOCode: strPtr("EDDB"), Name: "Berlin Brandenburg", City: "Berlin", Country: "DE", Latitude: floatPtr(52.3667), Longitude: floatPtr(13.5033)},
		{IATACode: strPtr("BER"), ICAOCode: strPtr("EDBB"), Name: "Berlin Tempelhof", City: "Berlin", Country: "DE", IsDefunct: true},
	}
	require.NoError(t, repositories.NewAirportRepository(store.DB()).BatchInsert(ctx, airports))

	airlines := []gorm.Airline{
		{Name: "JetBlue", ICAOCode: "JBU", IATACode: strPtr("B6")},
		{Name: "British Airways", ICAOCode: "BAW", IATACode: strPtr("BA")},
		{Name: "American Airlines", ICAOCode: "AAL", IATACode: strPtr("AA")},
		{Name: "United Airlines", ICAOCode: "UAL", IATACode: strPtr("UA")},
		{Name: "SkyWest", ICAOCode: "SKW", IATACode: strPtr("OO")},
		{Name: "Pan Am", ICAOCode: "PAA", IATACode: strPtr("PA"), IsDefunct: true},
	}
	require.NoError(t, repositories.NewAirlineRepository(store.DB()).BatchInsert(ctx, airlines))
}

type passLeg struct {
	from, to, carrier, flight, julian string
	// marketing, when set, is written as the conditional marketing carrier.
	marketing string
}

// buildBarcode assembles a boarding pass. Conditional data is written only
// for legs naming a marketing carrier.
func buildBarcode(legs ...passLeg) string {
	s := fmt.Sprintf("M%d%-20sE", len(legs), "DOE/JANE")
	for i, l := range legs {
		variable := ""
		if l.marketing != "" {
			rep := fmt.Sprintf("%-3s%-10s%1s%1s%-3s", "006", "2312345678", "0", " ", l.marketing)
			variable = fmt.Sprintf("%02X%s", len(rep), rep)
			if i == 0 {
				unique := "1WW4017EDL "
				variable = fmt.Sprintf(">6%02X%s", len(unique), unique) + variable
			}
		}
		s += fmt.Sprintf("%-7s%-3s%-3s%-3s%-5s%-3s%1s%-4s%-5s%1s%02X%s",
			"ABC123", l.from, l.to, l.carrier, l.flight, l.julian, "Y", "012A", "0001", "0", len(variable), variable)
	}
	return s
}

type aeroFixture struct {
	FAFlightID   string
	OperatorICAO string
	OperatorIATA string
	Number       string
	Origin       [2]string
	Destination  [2]string
	Out          time.Time
	Progress     int
	Codeshares   []string
}

func (f aeroFixture) raw() json.RawMessage {
	out := f.Out.UTC()
	in := out.Add(90 * time.Minute)
	body := map[string]interface{}{
		"fa_flight_id":     f.FAFlightID,
		"operator":         f.OperatorICAO,
		"operator_icao":    f.OperatorICAO,
		"operator_iata":    f.OperatorIATA,
		"flight_number":    f.Number,
		"registration":     "N123JB",
		"aircraft_type":    "A320",
		"origin":           map[string]string{"code_icao": f.Origin[0], "code_iata": f.Origin[1]},
		"destination":      map[string]string{"code_icao": f.Destination[0], "code_iata": f.Destination[1]},
		"progress_percent": f.Progress,
		"actual_out":       out.Format(time.RFC3339),
		"actual_in":        in.Format(time.RFC3339),
	}
	if len(f.Codeshares) > 0 {
		body["codeshares"] = f.Codeshares
	}
	data, _ := json.Marshal(body)
	return data
}

// mockFlightLookup serves canned AeroAPI results keyed by ident.
type mockFlightLookup struct {
	mu      sync.Mutex
	flights map[string][]json.RawMessage
	tracks  map[string]*dtos.AeroTrack
	calls   []string
}

var _ providers.FlightLookupProvider = (*mockFlightLookup)(nil)

func newMockFlightLookup() *mockFlightLookup {
	return &mockFlightLookup{
		flights: make(map[string][]json.RawMessage),
		tracks:  make(map[string]*dtos.AeroTrack),
	}
}

func (m *mockFlightLookup) GetFlights(_ context.Context, ident, identType string) ([]json.RawMessage, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, identType+":"+ident)
	if f, ok := m.flights[ident]; ok {
		return f, 200, nil
	}
	return nil, 200, &providers.ProviderError{Code: constants.ErrCodeNoFlightsFound, Message: "no flights"}
}

func (m *mockFlightLookup) GetTrack(_ context.Context, faFlightID string) (*dtos.AeroTrack, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tracks[faFlightID]; ok {
		return t, 200, nil
	}
	return nil, 404, &providers.ProviderError{Code: constants.ErrCodeResourceNotFound, Message: "no track"}
}

func (m *mockFlightLookup) GetAirport(context.Context, string) (*dtos.AeroAirportInfo, int, error) {
	return nil, 404, &providers.ProviderError{Code: constants.ErrCodeResourceNotFound, Message: "no airport"}
}

func (m *mockFlightLookup) GetProviderType() string { return constants.ProviderAeroAPI }

func (m *mockFlightLookup) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockRecentFlights struct {
	flights []json.RawMessage
	err     error
}

func (m *mockRecentFlights) GetRecentFlights(context.Context) ([]json.RawMessage, int, error) {
	return m.flights, 200, m.err
}

func (m *mockRecentFlights) GetProviderType() string { return constants.ProviderHistorian }
