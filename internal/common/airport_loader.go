package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	gormlib "gorm.io/gorm"

	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/db/repositories"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/gorm"
)

// DefaultAirportsURL serves the mwgg/Airports data set.
const DefaultAirportsURL = "https://raw.githubusercontent.com/mwgg/Airports/refs/heads/master/airports.json"

// ReferenceLoader fills the airports and airlines tables. Existing live
// rows are updated in place so flights keep their references.
type ReferenceLoader struct {
	store  *db.Store
	client *http.Client
}

// RawAirportData is one entry of the mwgg airports.json object, keyed by ICAO.
type RawAirportData struct {
	ICAO    string  `json:"icao"`
	IATA    string  `json:"iata"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	TZ      string  `json:"tz"`
}

// RawAirlineData is one entry of an airlines JSON array.
type RawAirlineData struct {
	ICAO          string `json:"icao"`
	IATA          string `json:"iata"`
	Numeric       string `json:"numeric"`
	Name          string `json:"name"`
	MarketingOnly bool   `json:"marketing_only"`
	Defunct       bool   `json:"defunct"`
}

// LoadStats counts what one load did.
type LoadStats struct {
	Created int
	Updated int
	Skipped int
}

func NewReferenceLoader(store *db.Store, client *http.Client) *ReferenceLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &ReferenceLoader{store: store, client: client}
}

func optionalCode(s string) *string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// LoadAirports upserts airports from mwgg-format JSON. Records without an
// ICAO code or a name are skipped.
func (l *ReferenceLoader) LoadAirports(ctx context.Context, reader io.Reader) (LoadStats, error) {
	var rawData map[string]RawAirportData
	if err := json.NewDecoder(reader).Decode(&rawData); err != nil {
		return LoadStats{}, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if len(rawData) == 0 {
		return LoadStats{}, fmt.Errorf("no airport data found in JSON")
	}

	var stats LoadStats
	err := l.store.Transaction(ctx, func(tx *gormlib.DB) error {
		repo := repositories.NewAirportRepository(tx)
		for _, raw := range rawData {
			icao := optionalCode(raw.ICAO)
			name := strings.TrimSpace(raw.Name)
			if icao == nil || name == "" {
				stats.Skipped++
				continue
			}
			lat, lon := raw.Lat, raw.Lon
			incoming := gorm.Airport{
				ICAOCode:  icao,
				IATACode:  optionalCode(raw.IATA),
				Name:      name,
				City:      strings.TrimSpace(raw.City),
				Country:   strings.ToUpper(strings.TrimSpace(raw.Country)),
				Timezone:  strings.TrimSpace(raw.TZ),
				Latitude:  &lat,
				Longitude: &lon,
			}

			existing, err := repo.FindLiveByCode(ctx, models.CodeICAO, *icao)
			if err != nil {
				return err
			}
			switch len(existing) {
			case 0:
				if err := repo.Create(ctx, &incoming); err != nil {
					return fmt.Errorf("airport %s: %w", *icao, err)
				}
				stats.Created++
			case 1:
				incoming.ID = existing[0].ID
				incoming.CreatedAt = existing[0].CreatedAt
				if err := tx.WithContext(ctx).Save(&incoming).Error; err != nil {
					return fmt.Errorf("airport %s: %w", *icao, err)
				}
				stats.Updated++
			default:
				logging.Warn("Airport code is ambiguous, not updated", "icao", *icao, "matches", len(existing))
				stats.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return LoadStats{}, err
	}

	logging.Info("Airports loaded", "created", stats.Created, "updated", stats.Updated, "skipped", stats.Skipped)
	return stats, nil
}

// LoadAirlines upserts airlines from a JSON array. Records without an
// ICAO code are skipped.
func (l *ReferenceLoader) LoadAirlines(ctx context.Context, reader io.Reader) (LoadStats, error) {
	var rawData []RawAirlineData
	if err := json.NewDecoder(reader).Decode(&rawData); err != nil {
		return LoadStats{}, fmt.Errorf("failed to decode JSON: %w", err)
	}

	var stats LoadStats
	err := l.store.Transaction(ctx, func(tx *gormlib.DB) error {
		repo := repositories.NewAirlineRepository(tx)
		for _, raw := range rawData {
			icao := optionalCode(raw.ICAO)
			if icao == nil {
				stats.Skipped++
				continue
			}
			incoming := gorm.Airline{
				Name:            strings.TrimSpace(raw.Name),
				ICAOCode:        *icao,
				IATACode:        optionalCode(raw.IATA),
				NumericCode:     optionalCode(raw.Numeric),
				IsMarketingOnly: raw.MarketingOnly,
				IsDefunct:       raw.Defunct,
			}
			if incoming.Name == "" {
				incoming.Name = *icao
			}

			existing, err := repo.FindLiveByCode(ctx, models.CodeICAO, *icao)
			if err != nil {
				return err
			}
			switch {
			case len(existing) == 0 || raw.Defunct:
				if err := repo.Create(ctx, &incoming); err != nil {
					return fmt.Errorf("airline %s: %w", *icao, err)
				}
				stats.Created++
			case len(existing) == 1:
				incoming.ID = existing[0].ID
				incoming.CreatedAt = existing[0].CreatedAt
				if err := tx.WithContext(ctx).Save(&incoming).Error; err != nil {
					return fmt.Errorf("airline %s: %w", *icao, err)
				}
				stats.Updated++
			default:
				logging.Warn("Airline code is ambiguous, not updated", "icao", *icao, "matches", len(existing))
				stats.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return LoadStats{}, err
	}

	logging.Info("Airlines loaded", "created", stats.Created, "updated", stats.Updated, "skipped", stats.Skipped)
	return stats, nil
}

// FetchAirports downloads url and loads it with LoadAirports.
func (l *ReferenceLoader) FetchAirports(ctx context.Context, url string) (LoadStats, error) {
	if url == "" {
		url = DefaultAirportsURL
	}
	logging.Info("Fetching airports", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return LoadStats{}, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return LoadStats{}, fmt.Errorf("failed to fetch airports: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LoadStats{}, fmt.Errorf("failed to fetch airports: HTTP %d", resp.StatusCode)
	}
	return l.LoadAirports(ctx, resp.Body)
}
