package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gormlib "gorm.io/gorm"

	"infinite-experiment/flightlog/internal/common"
	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/db/repositories"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/metrics"
	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/gorm"
)

// ErrAmbiguousCode means two live rows share a code, which the log never allows.
var ErrAmbiguousCode = errors.New("code matches more than one live entity")

// UnknownCodeError reports a code with no live airline or airport.
type UnknownCodeError struct {
	Entity string
	Code   string
}

func (e *UnknownCodeError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("no %s code supplied", e.Entity)
	}
	return fmt.Sprintf("unknown %s code %q", e.Entity, e.Code)
}

const (
	entityAirline = "airline"
	entityAirport = "airport"

	registryCacheName = "code_registry"
	registryCacheTTL  = 30 * time.Minute
)

// Resolver maps airline and airport codes to row ids. It never creates rows.
type Resolver interface {
	ResolveAirline(ctx context.Context, code string, kind models.CodeKind) (uint, error)
	ResolveAirport(ctx context.Context, code string, kind models.CodeKind) (uint, error)
	// The *Codes variants try ICAO first and fall back to IATA.
	ResolveAirlineCodes(ctx context.Context, codes models.CodeSet) (uint, error)
	ResolveAirportCodes(ctx context.Context, codes models.CodeSet) (uint, error)
	// Reset drops memoised resolutions. Call it after reference data
	// changes, e.g. a seed that marked rows defunct.
	Reset()
}

// ResolverWithCreate also inserts an airline or airport from seed metadata
// when resolution finds nothing.
type ResolverWithCreate interface {
	Resolver
	ResolveOrCreateAirline(ctx context.Context, seed models.AirlineSeed) (uint, error)
	ResolveOrCreateAirport(ctx context.Context, seed models.AirportSeed) (uint, error)
}

// AirportSeedEnricher completes a seed before the airport row is created,
// typically by looking up coordinates.
type AirportSeedEnricher func(ctx context.Context, seed models.AirportSeed) models.AirportSeed

// CodeRegistry resolves codes against the airlines and airports tables and
// memoises hits. Row ids only mean something in the database they came
// from, so the memo is private to the registry and never shared with the
// provider response cache.
type CodeRegistry struct {
	airlines *repositories.AirlineRepository
	airports *repositories.AirportRepository
	cache    *common.CacheService
	metrics  *metrics.MetricsRegistry
}

type creatingCodeRegistry struct {
	*CodeRegistry
	enrich AirportSeedEnricher
}

var (
	_ Resolver           = (*CodeRegistry)(nil)
	_ ResolverWithCreate = (*creatingCodeRegistry)(nil)
)

func newCodeRegistry(db *gormlib.DB, m *metrics.MetricsRegistry) *CodeRegistry {
	return &CodeRegistry{
		airlines: repositories.NewAirlineRepository(db),
		airports: repositories.NewAirportRepository(db),
		cache:    common.NewCacheService(registryCacheTTL, time.Hour),
		metrics:  m,
	}
}

// NewCodeRegistry returns a resolver that only reads.
func NewCodeRegistry(db *gormlib.DB, m *metrics.MetricsRegistry) Resolver {
	return newCodeRegistry(db, m)
}

// NewCreatingCodeRegistry returns a resolver that creates rows on a miss.
// enrich may be nil.
func NewCreatingCodeRegistry(db *gormlib.DB, m *metrics.MetricsRegistry, enrich AirportSeedEnricher) ResolverWithCreate {
	return &creatingCodeRegistry{CodeRegistry: newCodeRegistry(db, m), enrich: enrich}
}

func (r *CodeRegistry) Reset() {
	r.cache.Flush()
}

func (r *CodeRegistry) ResolveAirline(ctx context.Context, code string, kind models.CodeKind) (uint, error) {
	return r.resolve(ctx, constants.CachePrefixAirline, entityAirline, code, kind, func(code string) ([]uint, error) {
		rows, err := r.airlines.FindLiveByCode(ctx, kind, code)
		ids := make([]uint, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		return ids, err
	})
}

func (r *CodeRegistry) ResolveAirport(ctx context.Context, code string, kind models.CodeKind) (uint, error) {
	return r.resolve(ctx, constants.CachePrefixAirport, entityAirport, code, kind, func(code string) ([]uint, error) {
		rows, err := r.airports.FindLiveByCode(ctx, kind, code)
		ids := make([]uint, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		return ids, err
	})
}

func (r *CodeRegistry) resolve(
	ctx context.Context,
	prefix constants.CachePrefix,
	entity, code string,
	kind models.CodeKind,
	find func(code string) ([]uint, error),
) (uint, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, &UnknownCodeError{Entity: entity}
	}

	key := prefix.Key(string(kind), code)
	if v, ok := r.cache.Get(key); ok {
		if id, ok := common.AsUint(v); ok {
			r.metrics.ObserveCache(registryCacheName, true)
			return id, nil
		}
	}
	r.metrics.ObserveCache(registryCacheName, false)

	ids, err := find(code)
	if err != nil {
		return 0, fmt.Errorf("failed to look up %s %s %s: %w", entity, kind, code, err)
	}
	switch len(ids) {
	case 0:
		return 0, &UnknownCodeError{Entity: entity, Code: code}
	case 1:
		r.cache.Set(key, ids[0], registryCacheTTL)
		return ids[0], nil
	default:
		logging.Error("Live rows share a code", "entity", entity, "kind", kind, "code", code)
		return 0, fmt.Errorf("%s %s %s: %w", entity, kind, code, ErrAmbiguousCode)
	}
}

func (r *CodeRegistry) ResolveAirlineCodes(ctx context.Context, codes models.CodeSet) (uint, error) {
	return resolveCodes(ctx, entityAirline, codes, r.ResolveAirline)
}

func (r *CodeRegistry) ResolveAirportCodes(ctx context.Context, codes models.CodeSet) (uint, error) {
	return resolveCodes(ctx, entityAirport, codes, r.ResolveAirport)
}

func resolveCodes(
	ctx context.Context,
	entity string,
	codes models.CodeSet,
	resolve func(context.Context, string, models.CodeKind) (uint, error),
) (uint, error) {
	if codes.IsZero() {
		return 0, &UnknownCodeError{Entity: entity}
	}
	if codes.ICAO != "" {
		id, err := resolve(ctx, codes.ICAO, models.CodeICAO)
		if err == nil || codes.IATA == "" || !IsUnknownCode(err) {
			return id, err
		}
	}
	return resolve(ctx, codes.IATA, models.CodeIATA)
}

// IsUnknownCode reports whether err carries an UnknownCodeError.
func IsUnknownCode(err error) bool {
	var unknown *UnknownCodeError
	return errors.As(err, &unknown)
}

func (r *creatingCodeRegistry) ResolveOrCreateAirline(ctx context.Context, seed models.AirlineSeed) (uint, error) {
	id, err := r.ResolveAirlineCodes(ctx, seed.Codes())
	if err == nil || !IsUnknownCode(err) || seed.Codes().IsZero() {
		return id, err
	}

	airline := gorm.Airline{
		Name:     seed.Name,
		ICAOCode: strings.ToUpper(seed.ICAO),
		IATACode: optional(strings.ToUpper(seed.IATA)),
	}
	if airline.Name == "" {
		airline.Name = seed.Codes().String()
	}
	if err := r.airlines.Create(ctx, &airline); err != nil {
		return 0, fmt.Errorf("failed to create airline %s: %w", seed.Codes(), err)
	}
	logging.Info("Created airline", "id", airline.ID, "icao", seed.ICAO, "iata", seed.IATA)
	r.remember(constants.CachePrefixAirline, seed.Codes(), airline.ID)
	return airline.ID, nil
}

func (r *creatingCodeRegistry) ResolveOrCreateAirport(ctx context.Context, seed models.AirportSeed) (uint, error) {
	id, err := r.ResolveAirportCodes(ctx, seed.Codes())
	if err == nil || !IsUnknownCode(err) || seed.Codes().IsZero() {
		return id, err
	}

	if r.enrich != nil && (seed.Latitude == nil || seed.Longitude == nil) {
		seed = r.enrich(ctx, seed)
	}
	airport := gorm.Airport{
		ICAOCode:  optional(strings.ToUpper(seed.ICAO)),
		IATACode:  optional(strings.ToUpper(seed.IATA)),
		Name:      seed.Name,
		City:      seed.City,
		Country:   seed.Country,
		Timezone:  seed.Timezone,
		Latitude:  seed.Latitude,
		Longitude: seed.Longitude,
	}
	if err := r.airports.Create(ctx, &airport); err != nil {
		return 0, fmt.Errorf("failed to create airport %s: %w", seed.Codes(), err)
	}
	logging.Info("Created airport", "id", airport.ID, "icao", seed.ICAO, "iata", seed.IATA, "has_coordinates", airport.HasCoordinates())
	r.remember(constants.CachePrefixAirport, seed.Codes(), airport.ID)
	return airport.ID, nil
}

func (r *creatingCodeRegistry) remember(prefix constants.CachePrefix, codes models.CodeSet, id uint) {
	if codes.ICAO != "" {
		r.cache.Set(prefix.Key(string(models.CodeICAO), strings.ToUpper(codes.ICAO)), id, registryCacheTTL)
	}
	if codes.IATA != "" {
		r.cache.Set(prefix.Key(string(models.CodeIATA), strings.ToUpper(codes.IATA)), id, registryCacheTTL)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
