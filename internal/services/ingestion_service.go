package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	gormlib "gorm.io/gorm"

	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/db/repositories"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/metrics"
	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/models/gorm"
)

// IngestKind classifies what happened to one leg.
type IngestKind string

const (
	IngestInserted         IngestKind = "inserted"
	IngestSkippedDuplicate IngestKind = "skipped_duplicate"
	IngestRejected         IngestKind = "rejected"
)

// IngestOutcome is the result for one leg. FlightID is the new row for
// Inserted and the matching row for SkippedDuplicate.
type IngestOutcome struct {
	Kind     IngestKind
	FlightID uint
	Reason   string
	Err      error
}

func rejected(reason string, err error) IngestOutcome {
	if err != nil {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	return IngestOutcome{Kind: IngestRejected, Reason: reason, Err: err}
}

// IngestionService turns canonical legs into flight rows. Every Ingest
// holds the store's writer lock from resolution to insert.
type IngestionService struct {
	store    *db.Store
	resolver Resolver
	creator  ResolverWithCreate
	flights  *repositories.FlightRepository
	metrics  *metrics.MetricsRegistry
}

type IngestOption func(*IngestionService)

// WithEntityCreation lets legs that carry seeds create missing airlines and airports.
func WithEntityCreation(r ResolverWithCreate) IngestOption {
	return func(s *IngestionService) {
		s.creator = r
	}
}

func WithIngestMetrics(m *metrics.MetricsRegistry) IngestOption {
	return func(s *IngestionService) {
		s.metrics = m
	}
}

func NewIngestionService(store *db.Store, resolver Resolver, opts ...IngestOption) *IngestionService {
	s := &IngestionService{
		store:    store,
		resolver: resolver,
		flights:  repositories.NewFlightRepository(store.DB()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type resolvedRefs struct {
	airlineID   uint
	operatorID  uint
	codeshareID *uint
	originID    uint
	destID      uint
}

// Ingest stores leg unless it duplicates an existing flight. Legs that
// fail validation or code resolution come back as Rejected with a nil
// error; the error is only set when the store itself failed.
func (s *IngestionService) Ingest(ctx context.Context, leg models.CanonicalLeg) (IngestOutcome, error) {
	if err := validateLeg(leg); err != nil {
		out := rejected(constants.ReasonInvalidLeg, err)
		s.record(leg, out)
		return out, nil
	}

	var out IngestOutcome
	err := s.store.Write(ctx, func(tx *gormlib.DB) error {
		refs, err := s.resolve(ctx, leg)
		if err != nil {
			switch {
			case IsUnknownCode(err):
				out = rejected(constants.ReasonUnknownCode, err)
				return nil
			case errors.Is(err, ErrAmbiguousCode):
				out = rejected(constants.ReasonAmbiguousCode, err)
				return nil
			default:
				return err
			}
		}

		flights := s.flights.WithDB(tx)
		dup, reason, err := s.findDuplicate(ctx, flights, leg, refs.airlineID)
		if err != nil {
			return err
		}
		if dup != nil {
			out = IngestOutcome{Kind: IngestSkippedDuplicate, FlightID: dup.ID, Reason: reason}
			return nil
		}

		flight := newFlight(leg, refs)
		if err := flights.Create(ctx, flight); err != nil {
			return err
		}
		out = IngestOutcome{Kind: IngestInserted, FlightID: flight.ID}
		return nil
	})
	if err != nil {
		reason := constants.ReasonStoreFailure
		if ctx.Err() != nil {
			reason = constants.ReasonCancelled
		}
		out = rejected(reason, err)
		s.record(leg, out)
		return out, err
	}

	s.record(leg, out)
	return out, nil
}

// IngestBatch ingests legs one by one in order. A failed leg never stops
// the batch; once ctx is done the remaining legs are rejected unseen.
func (s *IngestionService) IngestBatch(ctx context.Context, legs []models.CanonicalLeg) []IngestOutcome {
	outcomes := make([]IngestOutcome, 0, len(legs))
	for _, leg := range legs {
		if err := ctx.Err(); err != nil {
			out := rejected(constants.ReasonCancelled, err)
			s.record(leg, out)
			outcomes = append(outcomes, out)
			continue
		}
		out, _ := s.Ingest(ctx, leg)
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (s *IngestionService) record(leg models.CanonicalLeg, out IngestOutcome) {
	s.metrics.ObserveIngest(string(out.Kind))
	switch out.Kind {
	case IngestRejected:
		logging.Warn("Flight leg rejected", "leg", leg.String(), "reason", out.Reason)
	default:
		logging.Info("Flight leg ingested", "leg", leg.String(), "outcome", out.Kind, "flight_id", out.FlightID)
	}
}

func validateLeg(leg models.CanonicalLeg) error {
	switch {
	case leg.DepartureUTC().IsZero():
		return gorm.ErrMissingDeparture
	case leg.Codeshare.IsZero() != (leg.CodeshareFlightNumber == ""):
		return gorm.ErrIncompleteCodeshare
	case leg.Marketing.IsZero(), leg.FlightNumber == "":
		return errors.New("marketing airline and flight number are required")
	case leg.Origin.IsZero(), leg.Destination.IsZero():
		return errors.New("origin and destination are required")
	}
	return nil
}

func (s *IngestionService) resolve(ctx context.Context, leg models.CanonicalLeg) (resolvedRefs, error) {
	var (
		refs resolvedRefs
		err  error
	)
	if refs.airlineID, err = s.resolveAirline(ctx, leg.Marketing, leg.MarketingSeed); err != nil {
		return refs, err
	}
	if refs.originID, err = s.resolveAirport(ctx, leg.Origin, leg.OriginSeed); err != nil {
		return refs, err
	}
	if refs.destID, err = s.resolveAirport(ctx, leg.Destination, leg.DestinationSeed); err != nil {
		return refs, err
	}

	refs.operatorID = refs.airlineID
	if !leg.Operating.IsZero() {
		if refs.operatorID, err = s.resolveAirline(ctx, leg.Operating, leg.OperatingSeed); err != nil {
			return refs, err
		}
	}

	if !leg.Codeshare.IsZero() {
		id, err := s.resolveAirline(ctx, leg.Codeshare, leg.CodeshareSeed)
		if err != nil {
			return refs, err
		}
		refs.codeshareID = &id
	}
	return refs, nil
}

func (s *IngestionService) resolveAirline(ctx context.Context, codes models.CodeSet, seed *models.AirlineSeed) (uint, error) {
	if s.creator != nil && seed != nil {
		merged := *seed
		if merged.ICAO == "" {
			merged.ICAO = codes.ICAO
		}
		if merged.IATA == "" {
			merged.IATA = codes.IATA
		}
		return s.creator.ResolveOrCreateAirline(ctx, merged)
	}
	return s.resolver.ResolveAirlineCodes(ctx, codes)
}

func (s *IngestionService) resolveAirport(ctx context.Context, codes models.CodeSet, seed *models.AirportSeed) (uint, error) {
	if s.creator != nil && seed != nil {
		merged := *seed
		if merged.ICAO == "" {
			merged.ICAO = codes.ICAO
		}
		if merged.IATA == "" {
			merged.IATA = codes.IATA
		}
		return s.creator.ResolveOrCreateAirport(ctx, merged)
	}
	return s.resolver.ResolveAirportCodes(ctx, codes)
}

// findDuplicate checks provider identifiers first, then marketing airline,
// flight number and UTC departure day. An identifier match always wins.
func (s *IngestionService) findDuplicate(ctx context.Context, flights *repositories.FlightRepository, leg models.CanonicalLeg, airlineID uint) (*gorm.Flight, string, error) {
	byID, err := flights.FindByProviderID(ctx, leg.FAFlightID, leg.FHID)
	if err != nil {
		return nil, "", err
	}
	byDesignator, err := flights.FindByDesignatorDay(ctx, airlineID, models.NormalizeFlightNumber(leg.FlightNumber), leg.DepartureDay())
	if err != nil {
		return nil, "", err
	}

	if byID != nil {
		if byDesignator != nil && byDesignator.ID != byID.ID {
			logging.Warn("Flight leg matches different flights by identifier and by designator",
				"leg", leg.String(), "identifier_match", byID.ID, "designator_match", byDesignator.ID)
		}
		return byID, constants.ReasonDuplicateProviderID, nil
	}
	if byDesignator != nil {
		return byDesignator, constants.ReasonDuplicateDesignator, nil
	}
	return nil, "", nil
}

func newFlight(leg models.CanonicalLeg, refs resolvedRefs) *gorm.Flight {
	f := &gorm.Flight{
		DepartureUTC:         leg.DepartureUTC(),
		AirlineID:            refs.airlineID,
		FlightNumber:         models.NormalizeFlightNumber(leg.FlightNumber),
		OriginAirportID:      refs.originID,
		DestinationAirportID: refs.destID,
		OperatorID:           refs.operatorID,
		CodeshareAirlineID:   refs.codeshareID,
		FAFlightID:           optional(leg.FAFlightID),
		FHID:                 leg.FHID,
		AircraftType:         optional(leg.AircraftType),
		TailNumber:           optional(leg.TailNumber),
		BoardingPassData:     optional(leg.BoardingPassData),
		GeomSource:           optional(leg.GeomSource),
		DistanceMi:           leg.DistanceMi,
		Geometry:             leg.Track,
		Comments:             optional(leg.Note),
	}
	if leg.Arrival != nil {
		arrival := leg.Arrival.UTC()
		f.ArrivalUTC = &arrival
	}
	if refs.codeshareID != nil {
		f.CodeshareFlightNumber = optional(models.NormalizeFlightNumber(leg.CodeshareFlightNumber))
	}
	if len(leg.RawPayload) > 0 {
		f.FAJSON = datatypes.JSON(leg.RawPayload)
	}
	return f
}
