package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"infinite-experiment/flightlog/internal/bcbp"
	"infinite-experiment/flightlog/internal/constants"
	"infinite-experiment/flightlog/internal/db"
	"infinite-experiment/flightlog/internal/db/repositories"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/models"
	"infinite-experiment/flightlog/internal/pkpass"
	"infinite-experiment/flightlog/internal/providers"
	"infinite-experiment/flightlog/internal/workers"
)

const archiveDir = "archive"

// ImportOptions holds the import settings taken from configuration.
type ImportOptions struct {
	// ArchiveImported moves fully imported pass files into archive/.
	ArchiveImported bool
	// EnrichBarcodes looks decoded legs up on AeroAPI before ingesting them.
	EnrichBarcodes bool
	// Lookahead lets boarding pass dates fall slightly after the reference date.
	Lookahead time.Duration
}

// ImportItem is one line of an import report.
type ImportItem struct {
	Source  string
	Leg     string
	Outcome IngestOutcome
}

// ImportReport collects the outcome of every leg seen by one import.
// Routes is set when the import inserted flights and rebuilt the routes.
type ImportReport struct {
	BatchID string
	Items   []ImportItem
	Routes  *RouteSet
}

func (r *ImportReport) add(source, leg string, out IngestOutcome) {
	r.Items = append(r.Items, ImportItem{Source: source, Leg: leg, Outcome: out})
}

func (r *ImportReport) count(kind IngestKind) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome.Kind == kind {
			n++
		}
	}
	return n
}

func (r *ImportReport) Inserted() int   { return r.count(IngestInserted) }
func (r *ImportReport) Duplicates() int { return r.count(IngestSkippedDuplicate) }
func (r *ImportReport) Rejected() int   { return r.count(IngestRejected) }

// ImportService runs each flight source through the ingestion engine and
// rebuilds routes once afterwards. Provider lookups run on the lookup pool;
// ingestion stays serial and in input order.
type ImportService struct {
	ingest    *IngestionService
	routes    *RouteService
	resolver  Resolver
	airlines  *repositories.AirlineRepository
	flights   *repositories.FlightRepository
	aero      providers.FlightLookupProvider
	historian providers.RecentFlightsProvider
	pool      *workers.LookupPool
	opts      ImportOptions
}

// NewImportService wires an import service. aero and historian may be nil
// when the matching provider is not configured.
func NewImportService(
	store *db.Store,
	ingest *IngestionService,
	routes *RouteService,
	resolver Resolver,
	aero providers.FlightLookupProvider,
	historian providers.RecentFlightsProvider,
	pool *workers.LookupPool,
	opts ImportOptions,
) *ImportService {
	if pool == nil {
		pool = workers.NewLookupPool(workers.DefaultLookupConcurrency)
	}
	return &ImportService{
		ingest:    ingest,
		routes:    routes,
		resolver:  resolver,
		airlines:  repositories.NewAirlineRepository(store.DB()),
		flights:   repositories.NewFlightRepository(store.DB()),
		aero:      aero,
		historian: historian,
		pool:      pool,
		opts:      opts,
	}
}

func (s *ImportService) newReport(source string) (*ImportReport, *zap.SugaredLogger) {
	report := &ImportReport{BatchID: uuid.NewString()}
	return report, logging.WithBatch(report.BatchID, source)
}

// finish rebuilds routes when the import inserted anything.
func (s *ImportService) finish(ctx context.Context, report *ImportReport, log *zap.SugaredLogger) error {
	log.Infow("Import finished",
		"inserted", report.Inserted(),
		"duplicates", report.Duplicates(),
		"rejected", report.Rejected(),
	)
	if report.Inserted() == 0 || s.routes == nil {
		return nil
	}
	set, err := s.routes.RebuildRoutes(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild routes: %w", err)
	}
	report.Routes = &set
	return nil
}

func (s *ImportService) ingestLegs(ctx context.Context, report *ImportReport, source string, legs []models.CanonicalLeg) []IngestOutcome {
	outcomes := s.ingest.IngestBatch(ctx, legs)
	for i, out := range outcomes {
		report.add(source, legs[i].String(), out)
	}
	return outcomes
}

// decodeBarcode returns the legs that decoded and one error per leg that
// did not. A nil pass means the header itself was unreadable.
func (s *ImportService) decodeBarcode(text string, ref time.Time) (*bcbp.BoardingPass, []error) {
	bp, err := bcbp.Decode(text, bcbp.Options{Reference: ref, Lookahead: s.opts.Lookahead})
	if err == nil {
		return bp, nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return bp, joined.Unwrap()
	}
	return bp, []error{err}
}

// ImportBarcode decodes a boarding pass and ingests its legs in barcode order.
func (s *ImportService) ImportBarcode(ctx context.Context, text string, ref time.Time) (*ImportReport, error) {
	report, log := s.newReport("bcbp")

	bp, errs := s.decodeBarcode(text, ref)
	for _, err := range errs {
		report.add("bcbp", "", rejected(constants.ReasonMalformedBarcode, err))
	}
	if bp == nil {
		log.Warnw("Boarding pass could not be decoded", "error", errs[0])
		return report, errs[0]
	}

	legs := s.enrichBarcodeLegs(ctx, bp.CanonicalLegs(), log)
	s.ingestLegs(ctx, report, "bcbp", legs)
	return report, s.finish(ctx, report, log)
}

// ImportPassFiles imports every *.pkpass file in dir. A bad file is
// reported and never stops the others.
func (s *ImportService) ImportPassFiles(ctx context.Context, dir string) (*ImportReport, error) {
	report, log := s.newReport("pkpass")

	info, err := os.Stat(dir)
	if err != nil {
		return report, fmt.Errorf("import folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return report, fmt.Errorf("import folder %s is not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.pkpass"))
	if err != nil {
		return report, err
	}
	sort.Strings(paths)
	log.Infow("Importing digital boarding passes", "dir", dir, "files", len(paths))

	for _, path := range paths {
		name := filepath.Base(path)
		if err := ctx.Err(); err != nil {
			report.add(name, "", rejected(constants.ReasonCancelled, err))
			continue
		}

		pass, err := pkpass.Read(path)
		if err != nil {
			log.Warnw("Skipping pass file", "file", name, "error", err)
			report.add(name, "", rejected(constants.ReasonUnreadablePass, err))
			continue
		}

		ref := time.Now()
		if pass.RelevantDate != nil {
			ref = *pass.RelevantDate
		}
		bp, errs := s.decodeBarcode(pass.Message, ref)
		for _, err := range errs {
			report.add(name, "", rejected(constants.ReasonMalformedBarcode, err))
		}
		if bp == nil || len(bp.Legs) == 0 {
			continue
		}

		legs := s.enrichBarcodeLegs(ctx, bp.CanonicalLegs(), log)
		outcomes := s.ingestLegs(ctx, report, name, legs)

		if !s.opts.ArchiveImported || len(errs) > 0 || anyRejected(outcomes) {
			continue
		}
		relevant := legs[0].DepartureUTC()
		if pass.RelevantDate != nil {
			relevant = *pass.RelevantDate
		}
		dest, err := archivePass(path, relevant, bp.Legs[0].OperatingCarrier)
		if err != nil {
			log.Warnw("Failed to archive pass file", "file", name, "error", err)
			continue
		}
		log.Infow("Archived pass file", "file", name, "archive", dest)
	}

	return report, s.finish(ctx, report, log)
}

func anyRejected(outcomes []IngestOutcome) bool {
	for _, out := range outcomes {
		if out.Kind == IngestRejected {
			return true
		}
	}
	return false
}

func archivePass(path string, relevant time.Time, carrier string) (string, error) {
	dir := filepath.Join(filepath.Dir(path), archiveDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, pkpass.ArchiveName(relevant, carrier))
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("%s already exists", dest)
	}
	return dest, os.Rename(path, dest)
}

// ImportFAFlightID imports one flight by its FlightAware flight id.
func (s *ImportService) ImportFAFlightID(ctx context.Context, faFlightID string) (*ImportReport, error) {
	report, log := s.newReport("fa_flight_id")

	leg, err := s.lookupFAFlightID(ctx, faFlightID)
	if err != nil {
		report.add(faFlightID, "", rejected(constants.ReasonLookupFailed, err))
		return report, err
	}
	s.ingestLegs(ctx, report, faFlightID, []models.CanonicalLeg{leg})
	return report, s.finish(ctx, report, log)
}

// ImportDesignator imports the completed flight airline+number that
// departed on the UTC day of on, or the most recent one when on is zero.
// The airline given by the caller is recorded as the marketing carrier.
func (s *ImportService) ImportDesignator(ctx context.Context, airline, number string, on time.Time) (*ImportReport, error) {
	report, log := s.newReport("designator")
	codes := models.AirlineCodes(airline)
	source := codes.String() + models.NormalizeFlightNumber(number)

	leg, err := s.lookupDesignator(ctx, codes, number, on)
	if err != nil {
		report.add(source, "", rejected(constants.ReasonLookupFailed, err))
		return report, err
	}
	applyMarketing(&leg, codes, number)
	s.ingestLegs(ctx, report, source, []models.CanonicalLeg{leg})
	return report, s.finish(ctx, report, log)
}

// ImportRecent imports Flight Historian's recent flights, preferring the
// AeroAPI record of each. Flights already logged by fh_id are skipped
// without a lookup.
func (s *ImportService) ImportRecent(ctx context.Context) (*ImportReport, error) {
	report, log := s.newReport("recent")
	if s.historian == nil {
		err := notConfigured(constants.ProviderHistorian)
		return report, err
	}

	raws, _, err := s.historian.GetRecentFlights(ctx)
	if err != nil {
		return report, err
	}
	log.Infow("Recent flights found", "count", len(raws))

	var pending []models.CanonicalLeg
	for _, raw := range raws {
		leg, err := providers.MapHistorianFlight(raw)
		if err != nil {
			report.add(constants.ProviderHistorian, "", rejected(constants.ReasonInvalidLeg, err))
			continue
		}
		existing, err := s.flights.FindByProviderID(ctx, "", leg.FHID)
		if err != nil {
			return report, err
		}
		if existing != nil {
			report.add(constants.ProviderHistorian, leg.String(), IngestOutcome{
				Kind:     IngestSkippedDuplicate,
				FlightID: existing.ID,
				Reason:   constants.ReasonDuplicateProviderID,
			})
			continue
		}
		pending = append(pending, leg)
	}

	results := workers.Lookup(ctx, s.pool, pending, func(ctx context.Context, hl models.CanonicalLeg) (models.CanonicalLeg, error) {
		if s.aero == nil || hl.FAFlightID == "" {
			return hl, nil
		}
		leg, err := s.lookupFAFlightID(ctx, hl.FAFlightID)
		if err != nil {
			if ctx.Err() != nil {
				return hl, ctx.Err()
			}
			log.Warnw("AeroAPI lookup failed, using Flight Historian record", "leg", hl.String(), "error", err)
			return hl, nil
		}
		leg.FHID = hl.FHID
		applyMarketing(&leg, hl.Marketing, hl.FlightNumber)
		return leg, nil
	})

	legs := make([]models.CanonicalLeg, len(results))
	for i, r := range results {
		legs[i] = r.Value
	}
	s.ingestLegs(ctx, report, constants.ProviderHistorian, legs)
	return report, s.finish(ctx, report, log)
}

func notConfigured(provider string) error {
	return &providers.ProviderError{
		Code:    constants.ErrCodeMissingAPIKey,
		Message: fmt.Sprintf("%s is not configured", provider),
	}
}

// enrichBarcodeLegs replaces each leg with its AeroAPI record when one
// matches. Legs without a match keep the boarding pass data.
func (s *ImportService) enrichBarcodeLegs(ctx context.Context, legs []models.CanonicalLeg, log *zap.SugaredLogger) []models.CanonicalLeg {
	if s.aero == nil || !s.opts.EnrichBarcodes || len(legs) == 0 {
		return legs
	}

	results := workers.Lookup(ctx, s.pool, legs, func(ctx context.Context, leg models.CanonicalLeg) (models.CanonicalLeg, error) {
		found, err := s.lookupDesignator(ctx, leg.Marketing, leg.FlightNumber, leg.DepartureDate)
		if err != nil {
			return leg, err
		}
		found.BoardingPassData = leg.BoardingPassData
		found.TicketedCarrier = leg.TicketedCarrier
		applyMarketing(&found, leg.Marketing, leg.FlightNumber)
		found.SelectCodeshare(s.knownAirlineCodes(ctx, leg.TicketedCarrier))
		return found, nil
	})

	out := make([]models.CanonicalLeg, len(legs))
	for i, r := range results {
		if r.Err != nil {
			log.Warnw("AeroAPI lookup failed, using boarding pass data", "leg", legs[i].String(), "error", r.Err)
			out[i] = legs[i]
			continue
		}
		out[i] = r.Value
	}
	return out
}

func (s *ImportService) lookupFAFlightID(ctx context.Context, faFlightID string) (models.CanonicalLeg, error) {
	if s.aero == nil {
		return models.CanonicalLeg{}, notConfigured(constants.ProviderAeroAPI)
	}
	raws, _, err := s.aero.GetFlights(ctx, faFlightID, providers.IdentTypeFAFlightID)
	if err != nil {
		return models.CanonicalLeg{}, err
	}
	leg, err := selectFlight(raws, time.Time{})
	if err != nil {
		return leg, err
	}
	s.attachTrack(ctx, &leg)
	return leg, nil
}

func (s *ImportService) lookupDesignator(ctx context.Context, codes models.CodeSet, number string, on time.Time) (models.CanonicalLeg, error) {
	if s.aero == nil {
		return models.CanonicalLeg{}, notConfigured(constants.ProviderAeroAPI)
	}
	ident := s.designatorIdent(ctx, codes, number)
	raws, _, err := s.aero.GetFlights(ctx, ident, providers.IdentTypeDesignator)
	if err != nil {
		return models.CanonicalLeg{}, err
	}
	day := time.Time{}
	if !on.IsZero() {
		day = models.DayStart(on)
	}
	leg, err := selectFlight(raws, day)
	if err != nil {
		return leg, fmt.Errorf("%s: %w", ident, err)
	}
	s.attachTrack(ctx, &leg)
	return leg, nil
}

// designatorIdent builds an AeroAPI designator, converting an IATA airline
// code to ICAO when the log knows the airline.
func (s *ImportService) designatorIdent(ctx context.Context, codes models.CodeSet, number string) string {
	code := s.knownAirlineCodes(ctx, codes).ICAO
	if code == "" {
		code = codes.IATA
	}
	return strings.ToUpper(code) + models.NormalizeFlightNumber(number)
}

// knownAirlineCodes fills in whichever code is missing from codes using the
// airline row the log has for them. Unknown airlines come back unchanged.
func (s *ImportService) knownAirlineCodes(ctx context.Context, codes models.CodeSet) models.CodeSet {
	if codes.IsZero() || (codes.ICAO != "" && codes.IATA != "") {
		return codes
	}
	id, err := s.resolver.ResolveAirlineCodes(ctx, codes)
	if err != nil {
		return codes
	}
	airline, err := s.airlines.FindByID(ctx, id)
	if err != nil || airline == nil {
		return codes
	}
	if codes.ICAO == "" {
		codes.ICAO = airline.ICAOCode
	}
	if codes.IATA == "" && airline.IATACode != nil {
		codes.IATA = *airline.IATACode
	}
	return codes
}

func (s *ImportService) attachTrack(ctx context.Context, leg *models.CanonicalLeg) {
	if leg.FAFlightID == "" {
		return
	}
	track, _, err := s.aero.GetTrack(ctx, leg.FAFlightID)
	if err != nil {
		logging.Warn("Track unavailable, flight stored without geometry", "fa_flight_id", leg.FAFlightID, "error", err)
		return
	}
	providers.ApplyAeroAPITrack(leg, track)
}

// selectFlight picks a completed flight from an AeroAPI result. With a day
// it takes the flight departing closest to that UTC day, at most one day
// off since pass dates are local; without one it takes the latest.
func selectFlight(raws []json.RawMessage, day time.Time) (models.CanonicalLeg, error) {
	var (
		best     *models.CanonicalLeg
		bestDiff time.Duration
		lastErr  error
	)
	for _, raw := range raws {
		leg, err := providers.MapAeroAPIFlight(raw)
		if err != nil {
			lastErr = err
			continue
		}

		if day.IsZero() {
			if best == nil || leg.DepartureUTC().After(best.DepartureUTC()) {
				best = &leg
			}
			continue
		}

		diff := leg.DepartureDay().Sub(day)
		if diff < 0 {
			diff = -diff
		}
		if diff > 24*time.Hour {
			continue
		}
		if best == nil || diff < bestDiff {
			best, bestDiff = &leg, diff
		}
	}

	if best != nil {
		return *best, nil
	}
	// lastErr stays reachable through errors.Is, e.g. ErrFlightInProgress.
	return models.CanonicalLeg{}, &providers.ProviderError{
		Code:    constants.ErrCodeNoFlightsFound,
		Message: constants.GetErrorMessage(constants.ErrCodeNoFlightsFound),
		Err:     lastErr,
	}
}

// applyMarketing records codes and number as the marketing designator of
// leg. Callers only pass designators that were printed or typed as a pair.
// When they name a different airline than the provider's, the provider's
// airline becomes the operator.
func applyMarketing(leg *models.CanonicalLeg, codes models.CodeSet, number string) {
	if codes.IsZero() || leg.Marketing.Matches(codes) {
		return
	}
	leg.Operating, leg.OperatingSeed = leg.Marketing, leg.MarketingSeed
	leg.Marketing, leg.MarketingSeed = codes, nil
	if number != "" {
		leg.FlightNumber = models.NormalizeFlightNumber(number)
	}
}
