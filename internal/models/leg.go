package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"infinite-experiment/flightlog/internal/geometry"
)

// CodeKind names a designator system.
type CodeKind string

const (
	CodeICAO CodeKind = "icao"
	CodeIATA CodeKind = "iata"
)

// Column is the table column holding codes of this kind.
func (k CodeKind) Column() string {
	return string(k) + "_code"
}

// KindForAirline infers the kind from length: 2 letters IATA, 3 ICAO.
func KindForAirline(code string) CodeKind {
	if len(strings.TrimSpace(code)) == 3 {
		return CodeICAO
	}
	return CodeIATA
}

// KindForAirport infers the kind from length: 3 letters IATA, 4 ICAO.
func KindForAirport(code string) CodeKind {
	if len(strings.TrimSpace(code)) == 4 {
		return CodeICAO
	}
	return CodeIATA
}

// CodeSet carries whatever designators a source knows for one entity.
type CodeSet struct {
	ICAO string `json:"icao,omitempty"`
	IATA string `json:"iata,omitempty"`
}

func (c CodeSet) IsZero() bool { return c.ICAO == "" && c.IATA == "" }

// String prefers the IATA code, which is what boarding passes and humans use.
func (c CodeSet) String() string {
	if c.IATA != "" {
		return c.IATA
	}
	return c.ICAO
}

// Matches compares codes of the same kind: ICAO when both carry one, else IATA.
func (c CodeSet) Matches(o CodeSet) bool {
	if c.ICAO != "" && o.ICAO != "" {
		return strings.EqualFold(c.ICAO, o.ICAO)
	}
	return c.IATA != "" && strings.EqualFold(c.IATA, o.IATA)
}

// AirlineCodes classifies a bare airline designator: 3 letters ICAO, else IATA.
func AirlineCodes(code string) CodeSet {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) == 3 {
		return CodeSet{ICAO: code}
	}
	return CodeSet{IATA: code}
}

// AirportCodes classifies a bare airport code: 4 letters ICAO, else IATA.
func AirportCodes(code string) CodeSet {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) == 4 {
		return CodeSet{ICAO: code}
	}
	return CodeSet{IATA: code}
}

// AirportSeed holds enough metadata to create an airport row on a registry miss.
type AirportSeed struct {
	ICAO      string
	IATA      string
	Name      string
	City      string
	Country   string
	Timezone  string
	Latitude  *float64
	Longitude *float64
}

func (s AirportSeed) Codes() CodeSet { return CodeSet{ICAO: s.ICAO, IATA: s.IATA} }

// AirlineSeed holds enough metadata to create an airline row on a registry miss.
type AirlineSeed struct {
	ICAO string
	IATA string
	Name string
}

func (s AirlineSeed) Codes() CodeSet { return CodeSet{ICAO: s.ICAO, IATA: s.IATA} }

// CanonicalLeg is the source-independent description of one flight leg
// handed to the ingestion engine. It is never persisted.
type CanonicalLeg struct {
	Marketing    CodeSet
	FlightNumber string

	// Operating is empty when the marketing carrier flew the leg.
	Operating CodeSet

	Codeshare             CodeSet
	CodeshareFlightNumber string
	// Codeshares lists every designator a provider reports for the leg.
	// Only SelectCodeshare moves one of them into the codeshare slot.
	Codeshares []Designator
	// TicketedCarrier is the airline a boarding pass names as having sold
	// the ticket. It carries no flight number of its own.
	TicketedCarrier CodeSet

	Origin      CodeSet
	Destination CodeSet

	// DepartureDate is the civil departure date at UTC midnight.
	DepartureDate time.Time
	Departure     *time.Time
	Arrival       *time.Time

	FAFlightID string
	FHID       *int64
	RawPayload json.RawMessage

	AircraftType string
	TailNumber   string
	// BoardingPassData is the barcode text the leg was decoded from.
	BoardingPassData string

	Track      geometry.Track
	GeomSource string
	DistanceMi *int
	Note       string

	OriginSeed      *AirportSeed
	DestinationSeed *AirportSeed
	MarketingSeed   *AirlineSeed
	OperatingSeed   *AirlineSeed
	CodeshareSeed   *AirlineSeed
}

// Designator is an airline paired with one of its flight numbers.
type Designator struct {
	Airline CodeSet
	Number  string
}

func (d Designator) String() string { return d.Airline.String() + d.Number }

// SelectCodeshare fills the codeshare slot with the entry of Codeshares
// sold by carrier. It returns false and leaves the leg untouched when
// carrier is the marketing carrier or has no entry.
func (l *CanonicalLeg) SelectCodeshare(carrier CodeSet) bool {
	if carrier.IsZero() || l.Marketing.Matches(carrier) {
		return false
	}
	for _, d := range l.Codeshares {
		if !d.Airline.Matches(carrier) || d.Number == "" {
			continue
		}
		l.Codeshare = d.Airline
		l.CodeshareFlightNumber = NormalizeFlightNumber(d.Number)
		l.CodeshareSeed = &AirlineSeed{ICAO: d.Airline.ICAO, IATA: d.Airline.IATA}
		return true
	}
	return false
}

// DepartureUTC is the exact departure when known, else the departure date.
func (l CanonicalLeg) DepartureUTC() time.Time {
	if l.Departure != nil {
		return l.Departure.UTC()
	}
	return l.DepartureDate.UTC()
}

// DepartureDay is the UTC calendar day of departure, used for deduplication.
func (l CanonicalLeg) DepartureDay() time.Time {
	return DayStart(l.DepartureUTC())
}

func (l CanonicalLeg) String() string {
	day := "????-??-??"
	if d := l.DepartureUTC(); !d.IsZero() {
		day = d.Format("2006-01-02")
	}
	return fmt.Sprintf("%s %s %s %s-%s", day, l.Marketing, l.FlightNumber, l.Origin, l.Destination)
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeFlightNumber trims the number and drops leading zeros, "0" when
// nothing is left. An optional trailing letter is kept as is.
func NormalizeFlightNumber(number string) string {
	n := strings.TrimLeft(strings.TrimSpace(number), "0")
	if n == "" {
		return "0"
	}
	return strings.ToUpper(n)
}
