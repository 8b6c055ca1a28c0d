package bcbp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"infinite-experiment/flightlog/internal/models"
)

const (
	headerLength    = 23
	mandatoryLength = 37
	maxLegs         = 4

	// Leap years can be eight years apart across a century boundary.
	julianSearchYears = 8
)

var (
	flightNumberPattern = regexp.MustCompile(`^[0-9]{1,4}[0-9A-Za-z]?$`)
	airportPattern      = regexp.MustCompile(`^[A-Za-z]{3}$`)
	carrierPattern      = regexp.MustCompile(`^[A-Za-z0-9]{2,3}$`)
)

// Options control date resolution. The zero value resolves against the
// current time with no lookahead.
type Options struct {
	// Reference is the civil date the pass is interpreted against.
	Reference time.Time
	// Lookahead lets flight dates fall slightly after Reference.
	Lookahead time.Duration
}

// BoardingPass is a decoded IATA bar-coded boarding pass.
type BoardingPass struct {
	Raw           string
	FormatCode    string
	PassengerName string
	ETicket       bool
	Version       string
	Legs          []Leg
	Security      string
}

// Leg is one flight segment of a boarding pass.
type Leg struct {
	Index            int
	PNR              string
	From             string
	To               string
	OperatingCarrier string
	FlightNumber     string
	JulianDate       int
	FlightDate       time.Time
	Compartment      string
	Seat             string
	CheckInSequence  string
	PassengerStatus  string

	AirlineNumericCode string
	DocumentSerial     string
	MarketingCarrier   string
	AirlineData        string
}

func (l Leg) String() string {
	return fmt.Sprintf("%s %s %s %s-%s", l.FlightDate.Format("2006-01-02"), l.OperatingCarrier, l.FlightNumber, l.From, l.To)
}

// rawLeg holds the undecoded fixed-width fields of one leg together with
// the offsets needed to report conversion failures.
type rawLeg struct {
	index    int
	fields   map[string]string
	offsets  map[string]int
	version  string
	repeated string
	airline  string
}

var mandatoryFields = []struct {
	name   string
	length int
}{
	{"operating carrier PNR code", 7},
	{"from city airport code", 3},
	{"to city airport code", 3},
	{"operating carrier designator", 3},
	{"flight number", 5},
	{"date of flight", 3},
	{"compartment code", 1},
	{"seat number", 4},
	{"check-in sequence number", 5},
	{"passenger status", 1},
}

// Decode parses text into a boarding pass. Header errors return a nil
// pass. A leg whose fields cannot be converted is skipped and reported;
// a leg whose structure is broken stops decoding. In both cases the legs
// decoded so far are returned together with the error.
func Decode(text string, opts Options) (*BoardingPass, error) {
	ref := opts.Reference
	if ref.IsZero() {
		ref = time.Now()
	}

	c := cursor{text: text}
	bp := &BoardingPass{Raw: text}

	var (
		field string
		err   error
	)
	if bp.FormatCode, c, err = c.take(1, "format code"); err != nil {
		return nil, err
	}
	if bp.FormatCode != "M" {
		return nil, &MalformedBarcodeError{Offset: 0, Field: "format code", Reason: fmt.Sprintf("unsupported format %q", bp.FormatCode)}
	}

	legCountAt := c
	if field, c, err = c.take(1, "number of legs encoded"); err != nil {
		return nil, err
	}
	legCount, convErr := strconv.Atoi(field)
	if convErr != nil || legCount < 1 || legCount > maxLegs {
		return nil, legCountAt.fail("number of legs encoded", fmt.Sprintf("%q is not between 1 and %d", field, maxLegs))
	}

	if field, c, err = c.take(20, "passenger name"); err != nil {
		return nil, err
	}
	bp.PassengerName = strings.TrimRight(field, " ")

	if field, c, err = c.take(1, "electronic ticket indicator"); err != nil {
		return nil, err
	}
	bp.ETicket = field == "E"

	var errs []error
	structural := false
	for i := 0; i < legCount; i++ {
		c.leg = i + 1
		var raw rawLeg
		raw, c, err = readLeg(c, i == 0)
		if err != nil {
			errs = append(errs, err)
			structural = true
			break
		}
		if i == 0 {
			bp.Version = raw.version
		}

		leg, err := raw.decode(ref.Add(opts.Lookahead))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		bp.Legs = append(bp.Legs, leg)
	}

	if !structural && c.remaining() > 0 {
		bp.Security = text[c.pos:]
	}

	switch len(errs) {
	case 0:
		return bp, nil
	case 1:
		return bp, errs[0]
	default:
		return bp, errors.Join(errs...)
	}
}

// readLeg consumes the mandatory block and the declared variable section
// of one leg.
func readLeg(c cursor, first bool) (rawLeg, cursor, error) {
	raw := rawLeg{
		index:   c.leg,
		fields:  make(map[string]string, len(mandatoryFields)),
		offsets: make(map[string]int, len(mandatoryFields)),
	}
	if c.remaining() < mandatoryLength {
		return raw, c, c.fail("mandatory items", fmt.Sprintf("need %d characters, %d left", mandatoryLength, c.remaining()))
	}

	var (
		value string
		err   error
	)
	for _, f := range mandatoryFields {
		raw.offsets[f.name] = c.pos
		if value, c, err = c.take(f.length, f.name); err != nil {
			return raw, c, err
		}
		raw.fields[f.name] = value
	}

	varSize, c, err := c.takeHex("field size of variable size field")
	if err != nil {
		return raw, c, err
	}
	if c.remaining() < varSize {
		return raw, c, c.fail("conditional items", fmt.Sprintf("declared %d characters, %d left", varSize, c.remaining()))
	}
	end := c.pos + varSize
	w := c.window(varSize)

	if first && varSize > 0 {
		if varSize < 4 {
			// Too short to carry the unique block size; nothing usable.
			w.pos = end
		} else {
			if _, w, err = w.take(1, "beginning of version number"); err != nil {
				return raw, c, err
			}
			if raw.version, w, err = w.take(1, "version number"); err != nil {
				return raw, c, err
			}
			var uniqueSize int
			if uniqueSize, w, err = w.takeHex("field size of following structured message - unique"); err != nil {
				return raw, c, err
			}
			if _, w, err = w.take(uniqueSize, "conditional unique items"); err != nil {
				return raw, c, err
			}
		}
	}

	if w.remaining() >= 2 {
		var repeatedSize int
		if repeatedSize, w, err = w.takeHex("field size of following structured message - repeated"); err != nil {
			return raw, c, err
		}
		if raw.repeated, w, err = w.take(repeatedSize, "conditional repeated items"); err != nil {
			return raw, c, err
		}
	}
	raw.airline = w.text[w.pos:end]

	c.pos = end
	return raw, c, nil
}

func (r rawLeg) fail(field, reason string) *MalformedBarcodeError {
	return &MalformedBarcodeError{Offset: r.offsets[field], Field: field, Reason: reason, Leg: r.index}
}

// decode converts the raw fields. latest is the newest acceptable flight date.
func (r rawLeg) decode(latest time.Time) (Leg, error) {
	leg := Leg{
		Index:           r.index,
		PNR:             strings.TrimSpace(r.fields["operating carrier PNR code"]),
		Compartment:     strings.TrimSpace(r.fields["compartment code"]),
		Seat:            strings.TrimSpace(r.fields["seat number"]),
		CheckInSequence: strings.TrimSpace(r.fields["check-in sequence number"]),
		PassengerStatus: strings.TrimSpace(r.fields["passenger status"]),
		AirlineData:     r.airline,
	}

	for _, name := range []string{"from city airport code", "to city airport code"} {
		code := strings.TrimSpace(r.fields[name])
		if !airportPattern.MatchString(code) {
			return leg, r.fail(name, fmt.Sprintf("%q is not an airport code", r.fields[name]))
		}
		if name == "from city airport code" {
			leg.From = strings.ToUpper(code)
		} else {
			leg.To = strings.ToUpper(code)
		}
	}

	carrier := strings.TrimSpace(r.fields["operating carrier designator"])
	if !carrierPattern.MatchString(carrier) {
		return leg, r.fail("operating carrier designator", fmt.Sprintf("%q is not an airline designator", r.fields["operating carrier designator"]))
	}
	leg.OperatingCarrier = strings.ToUpper(carrier)

	number := strings.TrimSpace(r.fields["flight number"])
	if !flightNumberPattern.MatchString(number) {
		return leg, r.fail("flight number", fmt.Sprintf("%q is not a flight number", r.fields["flight number"]))
	}
	leg.FlightNumber = models.NormalizeFlightNumber(number)

	dateField := r.fields["date of flight"]
	day, err := strconv.Atoi(strings.TrimSpace(dateField))
	if err != nil || day < 1 || day > 366 {
		return leg, r.fail("date of flight", fmt.Sprintf("%q is not a day of year", dateField))
	}
	leg.JulianDate = day
	date, ok := ResolveJulianDate(day, latest)
	if !ok {
		return leg, r.fail("date of flight", fmt.Sprintf("no year within %d of %s has day %d", julianSearchYears, latest.Format("2006-01-02"), day))
	}
	leg.FlightDate = date

	if len(r.repeated) >= 3 {
		leg.AirlineNumericCode = strings.TrimSpace(r.repeated[0:3])
	}
	if len(r.repeated) >= 13 {
		leg.DocumentSerial = strings.TrimSpace(r.repeated[3:13])
	}
	if len(r.repeated) >= 18 {
		leg.MarketingCarrier = strings.ToUpper(strings.TrimSpace(r.repeated[15:18]))
	}
	return leg, nil
}

// ResolveJulianDate returns the most recent date at UTC midnight whose
// day of year is day and which falls on or before the civil date of
// latest. Day 366 only matches leap years.
func ResolveJulianDate(day int, latest time.Time) (time.Time, bool) {
	if day < 1 || day > 366 {
		return time.Time{}, false
	}
	limit := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, time.UTC)
	for year := limit.Year(); year > limit.Year()-julianSearchYears; year-- {
		candidate := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
		if candidate.Year() != year {
			continue
		}
		if candidate.After(limit) {
			continue
		}
		return candidate, true
	}
	return time.Time{}, false
}

// CanonicalLegs converts every decoded leg. The printed flight number
// belongs to the operating carrier, so that carrier is the marketing
// carrier of the leg. A differing conditional marketing carrier is kept as
// TicketedCarrier only, since the pass does not carry its flight number.
func (bp *BoardingPass) CanonicalLegs() []models.CanonicalLeg {
	out := make([]models.CanonicalLeg, 0, len(bp.Legs))
	for _, leg := range bp.Legs {
		cl := models.CanonicalLeg{
			Marketing:        models.AirlineCodes(leg.OperatingCarrier),
			FlightNumber:     leg.FlightNumber,
			Origin:           models.AirportCodes(leg.From),
			Destination:      models.AirportCodes(leg.To),
			DepartureDate:    leg.FlightDate,
			BoardingPassData: bp.Raw,
		}
		if leg.MarketingCarrier != "" && leg.MarketingCarrier != leg.OperatingCarrier {
			cl.TicketedCarrier = models.AirlineCodes(leg.MarketingCarrier)
		}
		out = append(out, cl)
	}
	return out
}

// String renders the pass with spaces made visible.
func (bp *BoardingPass) String() string {
	return strings.ReplaceAll(bp.Raw, " ", "·")
}
