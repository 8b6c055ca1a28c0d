package bcbp

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/flightlog/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type testLeg struct {
	from, to, carrier, flight string
	julian                    string
	marketing                 string
	airlineData               string
}

func header(legs int, name string) string {
	return fmt.Sprintf("M%d%-20sE", legs, name)
}

func repeatedItems(marketing string) string {
	return fmt.Sprintf("%-3s%-10s%1s%1s%-3s", "006", "2312345678", "0", " ", marketing)
}

// build assembles a barcode from legs, giving the first leg a conditional
// unique block when any leg carries conditional data.
func build(name string, legs []testLeg, security string) string {
	var b strings.Builder
	b.WriteString(header(len(legs), name))
	for i, l := range legs {
		variable := ""
		if l.marketing != "" || l.airlineData != "" {
			rep := repeatedItems(l.marketing)
			variable = fmt.Sprintf("%02X%s%s", len(rep), rep, l.airlineData)
			if i == 0 {
				unique := "1WW4017EDL "
				variable = fmt.Sprintf(">6%02X%s", len(unique), unique) + variable
			}
		}
		fmt.Fprintf(&b, "%-7s%-3s%-3s%-3s%-5s%3s%s%-4s%-5s%s%02X%s",
			"ABC123", l.from, l.to, l.carrier, l.flight, l.julian, "Y", "012A", "0025", "1", len(variable), variable)
	}
	b.WriteString(security)
	return b.String()
}

func TestDecode_StandardExample(t *testing.T) {
	text := "M1" + "DESMARAIS/LUC" + strings.Repeat(" ", 7) + "E" + "ABC123 YULFRAAC 0834 326J001A0025 100"
	require.Len(t, text, 60)

	bp, err := Decode(text, Options{Reference: day(2024, 12, 1)})
	require.NoError(t, err)

	assert.Equal(t, "DESMARAIS/LUC", bp.PassengerName)
	assert.True(t, bp.ETicket)
	require.Len(t, bp.Legs, 1)

	leg := bp.Legs[0]
	assert.Equal(t, "ABC123", leg.PNR)
	assert.Equal(t, "YUL", leg.From)
	assert.Equal(t, "FRA", leg.To)
	assert.Equal(t, "AC", leg.OperatingCarrier)
	assert.Equal(t, "834", leg.FlightNumber)
	assert.Equal(t, 326, leg.JulianDate)
	assert.Equal(t, day(2024, 11, 21), leg.FlightDate)
	assert.Equal(t, "J", leg.Compartment)
	assert.Equal(t, "001A", leg.Seat)
	assert.Empty(t, bp.Security)
}

func TestDecode_RoundTripLegCounts(t *testing.T) {
	all := []testLeg{
		{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "045", marketing: "B6 ", airlineData: "X1"},
		{from: "JFK", to: "LHR", carrier: "BA", flight: "0112", julian: "045", marketing: "AA "},
		{from: "LHR", to: "FRA", carrier: "LH", flight: "00921", julian: "046"},
		{from: "FRA", to: "NRT", carrier: "NH", flight: "0204", julian: "047", marketing: "UA ", airlineData: "PRIVATE"},
	}
	ref := Options{Reference: day(2024, 3, 1)}

	for n := 1; n <= len(all); n++ {
		t.Run(fmt.Sprintf("%d legs", n), func(t *testing.T) {
			text := build("TRAVELER/PAT", all[:n], "^100")
			bp, err := Decode(text, ref)
			require.NoError(t, err)
			require.Len(t, bp.Legs, n)
			assert.Equal(t, "^100", bp.Security)

			for i, got := range bp.Legs {
				want := all[i]
				assert.Equal(t, i+1, got.Index)
				assert.Equal(t, want.from, got.From)
				assert.Equal(t, want.to, got.To)
				assert.Equal(t, want.carrier, got.OperatingCarrier)
				assert.Equal(t, models.NormalizeFlightNumber(want.flight), got.FlightNumber)
				assert.Equal(t, strings.TrimSpace(want.marketing), got.MarketingCarrier)
				assert.Equal(t, want.airlineData, got.AirlineData)
			}
			if n >= 1 && all[0].marketing != "" {
				assert.Equal(t, "6", bp.Version)
			}
		})
	}
}

func TestDecode_FlightNumberNormalisation(t *testing.T) {
	text := build("A/B", []testLeg{
		{from: "BOS", to: "JFK", carrier: "B6", flight: "0021A", julian: "010"},
		{from: "JFK", to: "BOS", carrier: "B6", flight: "00000", julian: "011"},
	}, "")
	bp, err := Decode(text, Options{Reference: day(2024, 6, 1)})
	require.NoError(t, err)
	require.Len(t, bp.Legs, 2)
	assert.Equal(t, "21A", bp.Legs[0].FlightNumber)
	assert.Equal(t, "0", bp.Legs[1].FlightNumber)
}

func TestResolveJulianDate(t *testing.T) {
	cases := []struct {
		name   string
		julian int
		latest time.Time
		want   time.Time
	}{
		{"earlier day picks current year", 60, day(2024, 3, 1), day(2024, 2, 29)},
		{"same day picks current year", 61, day(2024, 3, 1), day(2024, 3, 1)},
		{"later day picks prior year", 62, day(2024, 3, 1), day(2023, 3, 3)},
		{"day 366 skips non-leap years", 366, day(2024, 6, 1), day(2020, 12, 31)},
		{"day 366 in leap year", 366, day(2025, 1, 5), day(2024, 12, 31)},
		{"new year wrap", 365, day(2025, 1, 2), day(2024, 12, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveJulianDate(tc.julian, tc.latest)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, ok := ResolveJulianDate(0, day(2024, 1, 1))
	assert.False(t, ok)
	_, ok = ResolveJulianDate(367, day(2024, 1, 1))
	assert.False(t, ok)
}

func TestDecode_Lookahead(t *testing.T) {
	text := build("A/B", []testLeg{{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "062"}}, "")

	bp, err := Decode(text, Options{Reference: day(2024, 3, 1)})
	require.NoError(t, err)
	assert.Equal(t, day(2023, 3, 3), bp.Legs[0].FlightDate)

	bp, err = Decode(text, Options{Reference: day(2024, 3, 1), Lookahead: 72 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 2), bp.Legs[0].FlightDate)
}

func TestDecode_ReferenceUsesCivilDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 08:00 on 2 January in Tokyo is still 1 January in UTC.
	ref := time.Date(2024, 1, 2, 8, 0, 0, 0, tokyo)
	text := build("A/B", []testLeg{{from: "NRT", to: "HND", carrier: "NH", flight: "0001", julian: "002"}}, "")

	bp, err := Decode(text, Options{Reference: ref})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 2), bp.Legs[0].FlightDate)
}

func TestDecode_BadDateReportsOffset(t *testing.T) {
	text := build("A/B", []testLeg{{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "X45"}}, "")

	bp, err := Decode(text, Options{Reference: day(2024, 3, 1)})
	require.Error(t, err)
	require.NotNil(t, bp)
	assert.Empty(t, bp.Legs)

	var mbe *MalformedBarcodeError
	require.True(t, errors.As(err, &mbe))
	assert.Equal(t, "date of flight", mbe.Field)
	assert.Equal(t, headerLength+7+3+3+3+5, mbe.Offset)
	assert.Equal(t, 1, mbe.Leg)
}

func TestDecode_BadLegDoesNotPoisonSiblings(t *testing.T) {
	text := build("A/B", []testLeg{
		{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "045"},
		{from: "JFK", to: "LHR", carrier: "BA", flight: "ABCDE", julian: "045"},
		{from: "LHR", to: "FRA", carrier: "LH", flight: "0921", julian: "046"},
	}, "")

	bp, err := Decode(text, Options{Reference: day(2024, 3, 1)})
	require.Error(t, err)
	require.Len(t, bp.Legs, 2)
	assert.Equal(t, "BOS", bp.Legs[0].From)
	assert.Equal(t, "LHR", bp.Legs[1].From)

	var mbe *MalformedBarcodeError
	require.True(t, errors.As(err, &mbe))
	assert.Equal(t, "flight number", mbe.Field)
	assert.Equal(t, 2, mbe.Leg)
}

func TestDecode_TruncatedLegKeepsEarlierLegs(t *testing.T) {
	full := build("A/B", []testLeg{
		{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "045"},
		{from: "JFK", to: "LHR", carrier: "BA", flight: "0112", julian: "045"},
	}, "")
	text := full[:len(full)-10]

	bp, err := Decode(text, Options{Reference: day(2024, 3, 1)})
	require.Error(t, err)
	require.Len(t, bp.Legs, 1)

	var mbe *MalformedBarcodeError
	require.True(t, errors.As(err, &mbe))
	assert.Equal(t, 2, mbe.Leg)
	assert.Equal(t, headerLength+mandatoryLength, mbe.Offset)
}

func TestDecode_DeclaredSizeBeyondText(t *testing.T) {
	text := build("A/B", []testLeg{{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "045", marketing: "B6 "}}, "")
	text = text[:len(text)-3]

	_, err := Decode(text, Options{Reference: day(2024, 3, 1)})
	var mbe *MalformedBarcodeError
	require.True(t, errors.As(err, &mbe))
	assert.Equal(t, "conditional items", mbe.Field)
}

func TestDecode_HeaderErrors(t *testing.T) {
	valid := build("A/B", []testLeg{{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "045"}}, "")

	cases := map[string]string{
		"empty":            "",
		"short header":     "M1SMITH",
		"bad format":       "X" + valid[1:],
		"zero legs":        "M0" + valid[2:],
		"five legs":        "M5" + valid[2:],
		"non-numeric legs": "MZ" + valid[2:],
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			bp, err := Decode(text, Options{Reference: day(2024, 3, 1)})
			assert.Nil(t, bp)
			var mbe *MalformedBarcodeError
			require.True(t, errors.As(err, &mbe))
			assert.Zero(t, mbe.Leg)
		})
	}
}

func TestDecode_TrailingSpacesAreSignificant(t *testing.T) {
	text := "M1" + "DESMARAIS/LUC" + strings.Repeat(" ", 7) + "E" + "ABC123 YULFRAAC 0834 326J001A0025 100"
	// Collapsing the name padding shifts every later field.
	trimmed := strings.Replace(text, "LUC       E", "LUC E", 1)

	_, err := Decode(trimmed, Options{Reference: day(2024, 12, 1)})
	assert.Error(t, err)
}

func TestCanonicalLegs(t *testing.T) {
	text := build("A/B", []testLeg{
		{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "045", marketing: "B6 "},
		{from: "JFK", to: "LHR", carrier: "BA", flight: "0112", julian: "045", marketing: "AA "},
	}, "")
	bp, err := Decode(text, Options{Reference: day(2024, 3, 1)})
	require.NoError(t, err)

	legs := bp.CanonicalLegs()
	require.Len(t, legs, 2)

	assert.Equal(t, models.CodeSet{IATA: "B6"}, legs[0].Marketing)
	assert.True(t, legs[0].Operating.IsZero())
	assert.Equal(t, models.CodeSet{IATA: "BOS"}, legs[0].Origin)
	assert.Equal(t, day(2024, 2, 14), legs[0].DepartureDate)
	assert.True(t, legs[0].TicketedCarrier.IsZero())

	// The printed number is BA's; AA only sold the ticket.
	assert.Equal(t, models.CodeSet{IATA: "BA"}, legs[1].Marketing)
	assert.True(t, legs[1].Operating.IsZero())
	assert.Equal(t, "112", legs[1].FlightNumber)
	assert.Equal(t, models.CodeSet{IATA: "AA"}, legs[1].TicketedCarrier)
	assert.True(t, legs[1].Codeshare.IsZero())
	assert.Equal(t, models.CodeSet{IATA: "LHR"}, legs[1].Destination)
}

func TestCanonicalLegs_CarryBarcodeText(t *testing.T) {
	text := build("A/B", []testLeg{{from: "BOS", to: "JFK", carrier: "B6", flight: "0218", julian: "045"}}, "")
	bp, err := Decode(text, Options{Reference: day(2024, 3, 1)})
	require.NoError(t, err)

	legs := bp.CanonicalLegs()
	require.Len(t, legs, 1)
	assert.Equal(t, text, legs[0].BoardingPassData)
	assert.Nil(t, legs[0].Departure)
}
