package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFlightNumber(t *testing.T) {
	cases := map[string]string{
		"0012 ": "12",
		"00000": "0",
		"1234A": "1234A",
		"  7":   "7",
		"0100":  "100",
		"":      "0",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeFlightNumber(in), "input %q", in)
	}
}

func TestCodeClassification(t *testing.T) {
	assert.Equal(t, CodeSet{ICAO: "AAL"}, AirlineCodes("aal"))
	assert.Equal(t, CodeSet{IATA: "AA"}, AirlineCodes("AA "))
	assert.Equal(t, CodeSet{ICAO: "KJFK"}, AirportCodes("KJFK"))
	assert.Equal(t, CodeSet{IATA: "JFK"}, AirportCodes("JFK"))
	assert.True(t, CodeSet{}.IsZero())
	assert.Equal(t, "AA", CodeSet{ICAO: "AAL", IATA: "AA"}.String())
}

func TestCanonicalLeg_DepartureDay(t *testing.T) {
	dep := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	leg := CanonicalLeg{
		DepartureDate: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		Departure:     &dep,
	}
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), leg.DepartureDay())

	leg.Departure = nil
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), leg.DepartureDay())
}

func TestCodeSet_Matches(t *testing.T) {
	assert.True(t, CodeSet{ICAO: "UAL", IATA: "UA"}.Matches(CodeSet{IATA: "ua"}))
	assert.True(t, CodeSet{ICAO: "UAL"}.Matches(CodeSet{ICAO: "UAL", IATA: "XX"}))
	assert.False(t, CodeSet{ICAO: "UAL", IATA: "UA"}.Matches(CodeSet{ICAO: "SKW", IATA: "UA"}))
	assert.False(t, CodeSet{ICAO: "UAL"}.Matches(CodeSet{IATA: "UA"}))
	assert.False(t, CodeSet{}.Matches(CodeSet{}))
}
