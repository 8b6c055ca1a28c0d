package constants

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixAeroFlights CachePrefix = "AERO_FLIGHTS_"
	CachePrefixAeroTrack   CachePrefix = "AERO_TRACK_"
	CachePrefixAirport     CachePrefix = "AIRPORT_"
	CachePrefixAirline     CachePrefix = "AIRLINE_"
)

// Key joins the prefix with the parts of a cache key.
func (p CachePrefix) Key(parts ...string) string {
	key := string(p)
	for i, part := range parts {
		if i > 0 {
			key += ":"
		}
		key += part
	}
	return key
}
