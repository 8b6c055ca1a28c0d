package api

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/models/gorm"
)

// RoutesGeoJSON handles GET /routes.geojson. A route between an airport
// and itself has no line and is served as a point.
func (h *Handlers) RoutesGeoJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes, err := h.routes.All(r.Context())
		if err != nil {
			logging.Error("Failed to load routes", "error", err)
			respondWithError(w, r, http.StatusInternalServerError, "failed to load routes")
			return
		}

		fc := geojson.NewFeatureCollection()
		for _, route := range routes {
			feature := routeFeature(route)
			if feature == nil {
				continue
			}
			fc.Append(feature)
		}
		writeJSON(w, http.StatusOK, "application/geo+json", fc)
	}
}

func routeFeature(route gorm.Route) *geojson.Feature {
	var geom orb.Geometry
	switch {
	case len(route.Geometry) >= 2:
		geom = route.Geometry.Orb()
	case route.Airport1 != nil && route.Airport1.HasCoordinates():
		geom = orb.Point{*route.Airport1.Longitude, *route.Airport1.Latitude}
	default:
		return nil
	}

	feature := geojson.NewFeature(geom)
	feature.ID = route.ID
	feature.Properties["flight_count"] = route.FlightCount
	feature.Properties["distance_mi"] = route.DistanceMi
	if route.Airport1 != nil {
		feature.Properties["airport1"] = route.Airport1.Code()
	}
	if route.Airport2 != nil {
		feature.Properties["airport2"] = route.Airport2.Code()
	}
	return feature
}
