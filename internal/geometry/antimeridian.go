package geometry

import "math"

// SplitAtAntimeridian cuts a track wherever consecutive positions jump more
// than 180 degrees of longitude. A crossing vertex is interpolated at +/-180
// and closes one line and opens the next. Lines left with fewer than two
// positions are dropped.
func SplitAtAntimeridian(points []TrackPoint) Track {
	if len(points) == 0 {
		return nil
	}

	var out Track
	current := TrackLine{points[0]}
	for i := 1; i < len(points); i++ {
		prev, next := points[i-1], points[i]
		if math.Abs(next.Lon-prev.Lon) <= 180 {
			current = append(current, next)
			continue
		}

		if math.Abs(prev.Lon) == 180 {
			// Already sitting on the meridian, nothing to interpolate.
			out = appendLine(out, current)
			current = TrackLine{{Lon: -prev.Lon, Lat: prev.Lat, AltM: prev.AltM}, next}
			continue
		}

		edge := 180.0
		shifted := next.Lon + 360
		if prev.Lon < 0 {
			edge = -180
			shifted = next.Lon - 360
		}
		f := (edge - prev.Lon) / (shifted - prev.Lon)
		lat := prev.Lat + f*(next.Lat-prev.Lat)
		alt := prev.AltM + f*(next.AltM-prev.AltM)

		current = append(current, TrackPoint{Lon: edge, Lat: lat, AltM: alt})
		out = appendLine(out, current)
		current = TrackLine{{Lon: -edge, Lat: lat, AltM: alt}}
		if math.Abs(next.Lon) != 180 {
			current = append(current, next)
		}
	}
	return appendLine(out, current)
}

func appendLine(t Track, line TrackLine) Track {
	if len(line) < 2 {
		return t
	}
	return append(t, line)
}
