package geometry

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	// EarthRadiusKm is the mean earth radius used for arc length.
	EarthRadiusKm = 6371.0088
	// MetersPerMile converts haversine metres to statute miles.
	MetersPerMile = 1609.344

	DefaultStepKm            = 100.0
	DefaultPolarThresholdDeg = 10.0
	DefaultPolarDensity      = 4
)

// ErrAntipodal is returned when the great circle between two points is not unique.
var ErrAntipodal = errors.New("geometry: endpoints are antipodal")

// GreatCircleOptions tunes vertex spacing. Zero values take the defaults.
type GreatCircleOptions struct {
	StepKm            float64
	PolarThresholdDeg float64
	PolarDensity      int
}

func (o GreatCircleOptions) withDefaults() GreatCircleOptions {
	if o.StepKm <= 0 {
		o.StepKm = DefaultStepKm
	}
	if o.PolarThresholdDeg <= 0 {
		o.PolarThresholdDeg = DefaultPolarThresholdDeg
	}
	if o.PolarDensity < 1 {
		o.PolarDensity = DefaultPolarDensity
	}
	return o
}

type vec3 struct{ x, y, z float64 }

func toVec(p orb.Point) vec3 {
	lon := p.Lon() * math.Pi / 180
	lat := p.Lat() * math.Pi / 180
	return vec3{
		x: math.Cos(lat) * math.Cos(lon),
		y: math.Cos(lat) * math.Sin(lon),
		z: math.Sin(lat),
	}
}

func (v vec3) point() orb.Point {
	lat := math.Atan2(v.z, math.Hypot(v.x, v.y))
	lon := math.Atan2(v.y, v.x)
	return orb.Point{lon * 180 / math.Pi, lat * 180 / math.Pi}
}

func (v vec3) scale(f float64) vec3 { return vec3{v.x * f, v.y * f, v.z * f} }
func (v vec3) add(o vec3) vec3      { return vec3{v.x + o.x, v.y + o.y, v.z + o.z} }
func (v vec3) dot(o vec3) float64   { return v.x*o.x + v.y*o.y + v.z*o.z }
func (v vec3) cross(o vec3) vec3 {
	return vec3{v.y*o.z - v.z*o.y, v.z*o.x - v.x*o.z, v.x*o.y - v.y*o.x}
}
func (v vec3) norm() float64 { return math.Sqrt(v.dot(v)) }

// CentralAngle returns the angle between a and b in radians.
func CentralAngle(a, b orb.Point) float64 {
	va, vb := toVec(a), toVec(b)
	return math.Atan2(va.cross(vb).norm(), va.dot(vb))
}

// GreatCircle returns the shortest great-circle path from a to b as a
// line string whose first vertex is a and last vertex is b. Longitudes
// are unwrapped so that consecutive vertices never jump by more than 180
// degrees; a path crossing the antimeridian may therefore leave the
// [-180, 180] range. Identical endpoints yield an empty line.
func GreatCircle(a, b orb.Point, opts GreatCircleOptions) (orb.LineString, error) {
	opts = opts.withDefaults()

	d := CentralAngle(a, b)
	if d < 1e-12 {
		return nil, nil
	}
	if math.Pi-d < 1e-9 {
		return nil, ErrAntipodal
	}

	va, vb := toVec(a), toVec(b)
	sinD := math.Sin(d)
	interp := func(f float64) orb.Point {
		wa := math.Sin((1-f)*d) / sinD
		wb := math.Sin(f*d) / sinD
		return va.scale(wa).add(vb.scale(wb)).point()
	}

	steps := int(math.Ceil(d * EarthRadiusKm / opts.StepKm))
	if steps < 1 {
		steps = 1
	}

	polarLat := 90 - opts.PolarThresholdDeg
	nearPole := func(p orb.Point) bool { return math.Abs(p.Lat()) >= polarLat }

	fractions := []float64{0}
	for i := 0; i < steps; i++ {
		f0 := float64(i) / float64(steps)
		f1 := float64(i+1) / float64(steps)
		if nearPole(interp(f0)) || nearPole(interp(f1)) {
			for j := 1; j < opts.PolarDensity; j++ {
				fractions = append(fractions, f0+(f1-f0)*float64(j)/float64(opts.PolarDensity))
			}
		}
		fractions = append(fractions, f1)
	}

	line := make(orb.LineString, 0, len(fractions))
	for i, f := range fractions {
		var p orb.Point
		switch i {
		case 0:
			p = a
		case len(fractions) - 1:
			p = b
		default:
			p = interp(f)
		}
		if i > 0 {
			p[0] = unwrap(line[i-1][0], p[0])
		}
		line = append(line, p)
	}
	return line, nil
}

// unwrap shifts lon by whole turns so it lies within 180 degrees of prev.
func unwrap(prev, lon float64) float64 {
	for lon-prev > 180 {
		lon -= 360
	}
	for lon-prev < -180 {
		lon += 360
	}
	return lon
}

// DistanceMiles is the haversine distance between a and b rounded to whole miles.
func DistanceMiles(a, b orb.Point) int {
	return int(math.Round(geo.DistanceHaversine(a, b) / MetersPerMile))
}

// LineDistanceMiles sums haversine distances along a track in whole miles.
func LineDistanceMiles(t Track) int {
	meters := 0.0
	for _, line := range t {
		for i := 1; i < len(line); i++ {
			meters += geo.DistanceHaversine(line[i-1].Point(), line[i].Point())
		}
	}
	return int(math.Round(meters / MetersPerMile))
}
