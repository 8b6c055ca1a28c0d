package geometry

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// LineString is a 2-D line string column persisted as WKB.
type LineString orb.LineString

// Orb returns the value as an orb geometry.
func (l LineString) Orb() orb.LineString { return orb.LineString(l) }

func (l LineString) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return wkb.Marshal(orb.LineString(l))
}

func (l *LineString) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("geometry: cannot scan %T into LineString", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}

	g, err := wkb.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("geometry: decode wkb: %w", err)
	}
	ls, ok := g.(orb.LineString)
	if !ok {
		return fmt.Errorf("geometry: expected LineString, got %s", g.GeoJSONType())
	}
	*l = LineString(ls)
	return nil
}

func (LineString) GormDataType() string { return "bytes" }

func (LineString) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "bytea"
	}
	return "blob"
}

// TrackPoint is one position of a flown track. AltM is metres above sea level.
type TrackPoint struct {
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	AltM float64 `json:"alt_m"`
}

func (p TrackPoint) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// TrackLine is a contiguous run of positions that never crosses the antimeridian.
type TrackLine []TrackPoint

// Track is a 3-D multi line string stored as JSON text.
type Track []TrackLine

// MultiLineString drops altitude for 2-D consumers such as GeoJSON output.
func (t Track) MultiLineString() orb.MultiLineString {
	mls := make(orb.MultiLineString, 0, len(t))
	for _, line := range t {
		ls := make(orb.LineString, len(line))
		for i, p := range line {
			ls[i] = p.Point()
		}
		mls = append(mls, ls)
	}
	return mls
}

func (t Track) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]TrackLine(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Track) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("geometry: cannot scan %T into Track", src)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	var lines []TrackLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("geometry: decode track: %w", err)
	}
	*t = Track(lines)
	return nil
}

func (Track) GormDataType() string { return "string" }

func (Track) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return "text"
}
