package dawa

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// BBox is a postal area's extent in the API's fixed order:
// [longitude_start, latitude_start, longitude_end, latitude_end].
type BBox struct {
	LongitudeStart float64
	LatitudeStart  float64
	LongitudeEnd   float64
	LatitudeEnd    float64
}

// ParseBBox splits a four-element bbox array. Any other length is an error.
func ParseBBox(v []float64) (BBox, error) {
	if len(v) != 4 {
		return BBox{}, eris.Errorf("bbox: expected 4 values, got %d", len(v))
	}
	return BBox{
		LongitudeStart: v[0],
		LatitudeStart:  v[1],
		LongitudeEnd:   v[2],
		LatitudeEnd:    v[3],
	}, nil
}

// Slice reassembles the bbox in API order.
func (b BBox) Slice() []float64 {
	return []float64{b.LongitudeStart, b.LatitudeStart, b.LongitudeEnd, b.LatitudeEnd}
}

// Bounds returns the bbox as XY bounds.
func (b BBox) Bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(b.LongitudeStart, b.LatitudeStart, b.LongitudeEnd, b.LatitudeEnd)
}

// Contains reports whether c lies inside or on the edge of b.
func (b BBox) Contains(c Coordinates) bool {
	return b.Bounds().OverlapsPoint(geom.XY, geom.Coord{c.Longitude, c.Latitude})
}

// Coordinates is a longitude/latitude pair.
type Coordinates struct {
	Longitude float64
	Latitude  float64
}

// ParseCoordinates splits a two-element [longitude, latitude] array.
func ParseCoordinates(v []float64) (Coordinates, error) {
	if len(v) != 2 {
		return Coordinates{}, eris.Errorf("coordinates: expected 2 values, got %d", len(v))
	}
	return Coordinates{Longitude: v[0], Latitude: v[1]}, nil
}
