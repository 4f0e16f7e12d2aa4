// Package geo provides geodesic helpers on the WGS84 ellipsoid.
package geo

import (
	"math"

	"github.com/tidwall/geodesic"
)

// metersPerDegreeLat is the mean length of one degree of latitude.
const metersPerDegreeLat = 111_000.0

// Point is a coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether p lies within [-90,90] x [-180,180].
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the ellipsoidal distance between a and b in meters.
func Distance(a, b Point) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(a.Lat, a.Lng, b.Lat, b.Lng, &s12, nil, nil)
	return s12
}

// Box is a lat/lng rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a rectangle that contains every point within radius meters of center.
// It is a coarse prefilter; callers refine with Distance.
func BoundingBox(center Point, radius float64) Box {
	latOffset := radius / metersPerDegreeLat
	cos := math.Cos(center.Lat * math.Pi / 180)
	lngOffset := 180.0
	if cos > 1e-9 {
		lngOffset = math.Min(radius/(metersPerDegreeLat*cos), 180)
	}
	// pad 1% so the spherical approximation never clips a point the geodesic accepts
	latOffset *= 1.01
	lngOffset *= 1.01
	return Box{
		MinLat: math.Max(center.Lat-latOffset, -90),
		MaxLat: math.Min(center.Lat+latOffset, 90),
		MinLng: center.Lng - lngOffset,
		MaxLng: center.Lng + lngOffset,
	}
}
