package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidCoordinates is returned when coordinates cannot be parsed or are out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Point is a geographic coordinate in degrees, EPSG:4326.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within [-90,90] latitude and
// [-180,180] longitude. NaN and Inf fail both range checks.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// ToCartesian converts a geographic point to a Cartesian position in the
// globe's local frame. Latitude 90 maps to the +Y pole; longitude is mapped
// with theta = 180 - longitude, matching the globe renderer's surface
// texture convention. A renderer with a different texture mapping needs its
// own theta derivation; getting this wrong misplaces markers silently.
//
// The effective radius is sphereRadius * (1 + altitudeFraction). Out-of-range
// input is not checked here and propagates as NaN; callers validate upstream.
func ToCartesian(p Point, sphereRadius, altitudeFraction float64) mgl64.Vec3 {
	phi := (90 - p.Latitude) * math.Pi / 180
	theta := (180 - p.Longitude) * math.Pi / 180
	r := sphereRadius * (1 + altitudeFraction)

	return mgl64.Vec3{
		r * math.Sin(phi) * math.Cos(theta),
		r * math.Cos(phi),
		r * math.Sin(phi) * math.Sin(theta),
	}
}

// ParsePoint parses a "lat,lng" string into a Point.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, ErrInvalidCoordinates
	}
	p := Point{Latitude: lat, Longitude: lng}
	if !p.Valid() {
		return Point{}, ErrInvalidCoordinates
	}
	return p, nil
}

// WrapLongitude normalizes a longitude in degrees to (-180, 180].
func WrapLongitude(lng float64) float64 {
	lng = math.Mod(lng, 360)
	switch {
	case lng > 180:
		lng -= 360
	case lng <= -180:
		lng += 360
	}
	return lng
}
