package geo

import (
	"math"

	"github.com/wroge/wgs84"
)

// Legacy console rows store site positions as EPSG:3857 web-mercator
// easting/northing. The globe overlay works in plain lat/lng, so those rows
// are converted on load.

// FromWebMercator converts an EPSG:3857 easting/northing pair to a 4326 Point.
func FromWebMercator(easting, northing float64) (Point, error) {
	epsg := wgs84.EPSG()
	transform := epsg.Transform(3857, 4326)
	lng, lat, _ := transform(easting, northing, 0)

	p := Point{Latitude: lat, Longitude: lng}
	if math.IsNaN(lat) || math.IsNaN(lng) || !p.Valid() {
		return Point{}, ErrInvalidCoordinates
	}
	return p, nil
}

// ToWebMercator converts a 4326 Point to EPSG:3857 easting/northing, used
// when writing sites back into the legacy console schema.
func ToWebMercator(p Point) (easting, northing float64) {
	epsg := wgs84.EPSG()
	transform := epsg.Transform(4326, 3857)
	easting, northing, _ = transform(p.Longitude, p.Latitude, 0)
	return easting, northing
}
