package overlay

import "github.com/nocdeck/globeoverlay/internal/geo"

// Marker is a 2-D annotation pinned to a geographic point on the globe.
type Marker struct {
	ID       string
	Position geo.Point
	// Altitude is a fraction of the sphere radius above the surface.
	Altitude float64
	// OffsetX and OffsetY shift the rendered element relative to the
	// projected screen point, in pixels.
	OffsetX float64
	OffsetY float64
	Label   string
	Content string
}

// ProjectedPosition is the per-frame screen-space result for one marker.
type ProjectedPosition struct {
	MarkerID string  `json:"markerId"`
	ScreenX  float64 `json:"screenX"`
	ScreenY  float64 `json:"screenY"`
	Visible  bool    `json:"visible"`
}
