package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nocdeck/globeoverlay/internal/geo"
)

// State is a frame-scoped snapshot of the globe engine's camera. The overlay
// only ever reads it; the engine (or the rotation driver, between frames)
// owns the underlying camera.
type State struct {
	View       mgl64.Mat4
	Projection mgl64.Mat4
	Position   mgl64.Vec3
}

// Distance returns the camera's distance from the globe center, used by UI
// consumers for altitude-based content scaling.
func (s State) Distance() float64 {
	return s.Position.Len()
}

// Viewport is the pixel size of the container the overlay renders into.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the container has no usable area yet. A container
// queried before layout can legitimately be 0x0; projecting into it must
// classify everything not-visible instead of dividing by zero.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// PointOfView describes where the camera is aimed: the surface coordinate it
// hovers over and its height above the surface as a fraction of the sphere
// radius.
type PointOfView struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// State builds the camera snapshot for this point of view: positioned with
// the same spherical transform the markers use, looking at the globe center.
// Sharing the transform keeps the POV and the markers on one longitude
// convention.
func (p PointOfView) State(sphereRadius float64, vp Viewport, fovDegrees float64) State {
	eye := geo.ToCartesian(
		geo.Point{Latitude: p.Latitude, Longitude: p.Longitude},
		sphereRadius, p.Altitude,
	)

	aspect := 1.0
	if !vp.Empty() {
		aspect = vp.Width / vp.Height
	}

	// Over the poles the eye sits on the Y axis, collinear with the usual
	// up vector, and LookAtV returns NaN matrices. Swap in a horizontal up
	// there; its roll is arbitrary since the camera looks straight down the
	// axis.
	up := mgl64.Vec3{0, 1, 0}
	if math.Abs(p.Latitude) > 89.99 {
		up = mgl64.Vec3{0, 0, 1}
	}

	return State{
		View:       mgl64.LookAtV(eye, mgl64.Vec3{}, up),
		Projection: mgl64.Perspective(mgl64.DegToRad(fovDegrees), aspect, sphereRadius*0.01, sphereRadius*1000),
		Position:   eye,
	}
}
