package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Projection is the result of pushing one world position through the camera.
type Projection struct {
	// NDC holds normalized device coordinates, each axis in [-1,1] while the
	// point is inside the frustum.
	NDC mgl64.Vec3

	// ScreenX/ScreenY are pixel coordinates within the viewport. Screen Y
	// grows downward while NDC Y grows upward, hence the flip in Project.
	ScreenX float64
	ScreenY float64

	// FacingCamera is false for points on the far side of the sphere: the
	// outward surface normal points away from the camera. Such points are
	// occluded by the globe even when their raycast lands inside the viewport.
	FacingCamera bool
}

// Project maps a world position in the globe's local frame to screen space.
// The sphere is centered at the origin, so the outward surface normal at
// worldPos is just its normalization. NaN positions (from malformed
// geographic input) flow through and fail every visibility check downstream.
func Project(worldPos mgl64.Vec3, state State, vp Viewport) Projection {
	clip := state.Projection.Mul4(state.View).Mul4x1(worldPos.Vec4(1))

	ndc := mgl64.Vec3{math.NaN(), math.NaN(), math.NaN()}
	if w := clip.W(); w != 0 {
		ndc = mgl64.Vec3{clip.X() / w, clip.Y() / w, clip.Z() / w}
	}

	facing := false
	if n := worldPos.Len(); n > 0 && !math.IsNaN(n) {
		normal := worldPos.Mul(1 / n)
		toCamera := state.Position.Sub(worldPos)
		if l := toCamera.Len(); l > 0 {
			facing = normal.Dot(toCamera.Mul(1/l)) > 0
		}
	}

	return Projection{
		NDC:          ndc,
		ScreenX:      (ndc.X()*0.5 + 0.5) * vp.Width,
		ScreenY:      (-ndc.Y()*0.5 + 0.5) * vp.Height,
		FacingCamera: facing,
	}
}

// IsVisible reports whether a projected point is on screen and unoccluded:
// facing the camera, inside the depth range, and within the viewport bounds.
// This is a plain conjunction with no hysteresis; a marker straddling the
// horizon flickering between states is expected behavior.
func IsVisible(p Projection, vp Viewport) bool {
	if vp.Empty() {
		return false
	}
	if !p.FacingCamera {
		return false
	}
	// NDC depth outside [-1,1] means the point is outside the near/far
	// planes. NaN comparisons fail, so malformed input stays hidden.
	if !(p.NDC.Z() >= -1 && p.NDC.Z() <= 1) {
		return false
	}
	return p.ScreenX >= 0 && p.ScreenX <= vp.Width &&
		p.ScreenY >= 0 && p.ScreenY <= vp.Height
}
