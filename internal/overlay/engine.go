package overlay

import (
	"time"

	"github.com/nocdeck/globeoverlay/internal/camera"
)

// Engine exposes the rendering state the projection loop reads each frame.
type Engine interface {
	// Camera returns the current camera state and viewport. The second
	// return is false while the scene is still initializing.
	Camera() (camera.State, camera.Viewport, bool)
	// SphereRadius returns the globe radius in world units, or 0 if the
	// scene has not provided one.
	SphereRadius() float64
}

// Orientable is implemented by engines whose camera can be repositioned.
type Orientable interface {
	PointOfView() camera.PointOfView
	SetPointOfView(pov camera.PointOfView)
}

// FrameScheduler invokes a callback once per rendered frame.
type FrameScheduler interface {
	OnFrame(fn func(now time.Time)) Disposer
}

// Disposer releases a registration made on an engine or scheduler.
type Disposer interface {
	Dispose()
}

// DisposerFunc adapts a plain function to the Disposer interface.
type DisposerFunc func()

// Dispose calls f.
func (f DisposerFunc) Dispose() { f() }
