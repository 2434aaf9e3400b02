// Package engine provides scene backends for the projection loop. The
// headless engine runs without any renderer attached, driving frames from
// a wall-clock ticker.
package engine

import (
	"sync"
	"time"

	"github.com/nocdeck/globeoverlay/internal/camera"
	"github.com/nocdeck/globeoverlay/internal/overlay"
)

// Config carries the initial scene parameters for a headless engine.
type Config struct {
	SphereRadius float64
	FOVDegrees   float64
	Viewport     camera.Viewport
	PointOfView  camera.PointOfView
	// FrameRate is frames per second for OnFrame callbacks.
	FrameRate float64
}

// Headless is a renderer-free engine. Camera state is computed on demand
// from the stored point of view, and frames are scheduled on a ticker.
type Headless struct {
	mu     sync.Mutex
	pov    camera.PointOfView
	radius float64
	vp     camera.Viewport
	fov    float64
	period time.Duration
}

// NewHeadless creates a headless engine from the given config. Zero
// values get sensible defaults.
func NewHeadless(cfg Config) *Headless {
	if cfg.SphereRadius <= 0 {
		cfg.SphereRadius = 100
	}
	if cfg.FOVDegrees <= 0 {
		cfg.FOVDegrees = 50
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}
	if cfg.PointOfView.Altitude <= 0 {
		cfg.PointOfView.Altitude = 2.5
	}
	return &Headless{
		pov:    cfg.PointOfView,
		radius: cfg.SphereRadius,
		vp:     cfg.Viewport,
		fov:    cfg.FOVDegrees,
		period: time.Duration(float64(time.Second) / cfg.FrameRate),
	}
}

// Camera returns the current camera state and viewport. A headless engine
// is ready as soon as it is constructed.
func (h *Headless) Camera() (camera.State, camera.Viewport, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pov.State(h.radius, h.vp, h.fov), h.vp, true
}

// SphereRadius returns the globe radius in world units.
func (h *Headless) SphereRadius() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.radius
}

// PointOfView returns the current camera point of view.
func (h *Headless) PointOfView() camera.PointOfView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pov
}

// SetPointOfView repositions the camera.
func (h *Headless) SetPointOfView(pov camera.PointOfView) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pov = pov
}

// SetViewport resizes the virtual viewport.
func (h *Headless) SetViewport(vp camera.Viewport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vp = vp
}

// Viewport returns the current virtual viewport.
func (h *Headless) Viewport() camera.Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.vp
}

// OnFrame invokes fn at the engine's frame rate until the returned
// disposer is called.
func (h *Headless) OnFrame(fn func(now time.Time)) overlay.Disposer {
	done := make(chan struct{})
	ticker := time.NewTicker(h.period)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				fn(now)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return overlay.DisposerFunc(func() {
		once.Do(func() { close(done) })
	})
}
