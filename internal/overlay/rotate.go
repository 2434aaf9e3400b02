package overlay

import (
	"sync"
	"time"

	"github.com/nocdeck/globeoverlay/internal/geo"
)

// Rotator spins the camera around the globe at a constant angular rate.
// The rate is wall-clock based, so the apparent speed is independent of
// the frame rate.
type Rotator struct {
	mu        sync.Mutex
	target    Orientable
	enabled   bool
	degPerSec float64
	lastTick  time.Time
}

// NewRotator creates a rotator driving the given orientable camera at
// degPerSec degrees of longitude per second.
func NewRotator(target Orientable, degPerSec float64) *Rotator {
	return &Rotator{
		target:    target,
		degPerSec: degPerSec,
	}
}

// Enabled reports whether the rotator is currently advancing the camera.
func (r *Rotator) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// SetEnabled starts or pauses rotation. Re-enabling does not apply the
// time spent paused.
func (r *Rotator) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if enabled && !r.enabled {
		r.lastTick = time.Time{}
	}
	r.enabled = enabled
}

// SetSpeed changes the rotation rate in degrees of longitude per second.
func (r *Rotator) SetSpeed(degPerSec float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degPerSec = degPerSec
}

// Advance moves the camera longitude by the elapsed wall-clock time since
// the previous call. The first call after enabling only records the time.
func (r *Rotator) Advance(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	if r.lastTick.IsZero() {
		r.lastTick = now
		return
	}

	dt := now.Sub(r.lastTick).Seconds()
	r.lastTick = now
	if dt <= 0 {
		return
	}

	pov := r.target.PointOfView()
	pov.Longitude = geo.WrapLongitude(pov.Longitude + r.degPerSec*dt)
	r.target.SetPointOfView(pov)
}
