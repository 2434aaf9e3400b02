package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nocdeck/globeoverlay/internal/camera"
)

func TestRotatorAdvance(t *testing.T) {
	eng := newFakeEngine()
	r := NewRotator(eng, 1.0)
	r.SetEnabled(true)

	t0 := time.Now()
	r.Advance(t0) // first call only anchors the clock
	assert.InDelta(t, 0, eng.PointOfView().Longitude, 1e-9)

	r.Advance(t0.Add(10 * time.Second))
	assert.InDelta(t, 10, eng.PointOfView().Longitude, 1e-9)
}

func TestRotatorFrameRateIndependent(t *testing.T) {
	coarse := newFakeEngine()
	fine := newFakeEngine()

	rc := NewRotator(coarse, 2.0)
	rf := NewRotator(fine, 2.0)
	rc.SetEnabled(true)
	rf.SetEnabled(true)

	t0 := time.Now()
	rc.Advance(t0)
	rf.Advance(t0)

	// One ten-second step versus a hundred 100ms steps.
	rc.Advance(t0.Add(10 * time.Second))
	for i := 1; i <= 100; i++ {
		rf.Advance(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}

	assert.InDelta(t, 20, coarse.PointOfView().Longitude, 1e-9)
	assert.InDelta(t, coarse.PointOfView().Longitude, fine.PointOfView().Longitude, 1e-9)
}

func TestRotatorWrapsLongitude(t *testing.T) {
	eng := newFakeEngine()
	eng.SetPointOfView(camera.PointOfView{Latitude: 0, Longitude: 175, Altitude: 2.5})

	r := NewRotator(eng, 1.0)
	r.SetEnabled(true)

	t0 := time.Now()
	r.Advance(t0)
	r.Advance(t0.Add(10 * time.Second))

	assert.InDelta(t, -175, eng.PointOfView().Longitude, 1e-9)
}

func TestRotatorDisabled(t *testing.T) {
	eng := newFakeEngine()
	r := NewRotator(eng, 5.0)

	t0 := time.Now()
	r.Advance(t0)
	r.Advance(t0.Add(time.Hour))
	assert.InDelta(t, 0, eng.PointOfView().Longitude, 1e-9)
	assert.False(t, r.Enabled())
}

func TestRotatorPauseDoesNotApplyElapsedTime(t *testing.T) {
	eng := newFakeEngine()
	r := NewRotator(eng, 1.0)
	r.SetEnabled(true)

	t0 := time.Now()
	r.Advance(t0)
	r.Advance(t0.Add(5 * time.Second))
	assert.InDelta(t, 5, eng.PointOfView().Longitude, 1e-9)

	r.SetEnabled(false)
	r.SetEnabled(true)

	// The hour spent paused is discarded; only time after re-enabling counts.
	r.Advance(t0.Add(time.Hour))
	r.Advance(t0.Add(time.Hour + 2*time.Second))
	assert.InDelta(t, 7, eng.PointOfView().Longitude, 1e-9)
}

func TestRotatorSetSpeed(t *testing.T) {
	eng := newFakeEngine()
	r := NewRotator(eng, 1.0)
	r.SetEnabled(true)

	t0 := time.Now()
	r.Advance(t0)
	r.SetSpeed(4.0)
	r.Advance(t0.Add(time.Second))
	assert.InDelta(t, 4, eng.PointOfView().Longitude, 1e-9)
}
