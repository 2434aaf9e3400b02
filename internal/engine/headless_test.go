package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocdeck/globeoverlay/internal/camera"
)

func TestHeadlessDefaults(t *testing.T) {
	h := NewHeadless(Config{})

	assert.InDelta(t, 100, h.SphereRadius(), 1e-9)
	assert.InDelta(t, 2.5, h.PointOfView().Altitude, 1e-9)

	_, vp, ready := h.Camera()
	assert.True(t, ready)
	assert.True(t, vp.Empty())
}

func TestHeadlessCameraTracksPointOfView(t *testing.T) {
	h := NewHeadless(Config{
		SphereRadius: 100,
		Viewport:     camera.Viewport{Width: 800, Height: 600},
	})

	h.SetPointOfView(camera.PointOfView{Latitude: 20, Longitude: 10, Altitude: 2.5})
	state, _, ready := h.Camera()
	require.True(t, ready)
	assert.InDelta(t, 350, state.Distance(), 1e-9)

	h.SetViewport(camera.Viewport{Width: 1024, Height: 768})
	assert.InDelta(t, 1024, h.Viewport().Width, 1e-9)
}

func TestHeadlessOnFrame(t *testing.T) {
	h := NewHeadless(Config{FrameRate: 200})

	var calls atomic.Int64
	d := h.OnFrame(func(time.Time) { calls.Add(1) })

	assert.Eventually(t, func() bool { return calls.Load() >= 3 },
		time.Second, 5*time.Millisecond)

	d.Dispose()
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), settled+1)

	d.Dispose() // second dispose is a no-op
}
