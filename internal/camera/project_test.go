package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nocdeck/globeoverlay/internal/geo"
)

const (
	testRadius = 100.0
	testFOV    = 50.0
)

var testViewport = Viewport{Width: 800, Height: 600}

func TestProject_CenteredMarkerHitsScreenCenter(t *testing.T) {
	london := geo.Point{Latitude: 51.5072, Longitude: -0.1276}

	pov := PointOfView{Latitude: london.Latitude, Longitude: london.Longitude, Altitude: 2.5}
	state := pov.State(testRadius, testViewport, testFOV)

	world := geo.ToCartesian(london, testRadius, 0)
	p := Project(world, state, testViewport)

	if !p.FacingCamera {
		t.Fatal("marker under the camera must face it")
	}
	if math.Abs(p.ScreenX-testViewport.Width/2) > 1e-6 {
		t.Errorf("expected screenX at center %v, got %v", testViewport.Width/2, p.ScreenX)
	}
	if math.Abs(p.ScreenY-testViewport.Height/2) > 1e-6 {
		t.Errorf("expected screenY at center %v, got %v", testViewport.Height/2, p.ScreenY)
	}
	if !IsVisible(p, testViewport) {
		t.Error("centered marker must be visible")
	}
}

func TestProject_FarSideNeverVisible(t *testing.T) {
	pov := PointOfView{Latitude: 20, Longitude: 10, Altitude: 2.5}
	state := pov.State(testRadius, testViewport, testFOV)

	// Antipode of the view center: normal points directly away from the camera.
	world := geo.ToCartesian(geo.Point{Latitude: -20, Longitude: -170}, testRadius, 0)
	p := Project(world, state, testViewport)

	if p.FacingCamera {
		t.Error("antipodal point must not face the camera")
	}
	if IsVisible(p, testViewport) {
		t.Error("antipodal point must not be visible")
	}
}

func TestProject_BehindCameraNotVisible(t *testing.T) {
	pov := PointOfView{Latitude: 0, Longitude: 0, Altitude: 2.5}
	state := pov.State(testRadius, testViewport, testFOV)

	// Same bearing as the camera but further out: behind the near plane.
	world := geo.ToCartesian(geo.Point{Latitude: 0, Longitude: 0}, testRadius, 3.0)
	p := Project(world, state, testViewport)

	if IsVisible(p, testViewport) {
		t.Error("point behind the camera must not be visible")
	}
}

func TestProject_YFlip(t *testing.T) {
	pov := PointOfView{Latitude: 0, Longitude: 0, Altitude: 2.5}
	state := pov.State(testRadius, testViewport, testFOV)

	// North of the view center: up in device coordinates, lower screen Y.
	world := geo.ToCartesian(geo.Point{Latitude: 30, Longitude: 0}, testRadius, 0)
	p := Project(world, state, testViewport)

	if p.ScreenY >= testViewport.Height/2 {
		t.Errorf("northern marker should sit above screen center, got screenY=%v", p.ScreenY)
	}
}

func TestProject_PolarCameraStillProjects(t *testing.T) {
	cases := []struct {
		name      string
		camLat    float64
		markerLat float64
	}{
		{"north pole", 90, 85},
		{"south pole", -90, -85},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pov := PointOfView{Latitude: tc.camLat, Longitude: 0, Altitude: 2.5}
			state := pov.State(testRadius, testViewport, testFOV)

			world := geo.ToCartesian(geo.Point{Latitude: tc.markerLat, Longitude: 0}, testRadius, 0)
			p := Project(world, state, testViewport)

			if math.IsNaN(p.ScreenX) || math.IsNaN(p.ScreenY) {
				t.Fatalf("polar camera produced NaN screen coordinates: %v, %v", p.ScreenX, p.ScreenY)
			}
			if !p.FacingCamera {
				t.Error("marker near the pole must face the polar camera")
			}
			if !IsVisible(p, testViewport) {
				t.Error("marker near the pole must be visible from the polar camera")
			}
		})
	}
}

func TestProject_NaNPositionFailsClosed(t *testing.T) {
	pov := PointOfView{Latitude: 0, Longitude: 0, Altitude: 2.5}
	state := pov.State(testRadius, testViewport, testFOV)

	world := geo.ToCartesian(geo.Point{Latitude: math.NaN(), Longitude: 0}, testRadius, 0)
	p := Project(world, state, testViewport)

	if p.FacingCamera {
		t.Error("NaN position must not report facing")
	}
	if IsVisible(p, testViewport) {
		t.Error("NaN position must not be visible")
	}
}

func TestIsVisible_ZeroViewport(t *testing.T) {
	pov := PointOfView{Latitude: 0, Longitude: 0, Altitude: 2.5}
	empty := Viewport{}
	state := pov.State(testRadius, empty, testFOV)

	world := geo.ToCartesian(geo.Point{Latitude: 0, Longitude: 0}, testRadius, 0)
	p := Project(world, state, empty)

	if IsVisible(p, empty) {
		t.Error("zero-size viewport must hide everything")
	}
}

func TestIsVisible_OffscreenPoint(t *testing.T) {
	p := Projection{
		NDC:          mgl64.Vec3{1.5, 0, 0},
		ScreenX:      1000,
		ScreenY:      300,
		FacingCamera: true,
	}
	if IsVisible(p, testViewport) {
		t.Error("point outside viewport bounds must not be visible")
	}
}

func TestViewport_Empty(t *testing.T) {
	cases := []struct {
		vp   Viewport
		want bool
	}{
		{Viewport{0, 0}, true},
		{Viewport{800, 0}, true},
		{Viewport{0, 600}, true},
		{Viewport{-1, 600}, true},
		{Viewport{800, 600}, false},
	}
	for _, tc := range cases {
		if got := tc.vp.Empty(); got != tc.want {
			t.Errorf("%+v: Empty()=%v, want %v", tc.vp, got, tc.want)
		}
	}
}

func TestState_Distance(t *testing.T) {
	pov := PointOfView{Latitude: 20, Longitude: 10, Altitude: 2.5}
	state := pov.State(testRadius, testViewport, testFOV)

	want := testRadius * 3.5
	if math.Abs(state.Distance()-want) > 1e-9 {
		t.Errorf("expected camera distance %v, got %v", want, state.Distance())
	}
}
