// Package control wires inbound commands to the marker set and scene.
package control

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nocdeck/globeoverlay/internal/camera"
	"github.com/nocdeck/globeoverlay/internal/dispatcher"
	"github.com/nocdeck/globeoverlay/internal/geo"
	"github.com/nocdeck/globeoverlay/internal/overlay"
	"github.com/nocdeck/globeoverlay/pkg/streaming"
)

// Scene is the engine surface the control service manipulates.
type Scene interface {
	overlay.Orientable
	SetViewport(vp camera.Viewport)
}

// Announcer pushes marker lifecycle events to the stream consumer.
type Announcer interface {
	MarkerAdded(m overlay.Marker) error
	MarkerRemoved(id string) error
}

// Store persists marker changes. Optional; a nil Store keeps changes
// in memory only.
type Store interface {
	SaveMarker(m overlay.Marker) error
	DeleteMarker(id string) error
}

// Service handles overlay control commands.
type Service struct {
	set        *overlay.MarkerSet
	scene      Scene
	rotator    *overlay.Rotator
	announcer  Announcer
	store      Store
	defaultAlt float64
	logger     *slog.Logger
}

// NewService creates a control service. announcer and store may be nil.
// defaultAltitude, a fraction of the sphere radius, is applied to markers
// added without an altitude of their own.
func NewService(set *overlay.MarkerSet, scene Scene, rotator *overlay.Rotator, announcer Announcer, store Store, defaultAltitude float64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		set:        set,
		scene:      scene,
		rotator:    rotator,
		announcer:  announcer,
		store:      store,
		defaultAlt: defaultAltitude,
		logger:     logger,
	}
}

// Register installs all command handlers on the dispatcher.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register("marker.add", s.handleMarkerAdd, dispatcher.Logged())
	d.Register("marker.move", s.handleMarkerMove)
	d.Register("marker.remove", s.handleMarkerRemove, dispatcher.Logged())
	d.Register("viewport.resize", s.handleViewportResize)
	d.Register("rotate.set", s.handleRotateSet, dispatcher.Logged())
	d.Register("camera.set", s.handleCameraSet)
}

// Bridge returns a callback suitable for stream.Publisher.SetCommandHandler,
// forwarding inbound commands to the dispatcher.
func Bridge(d *dispatcher.Dispatcher, logger *slog.Logger) func(streaming.CommandPayload) {
	return func(cmd streaming.CommandPayload) {
		_, err := d.Dispatch(dispatcher.Event{
			Name:     cmd.Name,
			Payload:  cmd.Payload,
			Received: time.Now(),
		})
		if err != nil {
			logger.Warn("Inbound command failed", "command", cmd.Name, "error", err)
		}
	}
}

type markerPayload struct {
	ID        string   `json:"id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	OffsetX   float64  `json:"offsetX"`
	OffsetY   float64  `json:"offsetY"`
	Label     string   `json:"label"`
	Content   string   `json:"content"`
}

type movePayload struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type viewportPayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type rotatePayload struct {
	Enabled   bool     `json:"enabled"`
	DegPerSec *float64 `json:"degPerSec"`
}

type cameraPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

func (s *Service) handleMarkerAdd(e dispatcher.Event) (any, error) {
	var p markerPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("marker.add payload: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("marker.add: missing id")
	}

	point := geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
	if !point.Valid() {
		return nil, fmt.Errorf("marker.add %q: %w", p.ID, geo.ErrInvalidCoordinates)
	}

	// Markers that don't carry their own altitude float at the
	// configured default above the surface.
	altitude := s.defaultAlt
	if p.Altitude != nil {
		altitude = *p.Altitude
	}

	m := overlay.Marker{
		ID:       p.ID,
		Position: point,
		Altitude: altitude,
		OffsetX:  p.OffsetX,
		OffsetY:  p.OffsetY,
		Label:    p.Label,
		Content:  p.Content,
	}
	s.set.Put(m)

	if s.store != nil {
		if err := s.store.SaveMarker(m); err != nil {
			s.logger.Warn("Failed to persist marker", "id", m.ID, "error", err)
		}
	}
	if s.announcer != nil {
		if err := s.announcer.MarkerAdded(m); err != nil {
			s.logger.Warn("Failed to announce marker", "id", m.ID, "error", err)
		}
	}
	return m.ID, nil
}

func (s *Service) handleMarkerMove(e dispatcher.Event) (any, error) {
	var p movePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("marker.move payload: %w", err)
	}

	m, ok := s.set.Get(p.ID)
	if !ok {
		return nil, fmt.Errorf("marker.move: unknown marker %q", p.ID)
	}

	point := geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
	if !point.Valid() {
		return nil, fmt.Errorf("marker.move %q: %w", p.ID, geo.ErrInvalidCoordinates)
	}

	m.Position = point
	s.set.Put(m)

	if s.store != nil {
		if err := s.store.SaveMarker(m); err != nil {
			s.logger.Warn("Failed to persist marker move", "id", m.ID, "error", err)
		}
	}
	return m.ID, nil
}

func (s *Service) handleMarkerRemove(e dispatcher.Event) (any, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("marker.remove payload: %w", err)
	}

	if !s.set.Remove(p.ID) {
		return nil, fmt.Errorf("marker.remove: unknown marker %q", p.ID)
	}

	if s.store != nil {
		if err := s.store.DeleteMarker(p.ID); err != nil {
			s.logger.Warn("Failed to persist marker removal", "id", p.ID, "error", err)
		}
	}
	if s.announcer != nil {
		if err := s.announcer.MarkerRemoved(p.ID); err != nil {
			s.logger.Warn("Failed to announce marker removal", "id", p.ID, "error", err)
		}
	}
	return p.ID, nil
}

func (s *Service) handleViewportResize(e dispatcher.Event) (any, error) {
	var p viewportPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("viewport.resize payload: %w", err)
	}
	if p.Width < 0 || p.Height < 0 {
		return nil, fmt.Errorf("viewport.resize: negative dimensions %gx%g", p.Width, p.Height)
	}

	// Zero dimensions are allowed: the projection loop treats an empty
	// viewport as everything hidden until the next resize.
	s.scene.SetViewport(camera.Viewport{Width: p.Width, Height: p.Height})
	return "ok", nil
}

func (s *Service) handleRotateSet(e dispatcher.Event) (any, error) {
	var p rotatePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("rotate.set payload: %w", err)
	}

	if p.DegPerSec != nil {
		s.rotator.SetSpeed(*p.DegPerSec)
	}
	s.rotator.SetEnabled(p.Enabled)
	return "ok", nil
}

func (s *Service) handleCameraSet(e dispatcher.Event) (any, error) {
	var p cameraPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("camera.set payload: %w", err)
	}

	point := geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
	if !point.Valid() {
		return nil, fmt.Errorf("camera.set: %w", geo.ErrInvalidCoordinates)
	}

	pov := s.scene.PointOfView()
	pov.Latitude = p.Latitude
	pov.Longitude = p.Longitude
	if p.Altitude > 0 {
		pov.Altitude = p.Altitude
	}
	s.scene.SetPointOfView(pov)
	return "ok", nil
}
