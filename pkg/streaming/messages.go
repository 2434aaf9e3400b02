package streaming

import (
	"encoding/json"
	"time"
)

// Message type constants matching the overlay streaming protocol.
const (
	TypeHello         = "hello"
	TypePositionFrame = "position_frame"
	TypeAddMarker     = "add_marker"
	TypeDeleteMarker  = "delete_marker"
	TypeErrorState    = "error_state"
	TypeCommand       = "command"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload announces the overlay session and its scene parameters.
type HelloPayload struct {
	Service      string  `json:"service"`
	SphereRadius float64 `json:"sphereRadius"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
}

// Position is one marker's screen-space entry within a position frame.
type Position struct {
	MarkerID string  `json:"markerId"`
	ScreenX  float64 `json:"screenX"`
	ScreenY  float64 `json:"screenY"`
	Visible  bool    `json:"visible"`
}

// PositionFramePayload carries one published batch of screen positions.
type PositionFramePayload struct {
	Positions      []Position `json:"positions"`
	CameraDistance float64    `json:"cameraDistance"`
	Time           time.Time  `json:"time"`
}

// MarkerPayload describes a marker added to the overlay.
type MarkerPayload struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	OffsetX   float64 `json:"offsetX,omitempty"`
	OffsetY   float64 `json:"offsetY,omitempty"`
	Label     string  `json:"label,omitempty"`
	Content   string  `json:"content,omitempty"`
}

// DeleteMarkerPayload identifies a removed marker.
type DeleteMarkerPayload struct {
	ID string `json:"id"`
}

// ErrorStatePayload reports a degraded component to the consumer.
type ErrorStatePayload struct {
	Component string    `json:"component"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// CommandPayload is an inbound control command from the server.
type CommandPayload struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}
