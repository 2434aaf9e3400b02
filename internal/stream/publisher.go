package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nocdeck/globeoverlay/internal/overlay"
	"github.com/nocdeck/globeoverlay/pkg/streaming"
)

// Config holds WebSocket publisher configuration.
type Config struct {
	URL    string
	Secret string
}

// Publisher streams overlay frames over WebSocket to the consumer UI.
// It implements overlay.Publisher.
type Publisher struct {
	conn   *connection
	cfg    Config
	logger *slog.Logger
}

// New creates a new WebSocket publisher.
func New(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   newConnection(logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Connect dials the WebSocket server.
func (p *Publisher) Connect() error {
	return p.conn.dial(p.cfg.URL, p.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (p *Publisher) Close() error {
	return p.conn.close()
}

// SetCommandHandler registers a callback for inbound control commands.
func (p *Publisher) SetCommandHandler(fn func(streaming.CommandPayload)) {
	p.conn.mu.Lock()
	p.conn.commandFn = fn
	p.conn.mu.Unlock()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (p *Publisher) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	p.conn.send(data)
	return nil
}

// Hello announces the overlay session and waits for the server ack. The
// message is cached and replayed after reconnects.
func (p *Publisher) Hello(payload streaming.HelloPayload) error {
	data, err := marshalEnvelope(streaming.TypeHello, payload)
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	p.conn.mu.Lock()
	p.conn.cachedHello = data
	p.conn.mu.Unlock()

	return p.conn.sendAndWait(data, streaming.TypeHello, ackTimeout)
}

// PublishPositions streams a position frame (fire-and-forget). Frames are
// latest-wins on the consumer side, so a dropped frame is not retried.
func (p *Publisher) PublishPositions(frame overlay.PositionFrame) {
	positions := make([]streaming.Position, len(frame.Positions))
	for i, pos := range frame.Positions {
		positions[i] = streaming.Position{
			MarkerID: pos.MarkerID,
			ScreenX:  pos.ScreenX,
			ScreenY:  pos.ScreenY,
			Visible:  pos.Visible,
		}
	}
	err := p.sendEnvelope(streaming.TypePositionFrame, streaming.PositionFramePayload{
		Positions:      positions,
		CameraDistance: frame.CameraDistance,
		Time:           frame.Time,
	})
	if err != nil {
		p.logger.Warn("Failed to publish position frame", "error", err)
	}
}

// MarkerAdded announces a new marker to the consumer.
func (p *Publisher) MarkerAdded(m overlay.Marker) error {
	return p.sendEnvelope(streaming.TypeAddMarker, streaming.MarkerPayload{
		ID:        m.ID,
		Latitude:  m.Position.Latitude,
		Longitude: m.Position.Longitude,
		Altitude:  m.Altitude,
		OffsetX:   m.OffsetX,
		OffsetY:   m.OffsetY,
		Label:     m.Label,
		Content:   m.Content,
	})
}

// MarkerRemoved announces a removed marker to the consumer.
func (p *Publisher) MarkerRemoved(id string) error {
	return p.sendEnvelope(streaming.TypeDeleteMarker, streaming.DeleteMarkerPayload{ID: id})
}

// PublishError reports a degraded component so the consumer can surface it.
func (p *Publisher) PublishError(component string, err error) {
	sendErr := p.sendEnvelope(streaming.TypeErrorState, streaming.ErrorStatePayload{
		Component: component,
		Message:   err.Error(),
		Time:      time.Now(),
	})
	if sendErr != nil {
		p.logger.Warn("Failed to publish error state", "component", component, "error", sendErr)
	}
}
