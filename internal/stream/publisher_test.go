package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocdeck/globeoverlay/internal/overlay"
	"github.com/nocdeck/globeoverlay/pkg/streaming"
)

// Compile-time interface check.
var _ overlay.Publisher = (*Publisher)(nil)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and acks hello messages.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeHello {
				ack := streaming.AckMessage{Type: "ack", For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHelloIsAcked(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	p := New(Config{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, p.Connect())
	defer p.Close()

	require.NoError(t, p.Hello(streaming.HelloPayload{
		Service:      "globe-overlay",
		SphereRadius: 100,
		Width:        800,
		Height:       600,
	}))

	msgs := ml.all()
	require.NotEmpty(t, msgs)
	assert.Equal(t, streaming.TypeHello, msgs[0].Type)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	p := New(Config{URL: wsURL(srv), Secret: "s"}, nil)
	require.NoError(t, p.Connect())
	defer p.Close()

	require.NoError(t, p.Hello(streaming.HelloPayload{Service: "globe-overlay"}))

	require.NoError(t, p.MarkerAdded(overlay.Marker{ID: "london", Label: "London"}))
	p.PublishPositions(overlay.PositionFrame{
		Positions: []overlay.ProjectedPosition{
			{MarkerID: "london", ScreenX: 400, ScreenY: 300, Visible: true},
		},
		CameraDistance: 350,
		Time:           time.Now(),
	})
	require.NoError(t, p.MarkerRemoved("london"))
	p.PublishError("catalog", assert.AnError)

	// Give a moment for all messages to arrive at server.
	time.Sleep(50 * time.Millisecond)

	types := make(map[string]int)
	for _, m := range ml.all() {
		types[m.Type]++
	}

	assert.Equal(t, 1, types[streaming.TypeHello])
	assert.Equal(t, 1, types[streaming.TypeAddMarker])
	assert.Equal(t, 1, types[streaming.TypePositionFrame])
	assert.Equal(t, 1, types[streaming.TypeDeleteMarker])
	assert.Equal(t, 1, types[streaming.TypeErrorState])

	// The frame's internal positions must survive the wire conversion.
	for _, m := range ml.all() {
		if m.Type != streaming.TypePositionFrame {
			continue
		}
		var pf streaming.PositionFramePayload
		require.NoError(t, json.Unmarshal(m.Payload, &pf))
		require.Len(t, pf.Positions, 1)
		assert.Equal(t, streaming.Position{MarkerID: "london", ScreenX: 400, ScreenY: 300, Visible: true}, pf.Positions[0])
		assert.Equal(t, 350.0, pf.CameraDistance)
	}
}

func TestInboundCommandsAreForwarded(t *testing.T) {
	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		cmd, _ := json.Marshal(streaming.CommandPayload{
			Name:    "rotate.set",
			Payload: json.RawMessage(`{"enabled":true,"degPerSec":2}`),
		})
		env, _ := json.Marshal(streaming.Envelope{Type: streaming.TypeCommand, Payload: cmd})
		if err := c.WriteMessage(ws.TextMessage, env); err != nil {
			return
		}

		// Hold the connection open until the client disconnects.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	received := make(chan streaming.CommandPayload, 1)
	p := New(Config{URL: wsURL(srv), Secret: "s"}, nil)
	p.SetCommandHandler(func(cmd streaming.CommandPayload) {
		received <- cmd
	})
	require.NoError(t, p.Connect())
	defer p.Close()

	select {
	case cmd := <-received:
		assert.Equal(t, "rotate.set", cmd.Name)
		assert.JSONEq(t, `{"enabled":true,"degPerSec":2}`, string(cmd.Payload))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for inbound command")
	}
}

func TestPositionFramePayloadRoundTrip(t *testing.T) {
	payload := streaming.PositionFramePayload{
		Positions: []streaming.Position{
			{MarkerID: "sydney", ScreenX: 120.5, ScreenY: 88, Visible: false},
		},
		CameraDistance: 350,
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	env := streaming.Envelope{Type: streaming.TypePositionFrame, Payload: raw}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded streaming.Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, streaming.TypePositionFrame, decoded.Type)

	var pf streaming.PositionFramePayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &pf))
	require.Len(t, pf.Positions, 1)
	assert.Equal(t, "sydney", pf.Positions[0].MarkerID)
	assert.False(t, pf.Positions[0].Visible)
}
