package overlay

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/nocdeck/globeoverlay/internal/camera"
	"github.com/nocdeck/globeoverlay/internal/geo"
)

// DefaultPixelThreshold is the minimum screen-space movement, in pixels,
// that triggers a publish for an otherwise unchanged frame.
const DefaultPixelThreshold = 0.5

// PositionFrame is one published batch of projected marker positions.
type PositionFrame struct {
	Positions      []ProjectedPosition `json:"positions"`
	CameraDistance float64             `json:"cameraDistance"`
	Time           time.Time           `json:"time"`
}

// Publisher receives position frames when the projection loop detects change.
type Publisher interface {
	PublishPositions(frame PositionFrame)
}

// FrameStats describes one completed projection pass, for perf reporting.
type FrameStats struct {
	Time         time.Time
	Duration     time.Duration
	MarkerCount  int
	VisibleCount int
	Published    bool
}

// LoopConfig carries the tunables for a projection Loop.
type LoopConfig struct {
	// PixelThreshold is the movement threshold in pixels. Zero means
	// DefaultPixelThreshold.
	PixelThreshold float64
	// FallbackRadius is used when the engine reports no sphere radius.
	FallbackRadius float64
	// BeforeTick, if set, runs at the start of every frame callback
	// before the projection pass. The rotation driver hooks in here so
	// the camera moves before markers are projected.
	BeforeTick func(now time.Time)
	// OnStats, if set, receives per-frame statistics.
	OnStats func(FrameStats)
}

type lastPosition struct {
	x, y    float64
	visible bool
}

// Loop projects the marker set through the engine camera every frame and
// publishes screen positions whenever they change meaningfully.
type Loop struct {
	engine    Engine
	scheduler FrameScheduler
	set       *MarkerSet
	publisher Publisher
	cfg       LoopConfig

	mu       sync.Mutex
	last     map[string]lastPosition
	disposer Disposer
	stopped  bool

	frames        metric.Int64Counter
	publishes     metric.Int64Counter
	frameDuration metric.Float64Histogram
}

// NewLoop creates a projection loop over the given engine and marker set.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewLoop(eng Engine, sched FrameScheduler, set *MarkerSet, pub Publisher, cfg LoopConfig) (*Loop, error) {
	if cfg.PixelThreshold <= 0 {
		cfg.PixelThreshold = DefaultPixelThreshold
	}

	l := &Loop{
		engine:    eng,
		scheduler: sched,
		set:       set,
		publisher: pub,
		cfg:       cfg,
		last:      make(map[string]lastPosition),
	}

	m := meter()

	var err error

	l.frames, err = m.Int64Counter(
		"overlay.frames.processed",
		metric.WithDescription("Total projection passes executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	l.publishes, err = m.Int64Counter(
		"overlay.frames.published",
		metric.WithDescription("Total position frames published"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating publishes counter: %w", err)
	}

	l.frameDuration, err = m.Float64Histogram(
		"overlay.frame.duration",
		metric.WithDescription("Projection pass duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return l, nil
}

// Run registers the loop with the frame scheduler. It returns immediately;
// projection happens inside the scheduler's frame callbacks until Stop.
func (l *Loop) Run() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposer != nil || l.stopped {
		return
	}
	l.disposer = l.scheduler.OnFrame(func(now time.Time) {
		if l.cfg.BeforeTick != nil {
			l.cfg.BeforeTick(now)
		}
		l.Tick(now)
	})
}

// Stop unregisters the loop from the frame scheduler. Safe to call more
// than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	if l.disposer != nil {
		l.disposer.Dispose()
		l.disposer = nil
	}
}

// Tick runs one projection pass. It publishes the full position set when
// any marker moved more than the pixel threshold, changed visibility, or
// the marker set membership changed since the last published frame.
func (l *Loop) Tick(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}

	start := time.Now()

	state, vp, ok := l.engine.Camera()
	if !ok {
		return
	}

	radius := l.engine.SphereRadius()
	if radius <= 0 {
		radius = l.cfg.FallbackRadius
	}

	markers := l.set.Snapshot()
	positions := make([]ProjectedPosition, 0, len(markers))
	current := make(map[string]lastPosition, len(markers))

	changed := len(markers) != len(l.last)
	visible := 0

	for _, m := range markers {
		world := geo.ToCartesian(m.Position, radius, m.Altitude)
		proj := camera.Project(world, state, vp)
		vis := camera.IsVisible(proj, vp)

		x := proj.ScreenX + m.OffsetX
		y := proj.ScreenY + m.OffsetY

		positions = append(positions, ProjectedPosition{
			MarkerID: m.ID,
			ScreenX:  x,
			ScreenY:  y,
			Visible:  vis,
		})
		current[m.ID] = lastPosition{x: x, y: y, visible: vis}
		if vis {
			visible++
		}

		prev, seen := l.last[m.ID]
		switch {
		case !seen:
			changed = true
		case prev.visible != vis:
			changed = true
		case vis && math.Hypot(x-prev.x, y-prev.y) > l.cfg.PixelThreshold:
			changed = true
		}
	}

	if changed {
		l.publisher.PublishPositions(PositionFrame{
			Positions:      positions,
			CameraDistance: state.Distance(),
			Time:           now,
		})
		l.last = current
		l.publishes.Add(context.Background(), 1)
	}

	elapsed := time.Since(start)
	l.frames.Add(context.Background(), 1)
	l.frameDuration.Record(context.Background(), float64(elapsed.Microseconds())/1000.0)

	if l.cfg.OnStats != nil {
		l.cfg.OnStats(FrameStats{
			Time:         now,
			Duration:     elapsed,
			MarkerCount:  len(markers),
			VisibleCount: visible,
			Published:    changed,
		})
	}
}
