package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nocdeck/globeoverlay/internal/api"
	"github.com/nocdeck/globeoverlay/internal/camera"
	"github.com/nocdeck/globeoverlay/internal/catalog"
	"github.com/nocdeck/globeoverlay/internal/config"
	"github.com/nocdeck/globeoverlay/internal/control"
	"github.com/nocdeck/globeoverlay/internal/dispatcher"
	"github.com/nocdeck/globeoverlay/internal/engine"
	"github.com/nocdeck/globeoverlay/internal/geo"
	"github.com/nocdeck/globeoverlay/internal/logging"
	intOtel "github.com/nocdeck/globeoverlay/internal/otel"
	"github.com/nocdeck/globeoverlay/internal/overlay"
	"github.com/nocdeck/globeoverlay/internal/perf"
	"github.com/nocdeck/globeoverlay/internal/stream"
	"github.com/nocdeck/globeoverlay/pkg/streaming"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	AppName string = "overlayd"
)

var (
	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()
)

// logPublisher is the fallback sink when the WebSocket consumer is not
// reachable. Frames are logged at debug level so the projection loop
// keeps running.
type logPublisher struct {
	logger *slog.Logger
}

func (p logPublisher) PublishPositions(frame overlay.PositionFrame) {
	p.logger.Debug("Position frame",
		"positions", len(frame.Positions),
		"cameraDistance", frame.CameraDistance)
}

func main() {
	configDir := flag.String("config", ".", "directory containing the config file")
	demo := flag.Bool("demo", false, "seed demonstration sites into the catalog")
	flag.Parse()

	// Bootstrap logging to stdout until the log file is ready.
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := config.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}

	logFilePath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
	}

	// OTel provider, if enabled, exports logs and periodic metric
	// snapshots to files alongside the main log.
	var otelLogProvider *sdklog.LoggerProvider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		metricsPath := logging.LogFilePath(logsDir, AppName+".metrics", SessionStartTime)
		metricsFile, err := os.OpenFile(metricsPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			Logger.Error("Failed to create metrics file", "error", err, "path", metricsPath)
		}

		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			MetricWriter: metricsFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			otelLogProvider = OTelProvider.LoggerProvider()
			Logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	var extraSinks []io.Writer
	if config.GetBool("graylog.enabled") {
		gelfWriter, err := logging.NewGelfWriter(config.GetString("graylog.address"))
		if err != nil {
			Logger.Error("Failed to connect Graylog writer", "error", err)
		} else {
			extraSinks = append(extraSinks, gelfWriter)
		}
	}

	// Scene first: the logging context provider reads the live camera.
	globeCfg := config.GetGlobeConfig()
	vpCfg := config.GetViewportConfig()
	scene := engine.NewHeadless(engine.Config{
		SphereRadius: globeCfg.SphereRadius,
		FOVDegrees:   globeCfg.FOVDegrees,
		Viewport:     camera.Viewport{Width: vpCfg.Width, Height: vpCfg.Height},
		PointOfView:  camera.PointOfView{Altitude: globeCfg.CameraAltitude},
		FrameRate:    globeCfg.FrameRate,
	})

	SlogManager.WithContext(func() []slog.Attr {
		pov := scene.PointOfView()
		return []slog.Attr{
			slog.Float64("cameraLat", pov.Latitude),
			slog.Float64("cameraLng", pov.Longitude),
		}
	})
	SlogManager.Setup(logFile, config.GetString("logLevel"), otelLogProvider, extraSinks...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logFilePath, "version", Version, "build", BuildDate)

	zlog := zerolog.New(logFile).With().Timestamp().Logger()

	// Degraded components are reported to the consumer UI once the
	// publisher is up.
	startupErrors := map[string]error{}

	// Marker catalog. A failed database stays nil and the overlay runs
	// from memory only.
	markers := overlay.NewMarkerSet()
	var catalogMgr *catalog.Manager
	if config.GetBool("db.enabled") {
		catalogMgr = catalog.NewManager(zlog)
		catalogMgr.SqliteFilePath = filepath.Join(logsDir,
			fmt.Sprintf("%s_%s.db", AppName, SessionStartTime.Format("20060102_150405")))

		if err := catalogMgr.Connect(); err != nil {
			Logger.Error("Failed to connect marker catalog", "error", err)
			startupErrors["catalog"] = err
			catalogMgr = nil
		} else if err := catalogMgr.Setup(); err != nil {
			Logger.Error("Failed to set up marker catalog", "error", err)
			startupErrors["catalog"] = err
			catalogMgr = nil
		}
	}
	if catalogMgr != nil {
		if *demo {
			seedDemoSites(catalogMgr, globeCfg.MarkerAltitude)
		}
		loaded, err := catalogMgr.LoadMarkers(markers)
		if err != nil {
			Logger.Error("Failed to load markers from catalog", "error", err)
			startupErrors["catalog"] = err
		} else {
			Logger.Info("Loaded markers from catalog", "count", loaded)
		}
	}

	// Merge sites published by the frontend API, if it is up.
	mergeAPISites(markers, globeCfg.MarkerAltitude)

	rotator := overlay.NewRotator(scene, globeCfg.AutoRotateSpeed)
	rotator.SetEnabled(globeCfg.AutoRotate)

	// WebSocket publisher with log-only fallback.
	var publisher overlay.Publisher = logPublisher{logger: Logger}
	var wsPub *stream.Publisher
	if config.GetBool("ws.enabled") {
		wsPub = stream.New(stream.Config{
			URL:    config.GetString("ws.url"),
			Secret: config.GetString("api.apiKey"),
		}, Logger)

		vp := scene.Viewport()
		if err := wsPub.Connect(); err != nil {
			Logger.Error("Failed to connect WebSocket publisher, frames go to log only", "error", err)
			wsPub = nil
		} else if err := wsPub.Hello(streaming.HelloPayload{
			Service:      AppName,
			SphereRadius: scene.SphereRadius(),
			Width:        vp.Width,
			Height:       vp.Height,
		}); err != nil {
			Logger.Error("WebSocket hello not acknowledged, frames go to log only", "error", err)
			wsPub.Close()
			wsPub = nil
		}
	}
	if wsPub != nil {
		publisher = wsPub
		Logger.Info("WebSocket publisher connected", "url", config.GetString("ws.url"))
		for component, err := range startupErrors {
			wsPub.PublishError(component, err)
		}
	}

	// Frame timing sink. The manager keeps a gzip backup file when the
	// InfluxDB server is unreachable, so a failed Connect is not fatal.
	var perfMgr *perf.Manager
	if config.GetBool("influx.enabled") {
		backupPath := filepath.Join(logsDir,
			fmt.Sprintf("%s_perf_%s.log.gz", AppName, SessionStartTime.Format("20060102_150405")))
		perfMgr = perf.NewManager(zlog, backupPath)
		if err := perfMgr.Connect(); err != nil {
			Logger.Warn("Frame timing sink unavailable", "error", err)
			perfMgr = nil
		}
	}

	// Control plane: inbound WebSocket commands route through the
	// dispatcher into the marker set, camera and rotator.
	dispatcherLogger := logging.NewDispatcherLogger(Logger)
	eventDispatcher, err := dispatcher.New(dispatcherLogger)
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		os.Exit(1)
	}

	var announcer control.Announcer
	if wsPub != nil {
		announcer = wsPub
	}
	var store control.Store
	if catalogMgr != nil {
		store = catalogMgr
	}
	controlSvc := control.NewService(markers, scene, rotator, announcer, store, globeCfg.MarkerAltitude, Logger)
	controlSvc.Register(eventDispatcher)
	if wsPub != nil {
		wsPub.SetCommandHandler(control.Bridge(eventDispatcher, Logger))
	}

	onStats := func(s overlay.FrameStats) {
		if !s.Published {
			return
		}
		if perfMgr != nil {
			if err := perfMgr.WriteFrameStat(context.Background(), s); err != nil {
				Logger.Debug("Failed to write frame stat", "error", err)
			}
		}
		if catalogMgr != nil {
			if err := catalogMgr.RecordFrameStat(s); err != nil {
				Logger.Debug("Failed to record frame stat", "error", err)
			}
		}
	}

	loop, err := overlay.NewLoop(scene, scene, markers, publisher, overlay.LoopConfig{
		PixelThreshold: globeCfg.PixelThreshold,
		FallbackRadius: globeCfg.SphereRadius,
		BeforeTick:     rotator.Advance,
		OnStats:        onStats,
	})
	if err != nil {
		Logger.Error("Failed to create projection loop", "error", err)
		os.Exit(1)
	}
	loop.Run()
	Logger.Info("Projection loop running",
		"markers", markers.Len(),
		"frameRate", globeCfg.FrameRate,
		"autoRotate", globeCfg.AutoRotate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	Logger.Info("Shutting down")

	loop.Stop()
	if wsPub != nil {
		wsPub.Close()
	}
	if perfMgr != nil {
		perfMgr.Close()
	}
	if catalogMgr != nil {
		catalogMgr.Close()
	}
	if OTelProvider != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := OTelProvider.Flush(shutdownCtx); err != nil {
			Logger.Warn("Failed to flush OTel data", "error", err)
		}
		if err := OTelProvider.Shutdown(shutdownCtx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	Logger.Info("Shutdown complete")
}

// mergeAPISites pulls sites from the frontend API and merges them into
// the marker set. API entries win over catalog entries with the same ID.
// Sites without an altitude of their own get defaultAltitude.
func mergeAPISites(markers *overlay.MarkerSet, defaultAltitude float64) {
	client := api.New(config.GetString("api.serverUrl"), config.GetString("api.apiKey"))
	if err := client.Healthcheck(); err != nil {
		Logger.Info("Frontend is offline, skipping site fetch")
		return
	}
	Logger.Info("Frontend is online")

	sites, err := client.FetchSites()
	if err != nil {
		Logger.Warn("Failed to fetch sites from frontend", "error", err)
		return
	}

	merged := 0
	for _, s := range sites {
		point := geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}
		if s.ID == "" || !point.Valid() {
			Logger.Warn("Skipping invalid site from frontend", "id", s.ID)
			continue
		}
		altitude := s.Altitude
		if altitude == 0 {
			altitude = defaultAltitude
		}
		markers.Put(overlay.Marker{
			ID:       s.ID,
			Position: point,
			Altitude: altitude,
			OffsetX:  s.OffsetX,
			OffsetY:  s.OffsetY,
			Label:    s.Label,
			Content:  s.Content,
		})
		merged++
	}
	Logger.Info("Merged sites from frontend", "count", merged)
}

func seedDemoSites(mgr *catalog.Manager, altitude float64) {
	demoSites := []overlay.Marker{
		{ID: "london", Position: geo.Point{Latitude: 51.5074, Longitude: -0.1278}, Label: "London"},
		{ID: "new-york", Position: geo.Point{Latitude: 40.7128, Longitude: -74.006}, Label: "New York"},
		{ID: "tokyo", Position: geo.Point{Latitude: 35.6762, Longitude: 139.6503}, Label: "Tokyo"},
		{ID: "sydney", Position: geo.Point{Latitude: -33.8688, Longitude: 151.2093}, Label: "Sydney"},
		{ID: "nairobi", Position: geo.Point{Latitude: -1.2921, Longitude: 36.8219}, Label: "Nairobi"},
		{ID: "sao-paulo", Position: geo.Point{Latitude: -23.5505, Longitude: -46.6333}, Label: "São Paulo"},
	}
	for _, m := range demoSites {
		m.Altitude = altitude
		if err := mgr.SaveMarker(m); err != nil {
			Logger.Warn("Failed to seed demo site", "id", m.ID, "error", err)
		}
	}
	Logger.Info("Seeded demo sites", "count", len(demoSites))
}
