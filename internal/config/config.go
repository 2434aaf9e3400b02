package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// GlobeConfig holds the scene and projection loop settings.
type GlobeConfig struct {
	SphereRadius    float64 `json:"sphereRadius" mapstructure:"sphereRadius"`
	FOVDegrees      float64 `json:"fovDegrees" mapstructure:"fovDegrees"`
	CameraAltitude  float64 `json:"cameraAltitude" mapstructure:"cameraAltitude"`
	MarkerAltitude  float64 `json:"markerAltitude" mapstructure:"markerAltitude"`
	PixelThreshold  float64 `json:"pixelThreshold" mapstructure:"pixelThreshold"`
	FrameRate       float64 `json:"frameRate" mapstructure:"frameRate"`
	AutoRotate      bool    `json:"autoRotate" mapstructure:"autoRotate"`
	AutoRotateSpeed float64 `json:"autoRotateSpeed" mapstructure:"autoRotateSpeed"`

	// Passed through to the rendering layer; the projection loop
	// ignores them.
	ShowLabels       bool `json:"showLabels" mapstructure:"showLabels"`
	ShowArcEndpoints bool `json:"showArcEndpoints" mapstructure:"showArcEndpoints"`
}

// ViewportConfig holds the virtual viewport dimensions in pixels.
type ViewportConfig struct {
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// OTelConfig holds OpenTelemetry export settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./overlaylogs")

	viper.SetDefault("globe.sphereRadius", 100.0)
	viper.SetDefault("globe.fovDegrees", 50.0)
	viper.SetDefault("globe.cameraAltitude", 2.5)
	viper.SetDefault("globe.markerAltitude", 0.0)
	viper.SetDefault("globe.pixelThreshold", 0.5)
	viper.SetDefault("globe.frameRate", 60.0)
	viper.SetDefault("globe.autoRotate", false)
	viper.SetDefault("globe.autoRotateSpeed", 2.0)
	viper.SetDefault("globe.showLabels", true)
	viper.SetDefault("globe.showArcEndpoints", true)

	viper.SetDefault("viewport.width", 1280.0)
	viper.SetDefault("viewport.height", 720.0)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("ws.enabled", true)
	viper.SetDefault("ws.url", "ws://localhost:5001/overlay")

	viper.SetDefault("db.enabled", true)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "globeoverlay")

	viper.SetDefault("influx.enabled", true)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "overlay-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "globe-overlay")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("globe_overlay.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float64 config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetGlobeConfig returns the globe scene settings.
func GetGlobeConfig() GlobeConfig {
	return GlobeConfig{
		SphereRadius:     viper.GetFloat64("globe.sphereRadius"),
		FOVDegrees:       viper.GetFloat64("globe.fovDegrees"),
		CameraAltitude:   viper.GetFloat64("globe.cameraAltitude"),
		MarkerAltitude:   viper.GetFloat64("globe.markerAltitude"),
		PixelThreshold:   viper.GetFloat64("globe.pixelThreshold"),
		FrameRate:        viper.GetFloat64("globe.frameRate"),
		AutoRotate:       viper.GetBool("globe.autoRotate"),
		AutoRotateSpeed:  viper.GetFloat64("globe.autoRotateSpeed"),
		ShowLabels:       viper.GetBool("globe.showLabels"),
		ShowArcEndpoints: viper.GetBool("globe.showArcEndpoints"),
	}
}

// GetViewportConfig returns the virtual viewport dimensions.
func GetViewportConfig() ViewportConfig {
	return ViewportConfig{
		Width:  viper.GetFloat64("viewport.width"),
		Height: viper.GetFloat64("viewport.height"),
	}
}

// GetOTelConfig returns the OpenTelemetry export settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
