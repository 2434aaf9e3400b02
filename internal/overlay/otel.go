package overlay

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/nocdeck/globeoverlay/internal/overlay"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
