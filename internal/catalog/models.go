package catalog

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// DatabaseModels is a list of all the structs which represent tables in the
// database schema.
var DatabaseModels = []interface{}{
	&Site{},
	&FrameStat{},
}

// Site is a persisted point of interest that seeds the overlay marker set.
// Position coordinates are interpreted per SRID: 4326 stores lng/lat
// degrees, 3857 stores Web Mercator easting/northing in meters.
type Site struct {
	ID               uint           `json:"id" gorm:"primarykey"`
	SiteID           string         `json:"siteId" gorm:"size:64;uniqueIndex"`
	Name             string         `json:"name" gorm:"size:127"`
	Position         geom.Point     `json:"position"`
	SRID             int            `json:"srid" gorm:"default:4326"`
	AltitudeFraction float64        `json:"altitudeFraction" gorm:"default:0"`
	OffsetX          float64        `json:"offsetX" gorm:"default:0"`
	OffsetY          float64        `json:"offsetY" gorm:"default:0"`
	Label            string         `json:"label" gorm:"size:127"`
	Content          string         `json:"content"`
	Meta             datatypes.JSON `json:"meta" gorm:"type:jsonb;default:'{}'"`
	Enabled          bool           `json:"enabled"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (*Site) TableName() string {
	return "sites"
}

// FrameStat is a persisted projection pass sample, kept for offline
// inspection of loop behavior.
type FrameStat struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	Time         time.Time `json:"time" gorm:"type:timestamptz;index:idx_framestat_time"`
	MarkerCount  int       `json:"markerCount"`
	VisibleCount int       `json:"visibleCount"`
	DurationMs   float32   `json:"durationMs"`
	Published    bool      `json:"published"`
}

func (*FrameStat) TableName() string {
	return "frame_stats"
}
