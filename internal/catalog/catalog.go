// Package catalog persists overlay sites and loads them into the marker set.
package catalog

import (
	"fmt"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/nocdeck/globeoverlay/internal/geo"
	"github.com/nocdeck/globeoverlay/internal/overlay"
)

const (
	sridWGS84       = 4326
	sridWebMercator = 3857
)

// SiteToMarker converts a persisted site into an overlay marker. Web
// Mercator positions are reprojected to geographic coordinates first.
func SiteToMarker(s Site) (overlay.Marker, error) {
	coord, ok := s.Position.Coordinates()
	if !ok {
		return overlay.Marker{}, fmt.Errorf("site %q: empty position", s.SiteID)
	}

	var point geo.Point
	switch s.SRID {
	case sridWGS84, 0:
		point = geo.Point{Latitude: coord.Y, Longitude: coord.X}
	case sridWebMercator:
		var err error
		point, err = geo.FromWebMercator(coord.X, coord.Y)
		if err != nil {
			return overlay.Marker{}, fmt.Errorf("site %q: %w", s.SiteID, err)
		}
	default:
		return overlay.Marker{}, fmt.Errorf("site %q: unsupported SRID %d", s.SiteID, s.SRID)
	}

	if !point.Valid() {
		return overlay.Marker{}, fmt.Errorf("site %q: %w", s.SiteID, geo.ErrInvalidCoordinates)
	}

	return overlay.Marker{
		ID:       s.SiteID,
		Position: point,
		Altitude: s.AltitudeFraction,
		OffsetX:  s.OffsetX,
		OffsetY:  s.OffsetY,
		Label:    s.Label,
		Content:  s.Content,
	}, nil
}

// MarkerToSite converts an overlay marker into a site row for persistence.
// Positions are always stored as WGS84 lng/lat.
func MarkerToSite(m overlay.Marker) Site {
	return Site{
		SiteID: m.ID,
		Name:   m.Label,
		Position: geom.NewPoint(geom.Coordinates{
			XY: geom.XY{X: m.Position.Longitude, Y: m.Position.Latitude},
		}),
		SRID:             sridWGS84,
		AltitudeFraction: m.Altitude,
		OffsetX:          m.OffsetX,
		OffsetY:          m.OffsetY,
		Label:            m.Label,
		Content:          m.Content,
		Enabled:          true,
	}
}

// LoadMarkers reads all enabled sites and fills the marker set. Sites
// that fail conversion are skipped and logged, not fatal.
func (m *Manager) LoadMarkers(set *overlay.MarkerSet) (int, error) {
	var sites []Site
	if err := m.DB.Where("enabled = ?", true).Find(&sites).Error; err != nil {
		return 0, fmt.Errorf("loading sites: %w", err)
	}

	loaded := 0
	for _, s := range sites {
		marker, err := SiteToMarker(s)
		if err != nil {
			m.Logger.Warn().Err(err).Str("siteId", s.SiteID).Msg("Skipping unloadable site")
			continue
		}
		set.Put(marker)
		loaded++
	}

	m.Logger.Info().Int("loaded", loaded).Int("total", len(sites)).Msg("Loaded markers from catalog")
	return loaded, nil
}

// SaveMarker upserts a marker as a site row keyed by SiteID.
func (m *Manager) SaveMarker(marker overlay.Marker) error {
	site := MarkerToSite(marker)

	var existing Site
	err := m.DB.Where("site_id = ?", site.SiteID).First(&existing).Error
	if err == nil {
		site.ID = existing.ID
		site.CreatedAt = existing.CreatedAt
	}
	return m.DB.Save(&site).Error
}

// DeleteMarker disables the site row for the given marker ID.
func (m *Manager) DeleteMarker(id string) error {
	return m.DB.Model(&Site{}).Where("site_id = ?", id).Update("enabled", false).Error
}

// RecordFrameStat persists one projection pass sample.
func (m *Manager) RecordFrameStat(s overlay.FrameStats) error {
	return m.DB.Create(&FrameStat{
		Time:         s.Time,
		MarkerCount:  s.MarkerCount,
		VisibleCount: s.VisibleCount,
		DurationMs:   float32(s.Duration) / float32(time.Millisecond),
		Published:    s.Published,
	}).Error
}
