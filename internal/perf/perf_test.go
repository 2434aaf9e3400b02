package perf

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocdeck/globeoverlay/internal/overlay"
)

func TestFrameStatPoint(t *testing.T) {
	ts := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	s := overlay.FrameStats{
		Time:         ts,
		Duration:     1500 * time.Microsecond,
		MarkerCount:  12,
		VisibleCount: 7,
		Published:    true,
	}

	point := FrameStatPoint(s)
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)

	assert.True(t, strings.HasPrefix(line, "frame "), "measurement should be 'frame': %s", line)
	assert.Contains(t, line, "durationMs=1.5")
	assert.Contains(t, line, "markerCount=12i")
	assert.Contains(t, line, "visibleCount=7i")
	assert.Contains(t, line, "published=true")
}

func TestWritePointFallsBackToBackupFile(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "perf_backup.gz")

	m := NewManager(zerolog.New(io.Discard), backup)
	m.IsValid = false

	file, err := os.OpenFile(backup, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	m.BackupWriter = gzip.NewWriter(file)

	s := overlay.FrameStats{
		Time:         time.Now(),
		Duration:     2 * time.Millisecond,
		MarkerCount:  3,
		VisibleCount: 1,
	}
	require.NoError(t, m.WriteFrameStat(t.Context(), s))
	require.NoError(t, m.Close())
	require.NoError(t, file.Close())

	// Read the gzip backup back and check the line protocol landed.
	raw, err := os.Open(backup)
	require.NoError(t, err)
	defer raw.Close()
	zr, err := gzip.NewReader(raw)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	assert.Contains(t, string(data), "frame ")
	assert.Contains(t, string(data), "markerCount=3i")
}

func TestWritePointUnknownBucket(t *testing.T) {
	m := NewManager(zerolog.New(io.Discard), "")
	m.IsValid = true

	err := m.WritePoint(t.Context(), "no_such_bucket", FrameStatPoint(overlay.FrameStats{}))
	assert.Error(t, err)
}
