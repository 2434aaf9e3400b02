package overlay

import (
	"sort"
	"sync"
)

// MarkerSet holds the markers currently tracked by the projection loop.
type MarkerSet struct {
	mu      sync.RWMutex
	markers map[string]Marker
}

// NewMarkerSet creates an empty MarkerSet.
func NewMarkerSet() *MarkerSet {
	return &MarkerSet{
		markers: make(map[string]Marker),
	}
}

// Get retrieves a marker by ID.
func (s *MarkerSet) Get(id string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markers[id]
	return m, ok
}

// Put stores a marker, replacing any existing marker with the same ID.
func (s *MarkerSet) Put(m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[m.ID] = m
}

// Remove deletes a marker by ID. It reports whether the marker existed.
func (s *MarkerSet) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[id]
	delete(s.markers, id)
	return ok
}

// Reset clears all markers from the set.
func (s *MarkerSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = make(map[string]Marker)
}

// Len returns the number of markers in the set.
func (s *MarkerSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// Snapshot returns a copy of the current markers, sorted by ID so that
// consumers see a stable ordering across frames.
func (s *MarkerSet) Snapshot() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
