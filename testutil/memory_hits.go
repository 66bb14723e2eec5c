package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/explore-with-me/ewm-go/stats"
)

// MemoryHitStore implements stats.HitStore over a slice of hit records.
type MemoryHitStore struct {
	mu   sync.Mutex
	hits []stats.Hit
}

// NewMemoryHitStore creates an empty in-memory hit store.
func NewMemoryHitStore() *MemoryHitStore {
	return &MemoryHitStore{}
}

// Append persists one hit record.
func (s *MemoryHitStore) Append(_ context.Context, hit stats.Hit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits = append(s.hits, hit)

	return nil
}

// Len returns the number of recorded hits.
func (s *MemoryHitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.hits)
}

// Counts aggregates per-URI hit counts for hits within [start, end],
// optionally restricted to a URI set and deduplicated by origin, ordered by
// count descending.
func (s *MemoryHitStore) Counts(
	_ context.Context,
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) ([]stats.ViewStats, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	var uriSet map[string]bool
	if uris != nil {
		uriSet = make(map[string]bool, len(uris))
		for _, uri := range uris {
			uriSet[uri] = true
		}
	}

	counts := make(map[string]int64)
	seenOrigins := make(map[string]map[string]bool)

	for _, hit := range s.hits {
		if hit.Timestamp.Before(start) || hit.Timestamp.After(end) {
			continue
		}

		if uriSet != nil && !uriSet[hit.URI] {
			continue
		}

		if unique {
			if seenOrigins[hit.URI] == nil {
				seenOrigins[hit.URI] = make(map[string]bool)
			}

			if seenOrigins[hit.URI][hit.Origin] {
				continue
			}

			seenOrigins[hit.URI][hit.Origin] = true
		}

		counts[hit.URI]++
	}

	viewStats := make([]stats.ViewStats, 0, len(counts))
	for uri, hits := range counts {
		viewStats = append(viewStats, stats.ViewStats{URI: uri, Hits: hits})
	}

	sort.Slice(viewStats, func(i, j int) bool { return viewStats[i].Hits > viewStats[j].Hits })

	return viewStats, nil
}
