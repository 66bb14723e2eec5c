// Package stats is the visit aggregator: it records raw endpoint hits and
// answers per-URI count queries over time ranges, optionally deduplicated
// by origin. Hit records are append-only; nothing ever mutates or deletes
// them through this package.
package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Hit is one recorded visit: which app served which URI to which origin, when.
type Hit struct {
	ID        uuid.UUID
	App       string
	URI       string
	Origin    string
	Timestamp time.Time
}

// ViewStats is a materialized per-URI hit count over a queried range.
// It is derived, never stored.
type ViewStats struct {
	URI  string
	Hits int64
}

// HitStore is the durable store collaborator for hit records.
type HitStore interface {
	// Append persists one immutable hit record.
	Append(ctx context.Context, hit Hit) error

	// Counts returns per-URI hit counts for hits within [start, end].
	// A nil uris set matches all recorded URIs. With unique set, each
	// distinct (URI, origin) pair counts at most once. URIs without any
	// matching hit are omitted. Ordered by count descending.
	Counts(ctx context.Context, start time.Time, end time.Time, uris []string, unique bool) ([]ViewStats, error)
}
