package stats

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/explore-with-me/ewm-go/ewm"
)

const (
	logMsgHitRecorded = "hit recorded"
	logAttrApp        = "app"
	logAttrURI        = "uri"
	logAttrHitID      = "hit_id"
)

// Aggregator validates and serves the visit-statistics contract over a
// HitStore. It holds no in-memory state and is safe for concurrent use.
type Aggregator struct {
	hits   HitStore
	clock  ewm.Clock
	logger ewm.Logger
}

// Option defines a functional option for configuring an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger for the Aggregator.
func WithLogger(logger ewm.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithClock sets the clock for the Aggregator, mainly for tests.
func WithClock(clock ewm.Clock) Option {
	return func(a *Aggregator) {
		a.clock = clock
	}
}

// NewAggregator creates an Aggregator over the given hit store.
func NewAggregator(hits HitStore, options ...Option) *Aggregator {
	a := &Aggregator{
		hits:  hits,
		clock: ewm.SystemClock,
	}

	for _, option := range options {
		option(a)
	}

	return a
}

// RecordHit appends one immutable hit record. A timestamp after the current
// time is invalid; there is no deduplication or merging at write time.
func (a *Aggregator) RecordHit(ctx context.Context, app string, uri string, origin string, timestamp time.Time) error {
	if app == "" || uri == "" || origin == "" {
		return ewm.InvalidArgumentError("app, uri and origin must not be blank")
	}

	if timestamp.After(a.clock()) {
		return ewm.InvalidArgumentError(
			"hit timestamp %s must not be in the future", ewm.FormatTime(timestamp))
	}

	hit := Hit{
		ID:        uuid.New(),
		App:       app,
		URI:       uri,
		Origin:    origin,
		Timestamp: timestamp,
	}

	if err := a.hits.Append(ctx, hit); err != nil {
		return err
	}

	if a.logger != nil {
		a.logger.Debug(logMsgHitRecorded, logAttrHitID, hit.ID.String(), logAttrApp, app, logAttrURI, uri)
	}

	return nil
}

// Stats returns per-URI hit counts for hits within [start, end], restricted
// to the given URI set unless it is nil, deduplicated by origin when unique
// is set. Ordered by count descending; URIs with zero matches are omitted.
func (a *Aggregator) Stats(
	ctx context.Context,
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) ([]ViewStats, error) {

	if start.After(end) {
		return nil, ewm.InvalidArgumentError(
			"range start %s is after range end %s", ewm.FormatTime(start), ewm.FormatTime(end))
	}

	return a.hits.Counts(ctx, start, end, uris, unique)
}

// Query is the map-shaped form of Stats, keyed by URI. It satisfies the
// view-count contract the event search engine consumes; callers must
// default absent URIs to 0.
func (a *Aggregator) Query(
	ctx context.Context,
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) (map[string]int64, error) {

	viewStats, err := a.Stats(ctx, start, end, uris, unique)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(viewStats))
	for _, vs := range viewStats {
		counts[vs.URI] = vs.Hits
	}

	return counts, nil
}
