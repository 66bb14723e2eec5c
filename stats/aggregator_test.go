package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explore-with-me/ewm-go/ewm"
	"github.com/explore-with-me/ewm-go/stats"
	"github.com/explore-with-me/ewm-go/testutil"
)

var now = testutil.MustParseTime("2025-06-01 12:00:00")

func newAggregator() (*stats.Aggregator, *testutil.MemoryHitStore) {
	hits := testutil.NewMemoryHitStore()

	return stats.NewAggregator(hits, stats.WithClock(testutil.FixedClock(now))), hits
}

func recordHits(t *testing.T, a *stats.Aggregator, uri string, origins ...string) {
	t.Helper()

	for _, origin := range origins {
		err := a.RecordHit(context.Background(), "ewm-main-service", uri, origin, now.Add(-time.Hour))
		require.NoError(t, err, "error in arranging test data")
	}
}

func Test_RecordHit(t *testing.T) {
	tests := []struct {
		name      string
		app       string
		uri       string
		origin    string
		timestamp time.Time
		wantErr   bool
	}{
		{
			name:      "valid_hit",
			app:       "ewm-main-service",
			uri:       "/events/1",
			origin:    "192.163.0.1",
			timestamp: now.Add(-time.Minute),
		},
		{
			name:      "timestamp_exactly_now_is_accepted",
			app:       "ewm-main-service",
			uri:       "/events/1",
			origin:    "192.163.0.1",
			timestamp: now,
		},
		{
			name:      "future_timestamp",
			app:       "ewm-main-service",
			uri:       "/events/1",
			origin:    "192.163.0.1",
			timestamp: now.Add(time.Minute),
			wantErr:   true,
		},
		{
			name:      "blank_app",
			uri:       "/events/1",
			origin:    "192.163.0.1",
			timestamp: now,
			wantErr:   true,
		},
		{
			name:      "blank_uri",
			app:       "ewm-main-service",
			origin:    "192.163.0.1",
			timestamp: now,
			wantErr:   true,
		},
		{
			name:      "blank_origin",
			app:       "ewm-main-service",
			uri:       "/events/1",
			timestamp: now,
			wantErr:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			aggregator, hits := newAggregator()

			err := aggregator.RecordHit(context.Background(), tc.app, tc.uri, tc.origin, tc.timestamp)

			if tc.wantErr {
				assert.ErrorIs(t, err, ewm.ErrInvalidArgument)
				assert.Zero(t, hits.Len(), "an invalid hit must not be stored")
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, hits.Len())
			}
		})
	}
}

func Test_Stats_Deduplication(t *testing.T) {
	aggregator, _ := newAggregator()

	// Two visits from the same origin plus one from another.
	recordHits(t, aggregator, "/events/1", "192.163.0.1", "192.163.0.1", "192.163.0.2")

	t.Run("every_visit_counts", func(t *testing.T) {
		viewStats, err := aggregator.Stats(
			context.Background(), now.Add(-24*time.Hour), now, nil, false)

		require.NoError(t, err)
		require.Len(t, viewStats, 1)
		assert.Equal(t, int64(3), viewStats[0].Hits)
	})

	t.Run("unique_counts_each_origin_once", func(t *testing.T) {
		viewStats, err := aggregator.Stats(
			context.Background(), now.Add(-24*time.Hour), now, nil, true)

		require.NoError(t, err)
		require.Len(t, viewStats, 1)
		assert.Equal(t, int64(2), viewStats[0].Hits)
	})
}

func Test_Stats_OrderedByCountDescending(t *testing.T) {
	aggregator, _ := newAggregator()

	recordHits(t, aggregator, "/events/1", "192.163.0.1")
	recordHits(t, aggregator, "/events/2", "192.163.0.1", "192.163.0.2", "192.163.0.3")
	recordHits(t, aggregator, "/events/3", "192.163.0.1", "192.163.0.2")

	viewStats, err := aggregator.Stats(context.Background(), now.Add(-24*time.Hour), now, nil, false)

	require.NoError(t, err)
	require.Len(t, viewStats, 3)
	assert.Equal(t, "/events/2", viewStats[0].URI)
	assert.Equal(t, "/events/3", viewStats[1].URI)
	assert.Equal(t, "/events/1", viewStats[2].URI)
}

func Test_Stats_URIRestriction(t *testing.T) {
	aggregator, _ := newAggregator()

	recordHits(t, aggregator, "/events/1", "192.163.0.1")
	recordHits(t, aggregator, "/events/2", "192.163.0.1")

	t.Run("restricted_to_the_given_set", func(t *testing.T) {
		viewStats, err := aggregator.Stats(
			context.Background(), now.Add(-24*time.Hour), now, []string{"/events/1"}, false)

		require.NoError(t, err)
		require.Len(t, viewStats, 1)
		assert.Equal(t, "/events/1", viewStats[0].URI)
	})

	t.Run("uris_without_hits_are_omitted", func(t *testing.T) {
		viewStats, err := aggregator.Stats(
			context.Background(), now.Add(-24*time.Hour), now,
			[]string{"/events/1", "/events/99"}, false)

		require.NoError(t, err)
		require.Len(t, viewStats, 1)
		assert.Equal(t, "/events/1", viewStats[0].URI)
	})
}

func Test_Stats_TimeRange(t *testing.T) {
	aggregator, hits := newAggregator()

	err := aggregator.RecordHit(
		context.Background(), "ewm-main-service", "/events/1", "192.163.0.1", now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, hits.Len())

	t.Run("hits_outside_the_range_are_excluded", func(t *testing.T) {
		viewStats, err := aggregator.Stats(
			context.Background(), now.Add(-24*time.Hour), now, nil, false)

		require.NoError(t, err)
		assert.Empty(t, viewStats)
	})

	t.Run("range_bounds_are_inclusive", func(t *testing.T) {
		viewStats, err := aggregator.Stats(
			context.Background(), now.Add(-48*time.Hour), now.Add(-48*time.Hour), nil, false)

		require.NoError(t, err)
		require.Len(t, viewStats, 1)
		assert.Equal(t, int64(1), viewStats[0].Hits)
	})

	t.Run("start_after_end_is_rejected", func(t *testing.T) {
		_, err := aggregator.Stats(context.Background(), now, now.Add(-time.Hour), nil, false)

		assert.ErrorIs(t, err, ewm.ErrInvalidArgument)
	})
}

func Test_Stats_ReadsAreIdempotent(t *testing.T) {
	aggregator, _ := newAggregator()

	recordHits(t, aggregator, "/events/1", "192.163.0.1", "192.163.0.2")

	first, err := aggregator.Stats(context.Background(), now.Add(-24*time.Hour), now, nil, false)
	require.NoError(t, err)

	second, err := aggregator.Stats(context.Background(), now.Add(-24*time.Hour), now, nil, false)
	require.NoError(t, err)

	assert.Equal(t, first, second, "reads must not change the stored hits")
}

func Test_Query_MapsByURI(t *testing.T) {
	aggregator, _ := newAggregator()

	recordHits(t, aggregator, "/events/1", "192.163.0.1")
	recordHits(t, aggregator, "/events/2", "192.163.0.1", "192.163.0.2")

	counts, err := aggregator.Query(context.Background(), now.Add(-24*time.Hour), now, nil, false)

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"/events/1": 1, "/events/2": 2}, counts)
}
