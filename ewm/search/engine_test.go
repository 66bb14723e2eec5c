package search_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explore-with-me/ewm-go/ewm"
	"github.com/explore-with-me/ewm-go/ewm/search"
	"github.com/explore-with-me/ewm-go/testutil"
)

var now = testutil.MustParseTime("2025-06-01 12:00:00")

type fixture struct {
	events   *testutil.MemoryEventStore
	requests *testutil.MemoryRequestStore
	views    *testutil.CannedViews
	engine   *search.Engine
}

func newFixture(viewCounts map[string]int64) fixture {
	events := testutil.NewMemoryEventStore()
	users := testutil.NewMemoryUserStore(ewm.User{ID: 1, Name: "Ann", Email: "ann@example.com"})
	requests := testutil.NewMemoryRequestStore()
	views := testutil.NewCannedViews(viewCounts)

	return fixture{
		events:   events,
		requests: requests,
		views:    views,
		engine: search.NewEngine(
			events, users, requests, views, search.WithClock(testutil.FixedClock(now))),
	}
}

type eventSeed struct {
	state            ewm.EventState
	eventDate        time.Time
	participantLimit int64
	paid             bool
	annotation       string
	publishedOn      time.Time
}

func (f fixture) givenEvent(t *testing.T, seed eventSeed) ewm.Event {
	t.Helper()

	event := ewm.Event{
		Title:            "gig",
		Annotation:       seed.annotation,
		EventDate:        seed.eventDate,
		State:            seed.state,
		ParticipantLimit: seed.participantLimit,
		Paid:             seed.paid,
		Category:         ewm.Category{ID: 10, Name: "concerts"},
		Initiator:        ewm.User{ID: 1, Name: "Ann", Email: "ann@example.com"},
	}

	if seed.state == ewm.StatePublished {
		publishedOn := seed.publishedOn
		if publishedOn.IsZero() {
			publishedOn = now.Add(-time.Hour)
		}

		event.PublishedOn = &publishedOn
	}

	saved, err := f.events.Save(context.Background(), event)
	require.NoError(t, err, "error in arranging test data")

	return saved
}

func published(eventDate time.Time) eventSeed {
	return eventSeed{state: ewm.StatePublished, eventDate: eventDate}
}

func eventIDs(events []ewm.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}

	return ids
}

func Test_ListPublic_SortByViews(t *testing.T) {
	f := newFixture(nil)

	first := f.givenEvent(t, published(now.Add(24*time.Hour)))
	second := f.givenEvent(t, published(now.Add(48*time.Hour)))
	third := f.givenEvent(t, published(now.Add(72*time.Hour)))

	f.views = testutil.NewCannedViews(map[string]int64{
		search.EventURI(first.ID):  10,
		search.EventURI(second.ID): 3,
		search.EventURI(third.ID):  7,
	})
	f.engine = search.NewEngine(
		f.events, testutil.NewMemoryUserStore(), f.requests, f.views,
		search.WithClock(testutil.FixedClock(now)))

	events, err := f.engine.ListPublic(
		context.Background(), ewm.PublicEventFilter{Sort: ewm.SortViews}, ewm.Page{Limit: 10})

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int64{3, 7, 10}, []int64{events[0].Views, events[1].Views, events[2].Views})
	assert.Equal(t, []int64{second.ID, third.ID, first.ID}, eventIDs(events))
}

func Test_ListPublic_SortByEventDate(t *testing.T) {
	f := newFixture(nil)

	later := f.givenEvent(t, published(now.Add(72*time.Hour)))
	sooner := f.givenEvent(t, published(now.Add(24*time.Hour)))

	events, err := f.engine.ListPublic(
		context.Background(), ewm.PublicEventFilter{Sort: ewm.SortEventDate}, ewm.Page{Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, []int64{sooner.ID, later.ID}, eventIDs(events))
}

func Test_ListPublic_OnlyAvailable(t *testing.T) {
	tests := []struct {
		name      string
		limit     int64
		confirmed int64
		wantKept  bool
	}{
		{name: "limit_above_confirmed_is_available", limit: 10, confirmed: 9, wantKept: true},
		{name: "limit_equal_to_confirmed_is_still_available", limit: 10, confirmed: 10, wantKept: true},
		{name: "confirmed_beyond_limit_is_dropped", limit: 10, confirmed: 11, wantKept: false},
		{name: "zero_limit_with_no_confirmed_passes", limit: 0, confirmed: 0, wantKept: true},
		{name: "zero_limit_with_confirmed_is_dropped", limit: 0, confirmed: 1, wantKept: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(nil)
			event := f.givenEvent(t, eventSeed{
				state:            ewm.StatePublished,
				eventDate:        now.Add(24 * time.Hour),
				participantLimit: tc.limit,
			})
			f.requests.SetConfirmed(event.ID, tc.confirmed)

			events, err := f.engine.ListPublic(
				context.Background(), ewm.PublicEventFilter{OnlyAvailable: true}, ewm.Page{Limit: 10})

			require.NoError(t, err)

			if tc.wantKept {
				require.Len(t, events, 1)
				assert.Equal(t, tc.confirmed, events[0].ConfirmedRequests)
			} else {
				assert.Empty(t, events)
			}
		})
	}
}

func Test_ListPublic_InvertedRangeIsRejected(t *testing.T) {
	f := newFixture(nil)

	_, err := f.engine.ListPublic(
		context.Background(),
		ewm.PublicEventFilter{
			RangeStart: now.Add(48 * time.Hour),
			RangeEnd:   now.Add(24 * time.Hour),
		},
		ewm.Page{Limit: 10})

	assert.ErrorIs(t, err, ewm.ErrInvalidArgument)
}

func Test_ListPublic_PaginatesAfterNarrowing(t *testing.T) {
	f := newFixture(nil)

	// Five published events, the first two over their limit. The page
	// windows the narrowed list, so offset 1 limit 2 must land on the 4th
	// and 5th event, not the 2nd and 3rd.
	var kept []int64
	for i := 0; i < 5; i++ {
		event := f.givenEvent(t, eventSeed{
			state:            ewm.StatePublished,
			eventDate:        now.Add(time.Duration(i+1) * 24 * time.Hour),
			participantLimit: 1,
		})

		if i < 2 {
			f.requests.SetConfirmed(event.ID, 2)
		} else {
			kept = append(kept, event.ID)
		}
	}

	events, err := f.engine.ListPublic(
		context.Background(), ewm.PublicEventFilter{OnlyAvailable: true}, ewm.Page{Offset: 1, Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, kept[1:3], eventIDs(events))
}

func Test_ListPublic_EmptyMatchSkipsAnnotation(t *testing.T) {
	f := newFixture(nil)

	events, err := f.engine.ListPublic(context.Background(), ewm.PublicEventFilter{}, ewm.Page{Limit: 10})

	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, f.views.Calls(), "no view query expected for an empty candidate list")
}

func Test_BatchViewAnnotation_QueryParameters(t *testing.T) {
	f := newFixture(nil)
	event := f.givenEvent(t, published(now.Add(24*time.Hour)))

	_, err := f.engine.ListPublic(context.Background(), ewm.PublicEventFilter{}, ewm.Page{Limit: 10})
	require.NoError(t, err)

	call := f.views.LastCall()
	assert.False(t, call.Unique, "batch annotation counts every visit")
	assert.Equal(t, now.AddDate(-10000, 0, 0), call.Start)
	assert.Equal(t, now, call.End)
	assert.Equal(t, []string{search.EventURI(event.ID)}, call.URIs)
}

func Test_BatchViewAnnotation_MissingCountsDefaultToZero(t *testing.T) {
	f := newFixture(nil)
	f.givenEvent(t, published(now.Add(24*time.Hour)))

	events, err := f.engine.ListPublic(context.Background(), ewm.PublicEventFilter{}, ewm.Page{Limit: 10})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(0), events[0].Views)
}

func Test_SingleViewAnnotation_QueryParameters(t *testing.T) {
	f := newFixture(nil)
	publishedOn := now.Add(-3 * time.Hour)
	event := f.givenEvent(t, eventSeed{
		state:       ewm.StatePublished,
		eventDate:   now.Add(24 * time.Hour),
		publishedOn: publishedOn,
	})

	_, err := f.engine.GetPublic(context.Background(), event.ID)
	require.NoError(t, err)

	call := f.views.LastCall()
	assert.True(t, call.Unique, "the single-event count deduplicates by origin")
	assert.Equal(t, publishedOn, call.Start)
	assert.Equal(t, now, call.End)
	assert.Equal(t, []string{search.EventURI(event.ID)}, call.URIs)
}

func Test_SingleViewAnnotation_MissingCountKeepsPriorValue(t *testing.T) {
	f := newFixture(nil)
	event := f.givenEvent(t, published(now.Add(24*time.Hour)))

	got, err := f.engine.GetPublic(context.Background(), event.ID)

	require.NoError(t, err)
	assert.Equal(t, event.Views, got.Views)
}

func Test_GetPublic_UnpublishedIsNotFound(t *testing.T) {
	f := newFixture(nil)
	event := f.givenEvent(t, eventSeed{state: ewm.StatePending, eventDate: now.Add(24 * time.Hour)})

	_, err := f.engine.GetPublic(context.Background(), event.ID)

	assert.ErrorIs(t, err, ewm.ErrNotFound)
}

func Test_GetForUser(t *testing.T) {
	f := newFixture(map[string]int64{"/events/1": 5})

	t.Run("unknown_user_is_not_found", func(t *testing.T) {
		_, err := f.engine.GetForUser(context.Background(), 99, 1)
		assert.ErrorIs(t, err, ewm.ErrNotFound)
	})

	t.Run("unpublished_event_skips_the_view_query", func(t *testing.T) {
		event := f.givenEvent(t, eventSeed{state: ewm.StatePending, eventDate: now.Add(24 * time.Hour)})

		got, err := f.engine.GetForUser(context.Background(), 1, event.ID)

		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Views)
		assert.Empty(t, f.views.Calls())
	})
}

func Test_ListByInitiator(t *testing.T) {
	f := newFixture(nil)

	f.givenEvent(t, eventSeed{state: ewm.StatePending, eventDate: now.Add(24 * time.Hour)})
	f.givenEvent(t, published(now.Add(48*time.Hour)))

	t.Run("lists_all_states_of_the_initiator", func(t *testing.T) {
		events, err := f.engine.ListByInitiator(context.Background(), 1, ewm.Page{Limit: 10})

		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("unknown_user_is_not_found", func(t *testing.T) {
		_, err := f.engine.ListByInitiator(context.Background(), 99, ewm.Page{Limit: 10})
		assert.ErrorIs(t, err, ewm.ErrNotFound)
	})

	t.Run("invalid_page_is_rejected", func(t *testing.T) {
		_, err := f.engine.ListByInitiator(context.Background(), 1, ewm.Page{Limit: 0})
		assert.ErrorIs(t, err, ewm.ErrInvalidArgument)
	})
}

func Test_ListForAdmin_FilterDefaults(t *testing.T) {
	f := newFixture(nil)

	f.givenEvent(t, eventSeed{state: ewm.StatePending, eventDate: now.Add(24 * time.Hour)})
	f.givenEvent(t, eventSeed{state: ewm.StateCanceled, eventDate: now.Add(24 * time.Hour)})
	f.givenEvent(t, published(now.Add(24*time.Hour)))
	past := f.givenEvent(t, eventSeed{state: ewm.StatePending, eventDate: now.Add(-24 * time.Hour)})

	t.Run("absent_fields_match_everything", func(t *testing.T) {
		events, err := f.engine.ListForAdmin(context.Background(), ewm.AdminEventFilter{}, ewm.Page{Limit: 10})

		require.NoError(t, err)
		assert.Len(t, events, 4, "the default range reaches arbitrarily far into the past")
	})

	t.Run("explicit_range_start_narrows", func(t *testing.T) {
		events, err := f.engine.ListForAdmin(
			context.Background(), ewm.AdminEventFilter{RangeStart: now}, ewm.Page{Limit: 10})

		require.NoError(t, err)
		assert.Len(t, events, 3)
		assert.NotContains(t, eventIDs(events), past.ID)
	})

	t.Run("state_filter_narrows", func(t *testing.T) {
		events, err := f.engine.ListForAdmin(
			context.Background(),
			ewm.AdminEventFilter{States: []ewm.EventState{ewm.StatePublished}},
			ewm.Page{Limit: 10})

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, ewm.StatePublished, events[0].State)
	})
}

func Test_ViewProviderFailure_IsPropagated(t *testing.T) {
	f := newFixture(nil)
	f.givenEvent(t, published(now.Add(24*time.Hour)))

	boom := errors.New("aggregator down")
	f.views.FailWith(boom)

	_, err := f.engine.ListPublic(context.Background(), ewm.PublicEventFilter{}, ewm.Page{Limit: 10})

	assert.ErrorIs(t, err, boom)
}
