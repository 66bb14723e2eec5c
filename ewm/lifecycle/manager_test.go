package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explore-with-me/ewm-go/ewm"
	"github.com/explore-with-me/ewm-go/ewm/lifecycle"
	"github.com/explore-with-me/ewm-go/testutil"
)

var now = testutil.MustParseTime("2025-06-01 12:00:00")

type fixture struct {
	events     *testutil.MemoryEventStore
	users      *testutil.MemoryUserStore
	categories *testutil.MemoryCategoryStore
	manager    *lifecycle.Manager
}

func newFixture() fixture {
	events := testutil.NewMemoryEventStore()
	users := testutil.NewMemoryUserStore(ewm.User{ID: 1, Name: "Ann", Email: "ann@example.com"})
	categories := testutil.NewMemoryCategoryStore(
		ewm.Category{ID: 10, Name: "concerts"},
		ewm.Category{ID: 11, Name: "theatre"},
	)

	return fixture{
		events:     events,
		users:      users,
		categories: categories,
		manager:    lifecycle.NewManager(events, users, categories, lifecycle.WithClock(testutil.FixedClock(now))),
	}
}

func (f fixture) givenEvent(t *testing.T, state ewm.EventState, eventDate time.Time) ewm.Event {
	t.Helper()

	event := ewm.Event{
		Title:      "gig",
		Annotation: "a gig",
		EventDate:  eventDate,
		State:      state,
		Category:   ewm.Category{ID: 10, Name: "concerts"},
		Initiator:  ewm.User{ID: 1, Name: "Ann", Email: "ann@example.com"},
	}

	if state == ewm.StatePublished {
		publishedOn := now.Add(-time.Hour)
		event.PublishedOn = &publishedOn
	}

	saved, err := f.events.Save(context.Background(), event)
	require.NoError(t, err, "error in arranging test data")

	return saved
}

func draft(eventDate time.Time) ewm.NewEvent {
	return ewm.NewEvent{
		Title:      "gig",
		Annotation: "a gig",
		EventDate:  eventDate,
		CategoryID: 10,
	}
}

func Test_Create(t *testing.T) {
	tests := []struct {
		name        string
		initiatorID int64
		draft       ewm.NewEvent
		wantErr     error
	}{
		{
			name:        "event_one_hour_ahead_violates_lead_time",
			initiatorID: 1,
			draft:       draft(now.Add(time.Hour)),
			wantErr:     ewm.ErrInvalidArgument,
		},
		{
			name:        "event_three_hours_ahead_is_created_pending",
			initiatorID: 1,
			draft:       draft(now.Add(3 * time.Hour)),
		},
		{
			name:        "event_exactly_two_hours_ahead_is_created",
			initiatorID: 1,
			draft:       draft(now.Add(2 * time.Hour)),
		},
		{
			name:        "unknown_initiator",
			initiatorID: 99,
			draft:       draft(now.Add(3 * time.Hour)),
			wantErr:     ewm.ErrNotFound,
		},
		{
			name:        "unknown_category",
			initiatorID: 1,
			draft: ewm.NewEvent{
				Title:      "gig",
				EventDate:  now.Add(3 * time.Hour),
				CategoryID: 99,
			},
			wantErr: ewm.ErrNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()

			event, err := f.manager.Create(context.Background(), tc.initiatorID, tc.draft)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, ewm.StatePending, event.State)
			assert.Nil(t, event.PublishedOn)
			assert.NotZero(t, event.ID)
			assert.Equal(t, int64(1), event.Initiator.ID)
			assert.Equal(t, "concerts", event.Category.Name)
		})
	}
}

func Test_UpdateByUser_StateActions(t *testing.T) {
	cancelReview := ewm.ActionCancelReview
	sendToReview := ewm.ActionSendToReview
	publish := ewm.ActionPublish

	tests := []struct {
		name      string
		fromState ewm.EventState
		action    *ewm.StateAction
		wantState ewm.EventState
		wantErr   error
	}{
		{
			name:      "cancel_review_moves_pending_to_canceled",
			fromState: ewm.StatePending,
			action:    &cancelReview,
			wantState: ewm.StateCanceled,
		},
		{
			name:      "send_to_review_moves_canceled_to_pending",
			fromState: ewm.StateCanceled,
			action:    &sendToReview,
			wantState: ewm.StatePending,
		},
		{
			name:      "published_event_is_closed_to_user_edits",
			fromState: ewm.StatePublished,
			action:    &cancelReview,
			wantErr:   ewm.ErrConflict,
		},
		{
			name:      "publish_is_not_a_user_action",
			fromState: ewm.StatePending,
			action:    &publish,
			wantErr:   ewm.ErrInvalidArgument,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			event := f.givenEvent(t, tc.fromState, now.Add(24*time.Hour))

			updated, err := f.manager.UpdateByUser(
				context.Background(), 1, event.ID, ewm.EventPatch{StateAction: tc.action})

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantState, updated.State)
		})
	}
}

func Test_UpdateByUser_Validation(t *testing.T) {
	f := newFixture()
	event := f.givenEvent(t, ewm.StatePending, now.Add(24*time.Hour))

	t.Run("event_of_another_initiator_is_not_found", func(t *testing.T) {
		_, err := f.manager.UpdateByUser(context.Background(), 2, event.ID, ewm.EventPatch{})
		assert.ErrorIs(t, err, ewm.ErrNotFound)
	})

	t.Run("patched_event_date_below_two_hours_is_rejected", func(t *testing.T) {
		tooSoon := now.Add(time.Hour)
		_, err := f.manager.UpdateByUser(context.Background(), 1, event.ID, ewm.EventPatch{EventDate: &tooSoon})
		assert.ErrorIs(t, err, ewm.ErrInvalidArgument)
	})

	t.Run("absent_patch_fields_leave_the_event_untouched", func(t *testing.T) {
		updated, err := f.manager.UpdateByUser(context.Background(), 1, event.ID, ewm.EventPatch{})
		require.NoError(t, err)
		assert.Equal(t, event.Title, updated.Title)
		assert.Equal(t, event.EventDate, updated.EventDate)
		assert.Equal(t, event.State, updated.State)
	})

	t.Run("patched_category_must_exist", func(t *testing.T) {
		missing := int64(99)
		_, err := f.manager.UpdateByUser(context.Background(), 1, event.ID, ewm.EventPatch{CategoryID: &missing})
		assert.ErrorIs(t, err, ewm.ErrNotFound)
	})

	t.Run("present_patch_fields_overwrite", func(t *testing.T) {
		title := "new title"
		limit := int64(50)
		paid := true
		categoryID := int64(11)
		location := ewm.Location{Lat: 59.93, Lon: 30.31}

		updated, err := f.manager.UpdateByUser(context.Background(), 1, event.ID, ewm.EventPatch{
			Title:            &title,
			ParticipantLimit: &limit,
			Paid:             &paid,
			CategoryID:       &categoryID,
			Location:         &location,
		})

		require.NoError(t, err)
		assert.Equal(t, "new title", updated.Title)
		assert.Equal(t, int64(50), updated.ParticipantLimit)
		assert.True(t, updated.Paid)
		assert.Equal(t, "theatre", updated.Category.Name)
		assert.Equal(t, location, updated.Location)
	})
}

func Test_UpdateByAdmin_Publish(t *testing.T) {
	tests := []struct {
		name      string
		fromState ewm.EventState
		eventDate time.Time
		wantErr   error
	}{
		{
			name:      "pending_event_two_hours_ahead_is_published",
			fromState: ewm.StatePending,
			eventDate: now.Add(2 * time.Hour),
		},
		{
			name:      "thirty_minutes_lead_is_below_the_publication_lead_time",
			fromState: ewm.StatePending,
			eventDate: now.Add(30 * time.Minute),
			wantErr:   ewm.ErrConflict,
		},
		{
			name:      "canceled_event_cannot_be_published",
			fromState: ewm.StateCanceled,
			eventDate: now.Add(24 * time.Hour),
			wantErr:   ewm.ErrConflict,
		},
		{
			name:      "published_event_cannot_be_published_again",
			fromState: ewm.StatePublished,
			eventDate: now.Add(24 * time.Hour),
			wantErr:   ewm.ErrConflict,
		},
	}

	publish := ewm.ActionPublish

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			event := f.givenEvent(t, tc.fromState, tc.eventDate)

			updated, err := f.manager.UpdateByAdmin(
				context.Background(), event.ID, ewm.EventPatch{StateAction: &publish})

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, ewm.StatePublished, updated.State)
			require.NotNil(t, updated.PublishedOn)
			assert.Equal(t, now, *updated.PublishedOn)
		})
	}
}

func Test_UpdateByAdmin_Reject(t *testing.T) {
	reject := ewm.ActionReject

	t.Run("pending_event_is_rejected_to_canceled", func(t *testing.T) {
		f := newFixture()
		event := f.givenEvent(t, ewm.StatePending, now.Add(24*time.Hour))

		updated, err := f.manager.UpdateByAdmin(
			context.Background(), event.ID, ewm.EventPatch{StateAction: &reject})

		require.NoError(t, err)
		assert.Equal(t, ewm.StateCanceled, updated.State)
	})

	t.Run("published_event_cannot_be_rejected", func(t *testing.T) {
		f := newFixture()
		event := f.givenEvent(t, ewm.StatePublished, now.Add(24*time.Hour))

		_, err := f.manager.UpdateByAdmin(
			context.Background(), event.ID, ewm.EventPatch{StateAction: &reject})

		assert.ErrorIs(t, err, ewm.ErrConflict)
	})

	t.Run("unknown_event_is_not_found", func(t *testing.T) {
		f := newFixture()

		_, err := f.manager.UpdateByAdmin(
			context.Background(), 99, ewm.EventPatch{StateAction: &reject})

		assert.ErrorIs(t, err, ewm.ErrNotFound)
	})
}

func Test_UpdateByAdmin_PublishedDateGuard(t *testing.T) {
	f := newFixture()

	publishedOn := now.Add(-10 * time.Minute)
	event, err := f.events.Save(context.Background(), ewm.Event{
		Title:       "gig",
		EventDate:   now.Add(24 * time.Hour),
		State:       ewm.StatePublished,
		PublishedOn: &publishedOn,
		Category:    ewm.Category{ID: 10, Name: "concerts"},
		Initiator:   ewm.User{ID: 1, Name: "Ann", Email: "ann@example.com"},
	})
	require.NoError(t, err, "error in arranging test data")

	// PublishedOn is now-10m; a patched date closer than one hour after it
	// breaks the publication lead-time invariant.
	tooClose := publishedOn.Add(30 * time.Minute)
	_, err = f.manager.UpdateByAdmin(context.Background(), event.ID, ewm.EventPatch{EventDate: &tooClose})
	assert.ErrorIs(t, err, ewm.ErrConflict)

	farEnough := now.Add(6 * time.Hour)
	updated, err := f.manager.UpdateByAdmin(context.Background(), event.ID, ewm.EventPatch{EventDate: &farEnough})
	require.NoError(t, err)
	assert.Equal(t, farEnough, updated.EventDate)
}

func Test_PublishedOn_IsSetExactlyOnce(t *testing.T) {
	f := newFixture()
	event := f.givenEvent(t, ewm.StatePending, now.Add(24*time.Hour))

	publish := ewm.ActionPublish
	published, err := f.manager.UpdateByAdmin(
		context.Background(), event.ID, ewm.EventPatch{StateAction: &publish})
	require.NoError(t, err)
	require.NotNil(t, published.PublishedOn)
	publishedOn := *published.PublishedOn

	// Further admin patches must not touch PublishedOn.
	farEnough := now.Add(48 * time.Hour)
	updated, err := f.manager.UpdateByAdmin(context.Background(), event.ID, ewm.EventPatch{EventDate: &farEnough})
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedOn)
	assert.Equal(t, publishedOn, *updated.PublishedOn)
}

func Test_PatchedEventDate_MustBeFuture_ForAdmin(t *testing.T) {
	f := newFixture()
	event := f.givenEvent(t, ewm.StatePending, now.Add(24*time.Hour))

	past := now.Add(-time.Minute)
	_, err := f.manager.UpdateByAdmin(context.Background(), event.ID, ewm.EventPatch{EventDate: &past})
	assert.ErrorIs(t, err, ewm.ErrInvalidArgument)
}
