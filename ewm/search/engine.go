// Package search resolves sparse event filters into query shapes, applies
// the post-fetch pipeline of the public listing, and annotates results with
// view counts from the visit aggregator.
//
// The public listing pipeline order is load -> availability filter -> view
// annotation -> sort -> paginate. The order is part of the contract: it
// decides which records land on a given page, so pagination windows do not
// map onto any single underlying storage page.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/explore-with-me/ewm-go/ewm"
)

// viewsLookbackYears is how far back the batch view-count annotation reaches.
const viewsLookbackYears = 10000

// EventURI renders the visit-statistics URI of an event.
func EventURI(eventID int64) string {
	return fmt.Sprintf("/events/%d", eventID)
}

// ViewsProvider answers per-URI visit counts over a time range.
// URIs without any matching hit are absent from the returned map.
type ViewsProvider interface {
	Query(ctx context.Context, start time.Time, end time.Time, uris []string, unique bool) (map[string]int64, error)
}

// Engine is the event search engine. It owns no state beyond its
// collaborators and is safe for concurrent use.
type Engine struct {
	events   ewm.EventStore
	users    ewm.UserStore
	requests ewm.RequestStore
	views    ViewsProvider
	clock    ewm.Clock
	logger   ewm.Logger
}

// Option defines a functional option for configuring an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the Engine.
func WithLogger(logger ewm.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the clock for the Engine, mainly for tests.
func WithClock(clock ewm.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// NewEngine creates an Engine with the given collaborators.
func NewEngine(
	events ewm.EventStore,
	users ewm.UserStore,
	requests ewm.RequestStore,
	views ViewsProvider,
	options ...Option,
) *Engine {

	e := &Engine{
		events:   events,
		users:    users,
		requests: requests,
		views:    views,
		clock:    ewm.SystemClock,
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// ListByInitiator returns the initiator's events, paginated at the
// data-access level and annotated with view counts. No state filtering.
func (e *Engine) ListByInitiator(ctx context.Context, userID int64, page ewm.Page) ([]ewm.Event, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	if _, err := e.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	events, err := e.events.ListByInitiator(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	return e.annotateViews(ctx, events)
}

// ListForAdmin returns full event records matching the filter, paginated at
// the data-access level and annotated with view counts. Absent filter fields
// default to "everything".
func (e *Engine) ListForAdmin(ctx context.Context, filter ewm.AdminEventFilter, page ewm.Page) ([]ewm.Event, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	events, err := e.events.ListAdmin(ctx, filter.Normalize(e.clock()), page)
	if err != nil {
		return nil, err
	}

	return e.annotateViews(ctx, events)
}

// ListPublic returns PUBLISHED events matching the filter, narrowed by the
// availability filter when requested, annotated with view counts, sorted,
// and only then paginated in memory.
func (e *Engine) ListPublic(ctx context.Context, filter ewm.PublicEventFilter, page ewm.Page) ([]ewm.Event, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	filter, err := filter.Normalize(e.clock())
	if err != nil {
		return nil, err
	}

	events, err := e.events.ListPublic(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return []ewm.Event{}, nil
	}

	events, err = e.annotateConfirmedRequests(ctx, events)
	if err != nil {
		return nil, err
	}

	if filter.OnlyAvailable {
		events = onlyAvailable(events)
	}

	events, err = e.annotateViews(ctx, events)
	if err != nil {
		return nil, err
	}

	sortEvents(events, filter.Sort)

	return paginate(events, page), nil
}

// GetForUser returns one event visible to its initiator, with a
// deduplicated view count since publication when the event is published.
// When the aggregator has no row for the event the prior count is kept.
func (e *Engine) GetForUser(ctx context.Context, userID int64, eventID int64) (ewm.Event, error) {
	if _, err := e.users.GetByID(ctx, userID); err != nil {
		return ewm.Event{}, err
	}

	event, err := e.events.GetByID(ctx, eventID)
	if err != nil {
		return ewm.Event{}, err
	}

	return e.annotateSingleView(ctx, event)
}

// GetPublic returns one PUBLISHED event with a deduplicated view count
// since publication. When the aggregator has no row for the event the prior
// count is kept.
func (e *Engine) GetPublic(ctx context.Context, eventID int64) (ewm.Event, error) {
	event, err := e.events.GetPublishedByID(ctx, eventID)
	if err != nil {
		return ewm.Event{}, err
	}

	return e.annotateSingleView(ctx, event)
}

// annotateSingleView fetches the deduplicated view count of one published
// event over [publishedOn, now]. Unlike the batch path, a missing result
// leaves the event's prior view count untouched.
func (e *Engine) annotateSingleView(ctx context.Context, event ewm.Event) (ewm.Event, error) {
	if event.State != ewm.StatePublished {
		return event, nil
	}

	uri := EventURI(event.ID)

	counts, err := e.views.Query(ctx, *event.PublishedOn, e.clock(), []string{uri}, true)
	if err != nil {
		return ewm.Event{}, err
	}

	if hits, ok := counts[uri]; ok {
		event.Views = hits
	}

	return event, nil
}

// annotateViews attaches non-deduplicated all-time view counts to the
// PUBLISHED events of the candidate list. URIs the aggregator knows nothing
// about count as 0; non-published events keep whatever count they carry.
func (e *Engine) annotateViews(ctx context.Context, events []ewm.Event) ([]ewm.Event, error) {
	published := make([]ewm.Event, 0, len(events))
	for _, event := range events {
		if event.State == ewm.StatePublished {
			published = append(published, event)
		}
	}

	if len(published) == 0 {
		return events, nil
	}

	// Most recently published first. Only the membership of the URI set is
	// observable downstream, the aggregator keys its answer by URI.
	sort.Slice(published, func(i, j int) bool {
		return published[i].PublishedOn.After(*published[j].PublishedOn)
	})

	uris := make([]string, 0, len(published))
	for _, event := range published {
		uris = append(uris, EventURI(event.ID))
	}

	now := e.clock()

	counts, err := e.views.Query(ctx, now.AddDate(-viewsLookbackYears, 0, 0), now, uris, false)
	if err != nil {
		return nil, err
	}

	for i, event := range events {
		if event.State == ewm.StatePublished {
			events[i].Views = counts[EventURI(event.ID)]
		}
	}

	return events, nil
}

// annotateConfirmedRequests fills the derived confirmed-request count of
// every candidate event.
func (e *Engine) annotateConfirmedRequests(ctx context.Context, events []ewm.Event) ([]ewm.Event, error) {
	eventIDs := make([]int64, 0, len(events))
	for _, event := range events {
		eventIDs = append(eventIDs, event.ID)
	}

	counts, err := e.requests.ConfirmedCounts(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	for i := range events {
		events[i].ConfirmedRequests = counts[events[i].ID]
	}

	return events, nil
}

// onlyAvailable keeps the events whose participant limit still covers their
// confirmed requests. The predicate is limit >= confirmed, so a zero-limit
// event passes exactly when it has zero confirmed requests.
func onlyAvailable(events []ewm.Event) []ewm.Event {
	available := make([]ewm.Event, 0, len(events))
	for _, event := range events {
		if event.ParticipantLimit >= event.ConfirmedRequests {
			available = append(available, event)
		}
	}

	return available
}

// sortEvents orders the list ascending by view count or event date.
// Any other sort value leaves the order untouched.
func sortEvents(events []ewm.Event, by ewm.PublicSort) {
	switch by {
	case ewm.SortViews:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Views < events[j].Views
		})

	case ewm.SortEventDate:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].EventDate.Before(events[j].EventDate)
		})
	}
}

// paginate windows the already-sorted, already-filtered list in memory.
func paginate(events []ewm.Event, page ewm.Page) []ewm.Event {
	if page.Offset >= len(events) {
		return []ewm.Event{}
	}

	end := page.Offset + page.Limit
	if end > len(events) {
		end = len(events)
	}

	return events[page.Offset:end]
}
