package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/explore-with-me/ewm-go/ewm"
)

/***** MemoryEventStore *****/

// MemoryEventStore implements ewm.EventStore over a map.
type MemoryEventStore struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]ewm.Event
}

// NewMemoryEventStore creates an empty in-memory event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[int64]ewm.Event)}
}

// Save upserts the event, assigning the next id to fresh events.
func (s *MemoryEventStore) Save(_ context.Context, event ewm.Event) (ewm.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == 0 {
		s.nextID++
		event.ID = s.nextID
	} else if event.ID > s.nextID {
		s.nextID = event.ID
	}

	s.events[event.ID] = event

	return event, nil
}

// GetByID loads one event.
func (s *MemoryEventStore) GetByID(_ context.Context, eventID int64) (ewm.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return ewm.Event{}, ewm.NotFoundError("event with id %d", eventID)
	}

	return event, nil
}

// GetByIDAndInitiator loads one event only if it belongs to the initiator.
func (s *MemoryEventStore) GetByIDAndInitiator(
	ctx context.Context,
	eventID int64,
	initiatorID int64,
) (ewm.Event, error) {

	event, err := s.GetByID(ctx, eventID)
	if err != nil || event.Initiator.ID != initiatorID {
		return ewm.Event{}, ewm.NotFoundError("event with id %d for initiator %d", eventID, initiatorID)
	}

	return event, nil
}

// GetPublishedByID loads one event only if it is PUBLISHED.
func (s *MemoryEventStore) GetPublishedByID(ctx context.Context, eventID int64) (ewm.Event, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil || event.State != ewm.StatePublished {
		return ewm.Event{}, ewm.NotFoundError("published event with id %d", eventID)
	}

	return event, nil
}

// ListByInitiator returns the initiator's events ordered by id, paginated.
func (s *MemoryEventStore) ListByInitiator(
	_ context.Context,
	initiatorID int64,
	page ewm.Page,
) ([]ewm.Event, error) {

	return paginateEvents(s.matching(func(e ewm.Event) bool {
		return e.Initiator.ID == initiatorID
	}), page), nil
}

// ListAdmin returns events matching a normalized admin filter, ordered by
// id, paginated.
func (s *MemoryEventStore) ListAdmin(
	_ context.Context,
	filter ewm.AdminEventFilter,
	page ewm.Page,
) ([]ewm.Event, error) {

	return paginateEvents(s.matching(func(e ewm.Event) bool {
		if !containsState(filter.States, e.State) {
			return false
		}

		if !e.EventDate.After(filter.RangeStart) || !e.EventDate.Before(filter.RangeEnd) {
			return false
		}

		if len(filter.UserIDs) > 0 && !containsID(filter.UserIDs, e.Initiator.ID) {
			return false
		}

		if len(filter.CategoryIDs) > 0 && !containsID(filter.CategoryIDs, e.Category.ID) {
			return false
		}

		return true
	}), page), nil
}

// ListPublic returns every PUBLISHED event matching a normalized public
// filter, ordered by id, without pagination.
func (s *MemoryEventStore) ListPublic(_ context.Context, filter ewm.PublicEventFilter) ([]ewm.Event, error) {
	return s.matching(func(e ewm.Event) bool {
		if e.State != ewm.StatePublished {
			return false
		}

		if !e.EventDate.After(filter.RangeStart) || !e.EventDate.Before(filter.RangeEnd) {
			return false
		}

		if filter.Text != "" && !matchesText(e, filter.Text) {
			return false
		}

		if len(filter.CategoryIDs) > 0 && !containsID(filter.CategoryIDs, e.Category.ID) {
			return false
		}

		if filter.Paid != nil && e.Paid != *filter.Paid {
			return false
		}

		return true
	}), nil
}

func (s *MemoryEventStore) matching(match func(ewm.Event) bool) []ewm.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]ewm.Event, 0)
	for _, event := range s.events {
		if match(event) {
			events = append(events, event)
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	return events
}

func paginateEvents(events []ewm.Event, page ewm.Page) []ewm.Event {
	if page.Offset >= len(events) {
		return []ewm.Event{}
	}

	end := page.Offset + page.Limit
	if end > len(events) {
		end = len(events)
	}

	return events[page.Offset:end]
}

func matchesText(e ewm.Event, text string) bool {
	needle := strings.ToLower(text)

	return strings.Contains(strings.ToLower(e.Annotation), needle) ||
		strings.Contains(strings.ToLower(e.Description), needle)
}

func containsState(states []ewm.EventState, state ewm.EventState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}

	return false
}

func containsID(ids []int64, id int64) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}

	return false
}

/***** MemoryUserStore *****/

// MemoryUserStore implements ewm.UserStore over a map.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[int64]ewm.User
}

// NewMemoryUserStore creates an in-memory user store seeded with the given users.
func NewMemoryUserStore(users ...ewm.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[int64]ewm.User)}
	for _, user := range users {
		s.users[user.ID] = user
	}

	return s
}

// GetByID loads one user.
func (s *MemoryUserStore) GetByID(_ context.Context, userID int64) (ewm.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ewm.User{}, ewm.NotFoundError("user with id %d", userID)
	}

	return user, nil
}

/***** MemoryCategoryStore *****/

// MemoryCategoryStore implements ewm.CategoryStore over a map.
type MemoryCategoryStore struct {
	mu         sync.Mutex
	categories map[int64]ewm.Category
}

// NewMemoryCategoryStore creates an in-memory category store seeded with the
// given categories.
func NewMemoryCategoryStore(categories ...ewm.Category) *MemoryCategoryStore {
	s := &MemoryCategoryStore{categories: make(map[int64]ewm.Category)}
	for _, category := range categories {
		s.categories[category.ID] = category
	}

	return s
}

// GetByID loads one category.
func (s *MemoryCategoryStore) GetByID(_ context.Context, categoryID int64) (ewm.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[categoryID]
	if !ok {
		return ewm.Category{}, ewm.NotFoundError("category with id %d", categoryID)
	}

	return category, nil
}

/***** MemoryRequestStore *****/

// MemoryRequestStore implements ewm.RequestStore over a map of confirmed
// counts set directly by tests.
type MemoryRequestStore struct {
	mu        sync.Mutex
	confirmed map[int64]int64
}

// NewMemoryRequestStore creates an empty in-memory request store.
func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{confirmed: make(map[int64]int64)}
}

// SetConfirmed fixes the confirmed-request count of an event.
func (s *MemoryRequestStore) SetConfirmed(eventID int64, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmed[eventID] = count
}

// ConfirmedCounts returns the confirmed counts of the requested events,
// omitting events without any confirmed request.
func (s *MemoryRequestStore) ConfirmedCounts(_ context.Context, eventIDs []int64) (map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[int64]int64, len(eventIDs))
	for _, eventID := range eventIDs {
		if count, ok := s.confirmed[eventID]; ok && count > 0 {
			counts[eventID] = count
		}
	}

	return counts, nil
}

/***** MemoryCommentStore *****/

// MemoryCommentStore implements ewm.CommentStore over a map.
type MemoryCommentStore struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]ewm.Comment
}

// NewMemoryCommentStore creates an empty in-memory comment store.
func NewMemoryCommentStore() *MemoryCommentStore {
	return &MemoryCommentStore{comments: make(map[int64]ewm.Comment)}
}

// GetByID loads one comment.
func (s *MemoryCommentStore) GetByID(_ context.Context, commentID int64) (ewm.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[commentID]
	if !ok {
		return ewm.Comment{}, ewm.NotFoundError("comment with id %d", commentID)
	}

	return comment, nil
}

// Save upserts the comment, assigning the next id to fresh comments.
func (s *MemoryCommentStore) Save(_ context.Context, comment ewm.Comment) (ewm.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == 0 {
		s.nextID++
		comment.ID = s.nextID
	}

	s.comments[comment.ID] = comment

	return comment, nil
}

// Delete removes the comment.
func (s *MemoryCommentStore) Delete(_ context.Context, commentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return ewm.NotFoundError("comment with id %d", commentID)
	}

	delete(s.comments, commentID)

	return nil
}

// ListByEvent returns the event's comments in the requested order, paginated.
func (s *MemoryCommentStore) ListByEvent(
	_ context.Context,
	eventID int64,
	sortMode ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	return s.list(func(c ewm.Comment) bool { return c.EventID == eventID }, sortMode, page)
}

// ListByAuthor returns the author's comments in the requested order, paginated.
func (s *MemoryCommentStore) ListByAuthor(
	_ context.Context,
	authorID int64,
	sortMode ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	return s.list(func(c ewm.Comment) bool { return c.AuthorID == authorID }, sortMode, page)
}

func (s *MemoryCommentStore) list(
	match func(ewm.Comment) bool,
	sortMode ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	comments := make([]ewm.Comment, 0)
	for _, comment := range s.comments {
		if match(comment) {
			comments = append(comments, comment)
		}
	}

	switch sortMode {
	case ewm.CommentsByCreatedAsc:
		sort.Slice(comments, func(i, j int) bool { return comments[i].Created.Before(comments[j].Created) })

	case ewm.CommentsByCreatedDesc:
		sort.Slice(comments, func(i, j int) bool { return comments[i].Created.After(comments[j].Created) })

	case ewm.CommentsByEventAsc:
		sort.Slice(comments, func(i, j int) bool { return comments[i].EventID < comments[j].EventID })

	case ewm.CommentsByEventDesc:
		sort.Slice(comments, func(i, j int) bool { return comments[i].EventID > comments[j].EventID })

	default:
		return nil, ewm.InvalidArgumentError("unsupported comment sort mode %q", string(sortMode))
	}

	if page.Offset >= len(comments) {
		return []ewm.Comment{}, nil
	}

	end := page.Offset + page.Limit
	if end > len(comments) {
		end = len(comments)
	}

	return comments[page.Offset:end], nil
}
