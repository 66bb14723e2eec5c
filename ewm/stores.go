package ewm

import (
	"context"
)

// EventStore is the durable store collaborator for events. Implementations
// return errors wrapping ErrNotFound for absent ids and pass storage
// failures through untouched.
type EventStore interface {
	// GetByID loads one event with its category and initiator bound.
	GetByID(ctx context.Context, eventID int64) (Event, error)

	// GetByIDAndInitiator loads one event only if it belongs to the initiator.
	GetByIDAndInitiator(ctx context.Context, eventID int64, initiatorID int64) (Event, error)

	// GetPublishedByID loads one event only if it is in state PUBLISHED.
	GetPublishedByID(ctx context.Context, eventID int64) (Event, error)

	// ListByInitiator returns the initiator's events, paginated at the
	// data-access level, ordered by id.
	ListByInitiator(ctx context.Context, initiatorID int64, page Page) ([]Event, error)

	// ListAdmin returns events matching a normalized admin filter,
	// paginated at the data-access level, ordered by id.
	ListAdmin(ctx context.Context, filter AdminEventFilter, page Page) ([]Event, error)

	// ListPublic returns every PUBLISHED event matching a normalized public
	// filter. Pagination is NOT applied here: the caller narrows the list
	// further (availability, views, sort) before windowing it in memory.
	ListPublic(ctx context.Context, filter PublicEventFilter) ([]Event, error)

	// Save upserts the event and returns it with its id assigned.
	Save(ctx context.Context, event Event) (Event, error)
}

// UserStore is the point-lookup collaborator for users.
type UserStore interface {
	GetByID(ctx context.Context, userID int64) (User, error)
}

// CategoryStore is the point-lookup collaborator for categories.
type CategoryStore interface {
	GetByID(ctx context.Context, categoryID int64) (Category, error)
}

// RequestStore exposes the confirmed-request counts the availability filter
// needs. Events without any confirmed request are absent from the map.
type RequestStore interface {
	ConfirmedCounts(ctx context.Context, eventIDs []int64) (map[int64]int64, error)
}

// CommentStore is the durable store collaborator for comments.
type CommentStore interface {
	GetByID(ctx context.Context, commentID int64) (Comment, error)
	Save(ctx context.Context, comment Comment) (Comment, error)
	Delete(ctx context.Context, commentID int64) error
	ListByEvent(ctx context.Context, eventID int64, sort CommentSort, page Page) ([]Comment, error)
	ListByAuthor(ctx context.Context, authorID int64, sort CommentSort, page Page) ([]Comment, error)
}
