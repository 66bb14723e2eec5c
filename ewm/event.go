package ewm

import (
	"time"
)

// EventState is the lifecycle state of an Event.
type EventState string

const (
	StatePending   EventState = "PENDING"
	StatePublished EventState = "PUBLISHED"
	StateCanceled  EventState = "CANCELED"
)

// AllEventStates is the full state set, used as the default admin listing filter.
func AllEventStates() []EventState {
	return []EventState{StatePending, StateCanceled, StatePublished}
}

// StateAction is a requested lifecycle transition carried on an update.
// Which actions are legal depends on the caller role: users may cancel their
// own review or resubmit, admins may publish or reject.
type StateAction string

const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW"
	ActionCancelReview StateAction = "CANCEL_REVIEW"
	ActionPublish      StateAction = "PUBLISH_EVENT"
	ActionReject       StateAction = "REJECT_EVENT"
)

// Location is the latitude/longitude pair an event takes place at.
// It is a value owned by its Event.
type Location struct {
	Lat float64
	Lon float64
}

// Category is an event category reference.
type Category struct {
	ID   int64
	Name string
}

// User is an initiator or comment author reference.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Event is a time-boxed public gathering with a lifecycle state, a capacity
// limit and an owning initiator.
//
// ConfirmedRequests and Views are derived values: ConfirmedRequests counts
// the event's CONFIRMED participation requests, Views comes from the visit
// aggregator. Both are populated transiently at read time and never persisted
// as event fields.
type Event struct {
	ID                int64
	Title             string
	Annotation        string
	Description       string
	EventDate         time.Time
	PublishedOn       *time.Time // set exactly once, on publication
	State             EventState
	ParticipantLimit  int64 // 0 = unlimited
	Paid              bool
	RequestModeration bool
	Location          Location
	Category          Category
	Initiator         User

	ConfirmedRequests int64
	Views             int64
}

// NewEvent is the draft a user submits to create an event.
// State and PublishedOn are not caller-settable: a fresh event is always
// PENDING and unpublished.
type NewEvent struct {
	Title             string
	Annotation        string
	Description       string
	EventDate         time.Time
	Location          Location
	CategoryID        int64
	ParticipantLimit  int64
	Paid              bool
	RequestModeration bool
}

// EventPatch is a sparse field update shared by the user and admin update
// paths. Nil means "leave untouched", never "clear". StateAction, when
// present, requests a lifecycle transition on top of the field changes.
type EventPatch struct {
	Title             *string
	Annotation        *string
	Description       *string
	EventDate         *time.Time
	Location          *Location
	CategoryID        *int64
	ParticipantLimit  *int64
	Paid              *bool
	RequestModeration *bool
	StateAction       *StateAction
}
