// Package lifecycle owns the event state machine and the field-level
// mutation rules of user- and admin-initiated updates.
//
// Transitions: PENDING -> PUBLISHED (admin publish), PENDING -> CANCELED
// (admin reject or user cancel), CANCELED -> PENDING (user resubmit).
// There is no transition out of PUBLISHED.
package lifecycle

import (
	"context"
	"time"

	"github.com/explore-with-me/ewm-go/ewm"
)

const (
	// CreationLeadTime is the minimum gap between now and the event date
	// for user-submitted creation and edits.
	CreationLeadTime = 2 * time.Hour

	// PublicationLeadTime is the minimum gap between the moment of
	// publication and the event date.
	PublicationLeadTime = time.Hour
)

const (
	logMsgEventCreated   = "event created"
	logMsgEventUpdated   = "event updated"
	logMsgEventPublished = "event published"
	logAttrEventID       = "event_id"
	logAttrInitiatorID   = "initiator_id"
	logAttrState         = "state"
)

// Manager applies the event state machine and the generic field patch.
// All persistence goes through the injected stores; each operation is one
// read-modify-write unit against the event store.
type Manager struct {
	events     ewm.EventStore
	users      ewm.UserStore
	categories ewm.CategoryStore
	clock      ewm.Clock
	logger     ewm.Logger
}

// Option defines a functional option for configuring a Manager.
type Option func(*Manager)

// WithLogger sets the logger for the Manager.
func WithLogger(logger ewm.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock sets the clock for the Manager, mainly for tests.
func WithClock(clock ewm.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a Manager with the given store dependencies.
func NewManager(
	events ewm.EventStore,
	users ewm.UserStore,
	categories ewm.CategoryStore,
	options ...Option,
) *Manager {

	m := &Manager{
		events:     events,
		users:      users,
		categories: categories,
		clock:      ewm.SystemClock,
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// Create validates and persists a new event draft for the initiator.
// The initiator and the referenced category must exist, and the event date
// must be at least CreationLeadTime in the future. A fresh event is PENDING
// and unpublished.
func (m *Manager) Create(ctx context.Context, initiatorID int64, draft ewm.NewEvent) (ewm.Event, error) {
	initiator, err := m.users.GetByID(ctx, initiatorID)
	if err != nil {
		return ewm.Event{}, err
	}

	category, err := m.categories.GetByID(ctx, draft.CategoryID)
	if err != nil {
		return ewm.Event{}, err
	}

	now := m.clock()
	if draft.EventDate.Before(now.Add(CreationLeadTime)) {
		return ewm.Event{}, ewm.InvalidArgumentError(
			"event date %s must be at least two hours in the future",
			ewm.FormatTime(draft.EventDate))
	}

	event := ewm.Event{
		Title:             draft.Title,
		Annotation:        draft.Annotation,
		Description:       draft.Description,
		EventDate:         draft.EventDate,
		State:             ewm.StatePending,
		ParticipantLimit:  draft.ParticipantLimit,
		Paid:              draft.Paid,
		RequestModeration: draft.RequestModeration,
		Location:          draft.Location,
		Category:          category,
		Initiator:         initiator,
	}

	saved, err := m.events.Save(ctx, event)
	if err != nil {
		return ewm.Event{}, err
	}

	m.log(logMsgEventCreated, logAttrEventID, saved.ID, logAttrInitiatorID, initiatorID)

	return saved, nil
}

// UpdateByUser applies a patch to the initiator's own event. Published
// events are closed to user edits. The only legal state actions from this
// caller role are CANCEL_REVIEW and SEND_TO_REVIEW.
func (m *Manager) UpdateByUser(
	ctx context.Context,
	initiatorID int64,
	eventID int64,
	patch ewm.EventPatch,
) (ewm.Event, error) {

	event, err := m.events.GetByIDAndInitiator(ctx, eventID, initiatorID)
	if err != nil {
		return ewm.Event{}, err
	}

	now := m.clock()
	if patch.EventDate != nil && patch.EventDate.Before(now.Add(CreationLeadTime)) {
		return ewm.Event{}, ewm.InvalidArgumentError(
			"event date %s must be at least two hours in the future",
			ewm.FormatTime(*patch.EventDate))
	}

	if event.State == ewm.StatePublished {
		return ewm.Event{}, ewm.ConflictError("event %d has already been published", eventID)
	}

	event, err = m.applyPatch(ctx, event, patch, now)
	if err != nil {
		return ewm.Event{}, err
	}

	if patch.StateAction != nil {
		switch *patch.StateAction {
		case ewm.ActionCancelReview:
			event.State = ewm.StateCanceled

		case ewm.ActionSendToReview:
			event.State = ewm.StatePending

		default:
			return ewm.Event{}, ewm.InvalidArgumentError(
				"state action %s is not allowed for initiators", *patch.StateAction)
		}
	}

	saved, err := m.events.Save(ctx, event)
	if err != nil {
		return ewm.Event{}, err
	}

	m.log(logMsgEventUpdated, logAttrEventID, saved.ID, logAttrState, string(saved.State))

	return saved, nil
}

// UpdateByAdmin applies a patch to any event. A published event must keep
// its date at least PublicationLeadTime after its publication moment.
// PUBLISH_EVENT is only legal from PENDING with enough lead time and sets
// PublishedOn exactly once; REJECT_EVENT is only legal while not published.
func (m *Manager) UpdateByAdmin(ctx context.Context, eventID int64, patch ewm.EventPatch) (ewm.Event, error) {
	event, err := m.events.GetByID(ctx, eventID)
	if err != nil {
		return ewm.Event{}, err
	}

	now := m.clock()

	event, err = m.applyPatch(ctx, event, patch, now)
	if err != nil {
		return ewm.Event{}, err
	}

	if event.State == ewm.StatePublished && event.EventDate.Before(event.PublishedOn.Add(PublicationLeadTime)) {
		return ewm.Event{}, ewm.ConflictError(
			"event date %s must be no earlier than one hour after publication",
			ewm.FormatTime(event.EventDate))
	}

	if patch.StateAction != nil {
		switch *patch.StateAction {
		case ewm.ActionPublish:
			if event.State != ewm.StatePending {
				return ewm.Event{}, ewm.ConflictError(
					"event %d must be pending to be published, is %s", eventID, event.State)
			}

			if event.EventDate.Before(now.Add(PublicationLeadTime)) {
				return ewm.Event{}, ewm.ConflictError(
					"event date %s must be no earlier than one hour after publication",
					ewm.FormatTime(event.EventDate))
			}

			publishedOn := now
			event.State = ewm.StatePublished
			event.PublishedOn = &publishedOn

			m.log(logMsgEventPublished, logAttrEventID, eventID)

		case ewm.ActionReject:
			if event.State == ewm.StatePublished {
				return ewm.Event{}, ewm.ConflictError(
					"event %d has already been published and cannot be rejected", eventID)
			}

			event.State = ewm.StateCanceled

		default:
			return ewm.Event{}, ewm.InvalidArgumentError(
				"state action %s is not allowed for admins", *patch.StateAction)
		}
	}

	saved, err := m.events.Save(ctx, event)
	if err != nil {
		return ewm.Event{}, err
	}

	m.log(logMsgEventUpdated, logAttrEventID, saved.ID, logAttrState, string(saved.State))

	return saved, nil
}

// applyPatch overwrites the event's fields from the present patch fields.
// Absent fields are left untouched. A patched event date must be strictly
// in the future; a patched category must exist.
func (m *Manager) applyPatch(
	ctx context.Context,
	event ewm.Event,
	patch ewm.EventPatch,
	now time.Time,
) (ewm.Event, error) {

	if patch.Title != nil {
		event.Title = *patch.Title
	}

	if patch.Annotation != nil {
		event.Annotation = *patch.Annotation
	}

	if patch.Description != nil {
		event.Description = *patch.Description
	}

	if patch.EventDate != nil {
		if !patch.EventDate.After(now) {
			return ewm.Event{}, ewm.InvalidArgumentError(
				"event date %s must be in the future", ewm.FormatTime(*patch.EventDate))
		}

		event.EventDate = *patch.EventDate
	}

	if patch.Location != nil {
		event.Location = *patch.Location
	}

	if patch.ParticipantLimit != nil {
		event.ParticipantLimit = *patch.ParticipantLimit
	}

	if patch.Paid != nil {
		event.Paid = *patch.Paid
	}

	if patch.RequestModeration != nil {
		event.RequestModeration = *patch.RequestModeration
	}

	if patch.CategoryID != nil {
		category, err := m.categories.GetByID(ctx, *patch.CategoryID)
		if err != nil {
			return ewm.Event{}, err
		}

		event.Category = category
	}

	return event, nil
}

func (m *Manager) log(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}
