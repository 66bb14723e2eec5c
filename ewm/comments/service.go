// Package comments implements time-windowed moderation of user-authored
// event comments: authors may edit their own comment for 24 hours and
// delete it any time, admins may delete any comment.
package comments

import (
	"context"

	"github.com/explore-with-me/ewm-go/ewm"
)

const (
	logMsgCommentAdded   = "comment added"
	logMsgCommentEdited  = "comment edited"
	logMsgCommentRemoved = "comment removed"
	logAttrCommentID     = "comment_id"
	logAttrEventID       = "event_id"
	logAttrAuthorID      = "author_id"
)

// Service applies the comment moderation rules over the injected stores.
type Service struct {
	comments ewm.CommentStore
	events   ewm.EventStore
	users    ewm.UserStore
	clock    ewm.Clock
	logger   ewm.Logger
}

// Option defines a functional option for configuring a Service.
type Option func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(logger ewm.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock sets the clock for the Service, mainly for tests.
func WithClock(clock ewm.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService creates a Service with the given store dependencies.
func NewService(
	comments ewm.CommentStore,
	events ewm.EventStore,
	users ewm.UserStore,
	options ...Option,
) *Service {

	s := &Service{
		comments: comments,
		events:   events,
		users:    users,
		clock:    ewm.SystemClock,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Add persists a new comment by the author against a PUBLISHED event.
// Commenting on an unpublished event is a conflict.
func (s *Service) Add(ctx context.Context, authorID int64, eventID int64, text string) (ewm.Comment, error) {
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return ewm.Comment{}, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return ewm.Comment{}, err
	}

	if event.State != ewm.StatePublished {
		return ewm.Comment{}, ewm.ConflictError("event %d is not published", eventID)
	}

	comment := ewm.Comment{
		Text:     text,
		EventID:  eventID,
		AuthorID: authorID,
		Created:  s.clock(),
	}

	saved, err := s.comments.Save(ctx, comment)
	if err != nil {
		return ewm.Comment{}, err
	}

	s.log(logMsgCommentAdded, logAttrCommentID, saved.ID, logAttrEventID, eventID, logAttrAuthorID, authorID)

	return saved, nil
}

// Edit replaces the text of the author's own comment while the edit window
// since creation is still open. Created never changes.
func (s *Service) Edit(ctx context.Context, authorID int64, commentID int64, newText string) (ewm.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return ewm.Comment{}, err
	}

	if comment.AuthorID != authorID {
		return ewm.Comment{}, ewm.ConflictError(
			"user %d is not the author of comment %d", authorID, commentID)
	}

	if comment.Created.Add(ewm.EditWindow).Before(s.clock()) {
		return ewm.Comment{}, ewm.ConflictError(
			"comment %d can no longer be edited, 24 hours have passed since its creation", commentID)
	}

	comment.Text = newText

	saved, err := s.comments.Save(ctx, comment)
	if err != nil {
		return ewm.Comment{}, err
	}

	s.log(logMsgCommentEdited, logAttrCommentID, commentID, logAttrAuthorID, authorID)

	return saved, nil
}

// RemoveByAuthor deletes the author's own comment. No time window applies.
func (s *Service) RemoveByAuthor(ctx context.Context, authorID int64, commentID int64) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID != authorID {
		return ewm.ConflictError("user %d is not the author of comment %d", authorID, commentID)
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}

	s.log(logMsgCommentRemoved, logAttrCommentID, commentID, logAttrAuthorID, authorID)

	return nil
}

// RemoveByAdmin deletes any comment. No ownership or time check.
func (s *Service) RemoveByAdmin(ctx context.Context, commentID int64) error {
	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}

	s.log(logMsgCommentRemoved, logAttrCommentID, commentID)

	return nil
}

// ListByEvent returns the event's comments, paginated, ordered by creation
// time. Only the created-time sort modes are supported here.
func (s *Service) ListByEvent(
	ctx context.Context,
	eventID int64,
	sort ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	if err := page.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	switch sort {
	case ewm.CommentsByCreatedAsc, ewm.CommentsByCreatedDesc:
		return s.comments.ListByEvent(ctx, eventID, sort, page)

	default:
		return nil, ewm.InvalidArgumentError("unsupported comment sort mode %q", string(sort))
	}
}

// ListByAuthor returns the author's comments, paginated, ordered by creation
// time or by event id.
func (s *Service) ListByAuthor(
	ctx context.Context,
	authorID int64,
	sort ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	if err := page.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return nil, err
	}

	switch sort {
	case ewm.CommentsByCreatedAsc, ewm.CommentsByCreatedDesc, ewm.CommentsByEventAsc, ewm.CommentsByEventDesc:
		return s.comments.ListByAuthor(ctx, authorID, sort, page)

	default:
		return nil, ewm.InvalidArgumentError("unsupported comment sort mode %q", string(sort))
	}
}

func (s *Service) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
