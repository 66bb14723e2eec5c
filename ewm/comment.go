package ewm

import (
	"time"
)

// EditWindow is how long after creation a comment stays editable by its author.
const EditWindow = 24 * time.Hour

// Comment is a user-authored comment on a published event.
// Created is immutable; only the text may change, and only within EditWindow.
type Comment struct {
	ID       int64
	Text     string
	EventID  int64
	AuthorID int64
	Created  time.Time
}

// CommentSort selects the ordering of comment listings.
type CommentSort string

const (
	CommentsByCreatedAsc  CommentSort = "ASC_CREATED"
	CommentsByCreatedDesc CommentSort = "DESC_CREATED"
	CommentsByEventAsc    CommentSort = "ASC_EVENT"
	CommentsByEventDesc   CommentSort = "DESC_EVENT"
)
