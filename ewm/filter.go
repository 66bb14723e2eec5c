package ewm

import (
	"time"
)

// farFuture is the default upper bound of an open-ended date range.
const farFutureYears = 10000

// Page is a zero-based offset/limit window over an ordered result list.
type Page struct {
	Offset int
	Limit  int
}

// Validate fails with ErrInvalidArgument unless the offset is non-negative
// and the limit positive.
func (p Page) Validate() error {
	if p.Offset < 0 {
		return InvalidArgumentError("offset must not be negative, got %d", p.Offset)
	}

	if p.Limit <= 0 {
		return InvalidArgumentError("limit must be positive, got %d", p.Limit)
	}

	return nil
}

/***** AdminEventFilter *****/

// AdminEventFilter is the sparse filter set of the admin event listing.
// Empty slices and zero times mean "absent"; Normalize resolves absent
// fields to their documented defaults.
type AdminEventFilter struct {
	UserIDs     []int64
	States      []EventState
	CategoryIDs []int64
	RangeStart  time.Time
	RangeEnd    time.Time
}

// Normalize fills absent fields with their defaults: all states, the minimum
// representable timestamp, and now plus 10000 years.
func (f AdminEventFilter) Normalize(now time.Time) AdminEventFilter {
	if len(f.States) == 0 {
		f.States = AllEventStates()
	}

	if f.RangeEnd.IsZero() {
		f.RangeEnd = now.AddDate(farFutureYears, 0, 0)
	}

	// RangeStart stays at the zero value when absent - it already is the
	// minimum representable timestamp.

	return f
}

// QueryShape identifies which of the fixed query shapes a filter set
// resolves to. The shapes exist for data-access efficiency only; for
// equivalent filter sets they must produce identical results.
type QueryShape int

const (
	ShapeByStates QueryShape = iota
	ShapeByStatesAndCategories
	ShapeByStatesAndUsers
	ShapeByStatesUsersAndCategories
)

// adminShapes is the decision table from {users present, categories present}
// to the admin query shape.
var adminShapes = [2][2]QueryShape{
	{ShapeByStates, ShapeByStatesAndCategories},
	{ShapeByStatesAndUsers, ShapeByStatesUsersAndCategories},
}

// Shape resolves the filter to its query shape.
func (f AdminEventFilter) Shape() QueryShape {
	users, categories := 0, 0

	if len(f.UserIDs) > 0 {
		users = 1
	}

	if len(f.CategoryIDs) > 0 {
		categories = 1
	}

	return adminShapes[users][categories]
}

/***** PublicEventFilter *****/

// PublicSort selects the ordering of the public event listing.
type PublicSort string

const (
	SortNone      PublicSort = ""
	SortEventDate PublicSort = "EVENT_DATE"
	SortViews     PublicSort = "VIEWS"
)

// PublicEventFilter is the sparse filter set of the public event listing.
// Only PUBLISHED events are ever matched. Text is matched case-insensitively
// against annotation and description. Paid is a tri-state: nil means both.
type PublicEventFilter struct {
	Text          string
	CategoryIDs   []int64
	Paid          *bool
	OnlyAvailable bool
	Sort          PublicSort
	RangeStart    time.Time
	RangeEnd      time.Time
}

// Normalize fills absent range bounds (start defaults to now, end to now
// plus 10000 years) and fails with ErrInvalidArgument when the resulting
// range end is not strictly after its start.
func (f PublicEventFilter) Normalize(now time.Time) (PublicEventFilter, error) {
	if f.RangeStart.IsZero() {
		f.RangeStart = now
	}

	if f.RangeEnd.IsZero() {
		f.RangeEnd = now.AddDate(farFutureYears, 0, 0)
	}

	if !f.RangeEnd.After(f.RangeStart) {
		return PublicEventFilter{}, InvalidArgumentError(
			"range end %s must be after range start %s",
			FormatTime(f.RangeEnd), FormatTime(f.RangeStart))
	}

	return f, nil
}

const (
	ShapePublished QueryShape = iota + 4
	ShapePublishedAndCategories
	ShapePublishedAndText
	ShapePublishedTextAndCategories
)

// publicShapes is the decision table from {text present, categories present}
// to the public query shape. The paid flag does not fork the shape - it is
// one more conditional predicate on any of them.
var publicShapes = [2][2]QueryShape{
	{ShapePublished, ShapePublishedAndCategories},
	{ShapePublishedAndText, ShapePublishedTextAndCategories},
}

// Shape resolves the filter to its query shape.
func (f PublicEventFilter) Shape() QueryShape {
	text, categories := 0, 0

	if f.Text != "" {
		text = 1
	}

	if len(f.CategoryIDs) > 0 {
		categories = 1
	}

	return publicShapes[text][categories]
}
