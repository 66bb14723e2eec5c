package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/explore-with-me/ewm-go/ewm"
)

const (
	colEventID           = "e.id"
	colTitle             = "e.title"
	colAnnotation        = "e.annotation"
	colDescription       = "e.description"
	colEventDate         = "e.event_date"
	colPublishedOn       = "e.published_on"
	colState             = "e.state"
	colParticipantLimit  = "e.participant_limit"
	colPaid              = "e.paid"
	colRequestModeration = "e.request_moderation"
	colLat               = "e.lat"
	colLon               = "e.lon"
	colCategoryFK        = "e.category_id"
	colInitiatorFK       = "e.initiator_id"
	colCategoryID        = "c.id"
	colCategoryName      = "c.name"
	colInitiatorID       = "u.id"
	colInitiatorName     = "u.name"
	colInitiatorEmail    = "u.email"

	logActionGetEvent    = "get event"
	logActionListEvents  = "list events"
	logActionInsertEvent = "insert event"
	logActionUpdateEvent = "update event"
)

// eventRow carries one scanned row of the joined events select.
type eventRow struct {
	id                int64
	title             string
	annotation        string
	description       string
	eventDate         time.Time
	publishedOn       sql.NullTime
	state             string
	participantLimit  int64
	paid              bool
	requestModeration bool
	lat               float64
	lon               float64
	categoryID        int64
	categoryName      string
	initiatorID       int64
	initiatorName     string
	initiatorEmail    string
}

// EventStore implements ewm.EventStore on PostgreSQL. Events are read with
// their category and initiator joined in; derived fields (confirmed
// requests, views) are not this store's concern.
type EventStore struct {
	engine
}

// GetByID loads one event with its category and initiator bound.
func (s *EventStore) GetByID(ctx context.Context, eventID int64) (ewm.Event, error) {
	sqlQuery, err := s.buildGetQuery(goqu.I(colEventID).Eq(eventID))
	if err != nil {
		return ewm.Event{}, err
	}

	event, found, err := s.queryOneEvent(ctx, sqlQuery)
	if err != nil {
		return ewm.Event{}, err
	}

	if !found {
		return ewm.Event{}, ewm.NotFoundError("event with id %d", eventID)
	}

	return event, nil
}

// GetByIDAndInitiator loads one event only if it belongs to the initiator.
func (s *EventStore) GetByIDAndInitiator(ctx context.Context, eventID int64, initiatorID int64) (ewm.Event, error) {
	sqlQuery, err := s.buildGetQuery(goqu.And(
		goqu.I(colEventID).Eq(eventID),
		goqu.I(colInitiatorFK).Eq(initiatorID),
	))
	if err != nil {
		return ewm.Event{}, err
	}

	event, found, err := s.queryOneEvent(ctx, sqlQuery)
	if err != nil {
		return ewm.Event{}, err
	}

	if !found {
		return ewm.Event{}, ewm.NotFoundError("event with id %d for initiator %d", eventID, initiatorID)
	}

	return event, nil
}

// GetPublishedByID loads one event only if it is in state PUBLISHED.
func (s *EventStore) GetPublishedByID(ctx context.Context, eventID int64) (ewm.Event, error) {
	sqlQuery, err := s.buildGetQuery(goqu.And(
		goqu.I(colEventID).Eq(eventID),
		goqu.I(colState).Eq(string(ewm.StatePublished)),
	))
	if err != nil {
		return ewm.Event{}, err
	}

	event, found, err := s.queryOneEvent(ctx, sqlQuery)
	if err != nil {
		return ewm.Event{}, err
	}

	if !found {
		return ewm.Event{}, ewm.NotFoundError("published event with id %d", eventID)
	}

	return event, nil
}

// ListByInitiator returns the initiator's events ordered by id, paginated
// at the data-access level.
func (s *EventStore) ListByInitiator(ctx context.Context, initiatorID int64, page ewm.Page) ([]ewm.Event, error) {
	sqlQuery, err := s.buildInitiatorListQuery(initiatorID, page)
	if err != nil {
		return nil, err
	}

	return s.queryEvents(ctx, sqlQuery)
}

// ListAdmin returns events matching a normalized admin filter, ordered by
// id, paginated at the data-access level.
func (s *EventStore) ListAdmin(ctx context.Context, filter ewm.AdminEventFilter, page ewm.Page) ([]ewm.Event, error) {
	sqlQuery, err := s.buildAdminListQuery(filter, page)
	if err != nil {
		return nil, err
	}

	return s.queryEvents(ctx, sqlQuery)
}

// ListPublic returns every PUBLISHED event matching a normalized public
// filter, ordered by id. Pagination happens later, in memory, after the
// caller's availability/view/sort narrowing.
func (s *EventStore) ListPublic(ctx context.Context, filter ewm.PublicEventFilter) ([]ewm.Event, error) {
	sqlQuery, err := s.buildPublicListQuery(filter)
	if err != nil {
		return nil, err
	}

	return s.queryEvents(ctx, sqlQuery)
}

// Save upserts the event and returns it with its id assigned.
func (s *EventStore) Save(ctx context.Context, event ewm.Event) (ewm.Event, error) {
	if event.ID == 0 {
		return s.insert(ctx, event)
	}

	return s.update(ctx, event)
}

func (s *EventStore) insert(ctx context.Context, event ewm.Event) (ewm.Event, error) {
	sqlQuery, err := s.buildInsertQuery(event)
	if err != nil {
		return ewm.Event{}, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionInsertEvent)
	if err != nil {
		return ewm.Event{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return ewm.Event{}, errors.Join(ErrExecFailed, errors.New("insert returned no id"))
	}

	if scanErr := rows.Scan(&event.ID); scanErr != nil {
		return ewm.Event{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	return event, nil
}

func (s *EventStore) update(ctx context.Context, event ewm.Event) (ewm.Event, error) {
	sqlQuery, err := s.buildUpdateQuery(event)
	if err != nil {
		return ewm.Event{}, err
	}

	result, err := s.executeStatement(ctx, sqlQuery, logActionUpdateEvent)
	if err != nil {
		return ewm.Event{}, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ewm.Event{}, errors.Join(ErrExecFailed, err)
	}

	if rowsAffected == 0 {
		return ewm.Event{}, ewm.NotFoundError("event with id %d", event.ID)
	}

	return event, nil
}

/***** query building *****/

// baseSelect is the joined select every event read goes through.
func (s *EventStore) baseSelect() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T(tableEvents).As("e")).
		Join(goqu.T(tableCategories).As("c"), goqu.On(goqu.I(colCategoryFK).Eq(goqu.I(colCategoryID)))).
		Join(goqu.T(tableUsers).As("u"), goqu.On(goqu.I(colInitiatorFK).Eq(goqu.I(colInitiatorID)))).
		Select(
			goqu.I(colEventID), goqu.I(colTitle), goqu.I(colAnnotation), goqu.I(colDescription),
			goqu.I(colEventDate), goqu.I(colPublishedOn), goqu.I(colState),
			goqu.I(colParticipantLimit), goqu.I(colPaid), goqu.I(colRequestModeration),
			goqu.I(colLat), goqu.I(colLon),
			goqu.I(colCategoryID), goqu.I(colCategoryName),
			goqu.I(colInitiatorID), goqu.I(colInitiatorName), goqu.I(colInitiatorEmail),
		).
		Order(goqu.I(colEventID).Asc())
}

func (s *EventStore) buildGetQuery(where goqu.Expression) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := s.baseSelect().Where(where).ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *EventStore) buildInitiatorListQuery(initiatorID int64, page ewm.Page) (sqlQueryString, error) {
	stmt := s.baseSelect().
		Where(goqu.I(colInitiatorFK).Eq(initiatorID)).
		Offset(uint(page.Offset)).
		Limit(uint(page.Limit))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildAdminListQuery renders the admin filter. The four admin query shapes
// differ only in which of the optional predicates get appended, so
// equivalent filter sets render to the same predicate set.
func (s *EventStore) buildAdminListQuery(filter ewm.AdminEventFilter, page ewm.Page) (sqlQueryString, error) {
	exprs := []goqu.Expression{
		goqu.I(colState).In(stateStrings(filter.States)),
		goqu.I(colEventDate).Gt(filter.RangeStart),
		goqu.I(colEventDate).Lt(filter.RangeEnd),
	}

	if len(filter.UserIDs) > 0 {
		exprs = append(exprs, goqu.I(colInitiatorFK).In(filter.UserIDs))
	}

	if len(filter.CategoryIDs) > 0 {
		exprs = append(exprs, goqu.I(colCategoryFK).In(filter.CategoryIDs))
	}

	stmt := s.baseSelect().
		Where(goqu.And(exprs...)).
		Offset(uint(page.Offset)).
		Limit(uint(page.Limit))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildPublicListQuery renders the public filter: always pinned to
// PUBLISHED, text matched case-insensitively against annotation and
// description, paid as a tri-state. No LIMIT/OFFSET here.
func (s *EventStore) buildPublicListQuery(filter ewm.PublicEventFilter) (sqlQueryString, error) {
	exprs := []goqu.Expression{
		goqu.I(colState).Eq(string(ewm.StatePublished)),
		goqu.I(colEventDate).Gt(filter.RangeStart),
		goqu.I(colEventDate).Lt(filter.RangeEnd),
	}

	if filter.Text != "" {
		pattern := "%" + filter.Text + "%"
		exprs = append(exprs, goqu.Or(
			goqu.I(colAnnotation).ILike(pattern),
			goqu.I(colDescription).ILike(pattern),
		))
	}

	if len(filter.CategoryIDs) > 0 {
		exprs = append(exprs, goqu.I(colCategoryFK).In(filter.CategoryIDs))
	}

	if filter.Paid != nil {
		exprs = append(exprs, goqu.I(colPaid).Eq(*filter.Paid))
	}

	sqlQuery, _, toSQLErr := s.baseSelect().Where(goqu.And(exprs...)).ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *EventStore) buildInsertQuery(event ewm.Event) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Insert(tableEvents).
		Rows(eventRecord(event)).
		Returning(goqu.C("id"))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *EventStore) buildUpdateQuery(event ewm.Event) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Update(tableEvents).
		Set(eventRecord(event)).
		Where(goqu.C("id").Eq(event.ID))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// eventRecord maps the persisted event fields to their columns. Derived
// fields (confirmed requests, views) are intentionally absent.
func eventRecord(event ewm.Event) goqu.Record {
	var publishedOn any
	if event.PublishedOn != nil {
		publishedOn = *event.PublishedOn
	}

	return goqu.Record{
		"title":              event.Title,
		"annotation":         event.Annotation,
		"description":        event.Description,
		"event_date":         event.EventDate,
		"published_on":       publishedOn,
		"state":              string(event.State),
		"participant_limit":  event.ParticipantLimit,
		"paid":               event.Paid,
		"request_moderation": event.RequestModeration,
		"lat":                event.Location.Lat,
		"lon":                event.Location.Lon,
		"category_id":        event.Category.ID,
		"initiator_id":       event.Initiator.ID,
	}
}

func stateStrings(states []ewm.EventState) []string {
	strs := make([]string, 0, len(states))
	for _, state := range states {
		strs = append(strs, string(state))
	}

	return strs
}

/***** row processing *****/

func (s *EventStore) queryOneEvent(ctx context.Context, sqlQuery sqlQueryString) (ewm.Event, bool, error) {
	rows, err := s.executeQuery(ctx, sqlQuery, logActionGetEvent)
	if err != nil {
		return ewm.Event{}, false, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return ewm.Event{}, false, nil
	}

	event, err := scanEvent(rows)
	if err != nil {
		return ewm.Event{}, false, err
	}

	return event, true, nil
}

func (s *EventStore) queryEvents(ctx context.Context, sqlQuery sqlQueryString) ([]ewm.Event, error) {
	rows, err := s.executeQuery(ctx, sqlQuery, logActionListEvents)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	events := make([]ewm.Event, 0)

	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		events = append(events, event)
	}

	return events, nil
}

func scanEvent(rows interface{ Scan(dest ...any) error }) (ewm.Event, error) {
	var row eventRow

	scanErr := rows.Scan(
		&row.id, &row.title, &row.annotation, &row.description,
		&row.eventDate, &row.publishedOn, &row.state,
		&row.participantLimit, &row.paid, &row.requestModeration,
		&row.lat, &row.lon,
		&row.categoryID, &row.categoryName,
		&row.initiatorID, &row.initiatorName, &row.initiatorEmail,
	)
	if scanErr != nil {
		return ewm.Event{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	event := ewm.Event{
		ID:                row.id,
		Title:             row.title,
		Annotation:        row.annotation,
		Description:       row.description,
		EventDate:         row.eventDate,
		State:             ewm.EventState(row.state),
		ParticipantLimit:  row.participantLimit,
		Paid:              row.paid,
		RequestModeration: row.requestModeration,
		Location:          ewm.Location{Lat: row.lat, Lon: row.lon},
		Category:          ewm.Category{ID: row.categoryID, Name: row.categoryName},
		Initiator:         ewm.User{ID: row.initiatorID, Name: row.initiatorName, Email: row.initiatorEmail},
	}

	if row.publishedOn.Valid {
		publishedOn := row.publishedOn.Time
		event.PublishedOn = &publishedOn
	}

	return event, nil
}
