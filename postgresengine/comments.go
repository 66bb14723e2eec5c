package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/explore-with-me/ewm-go/ewm"
)

const (
	logActionGetComment    = "get comment"
	logActionListComments  = "list comments"
	logActionInsertComment = "insert comment"
	logActionUpdateComment = "update comment"
	logActionDeleteComment = "delete comment"
)

// CommentStore implements ewm.CommentStore on PostgreSQL.
type CommentStore struct {
	engine
}

// GetByID loads one comment.
func (s *CommentStore) GetByID(ctx context.Context, commentID int64) (ewm.Comment, error) {
	sqlQuery, err := s.buildGetQuery(commentID)
	if err != nil {
		return ewm.Comment{}, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionGetComment)
	if err != nil {
		return ewm.Comment{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return ewm.Comment{}, ewm.NotFoundError("comment with id %d", commentID)
	}

	return scanComment(rows)
}

// Save upserts the comment and returns it with its id assigned.
func (s *CommentStore) Save(ctx context.Context, comment ewm.Comment) (ewm.Comment, error) {
	if comment.ID == 0 {
		return s.insert(ctx, comment)
	}

	return s.update(ctx, comment)
}

// Delete removes the comment.
func (s *CommentStore) Delete(ctx context.Context, commentID int64) error {
	sqlQuery, err := s.buildDeleteQuery(commentID)
	if err != nil {
		return err
	}

	result, err := s.executeStatement(ctx, sqlQuery, logActionDeleteComment)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(ErrExecFailed, err)
	}

	if rowsAffected == 0 {
		return ewm.NotFoundError("comment with id %d", commentID)
	}

	return nil
}

// ListByEvent returns the event's comments in the requested order,
// paginated at the data-access level.
func (s *CommentStore) ListByEvent(
	ctx context.Context,
	eventID int64,
	sort ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	return s.list(ctx, goqu.C("event_id").Eq(eventID), sort, page)
}

// ListByAuthor returns the author's comments in the requested order,
// paginated at the data-access level.
func (s *CommentStore) ListByAuthor(
	ctx context.Context,
	authorID int64,
	sort ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	return s.list(ctx, goqu.C("author_id").Eq(authorID), sort, page)
}

func (s *CommentStore) list(
	ctx context.Context,
	where goqu.Expression,
	sort ewm.CommentSort,
	page ewm.Page,
) ([]ewm.Comment, error) {

	order, err := commentOrder(sort)
	if err != nil {
		return nil, err
	}

	sqlQuery, err := s.buildListQuery(where, order, page)
	if err != nil {
		return nil, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionListComments)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	comments := make([]ewm.Comment, 0)

	for rows.Next() {
		comment, scanErr := scanComment(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		comments = append(comments, comment)
	}

	return comments, nil
}

// commentOrder maps a sort mode to its ORDER BY expression.
func commentOrder(sort ewm.CommentSort) (exp.OrderedExpression, error) {
	switch sort {
	case ewm.CommentsByCreatedAsc:
		return goqu.C("created").Asc(), nil

	case ewm.CommentsByCreatedDesc:
		return goqu.C("created").Desc(), nil

	case ewm.CommentsByEventAsc:
		return goqu.C("event_id").Asc(), nil

	case ewm.CommentsByEventDesc:
		return goqu.C("event_id").Desc(), nil

	default:
		return nil, ewm.InvalidArgumentError("unsupported comment sort mode %q", string(sort))
	}
}

func (s *CommentStore) insert(ctx context.Context, comment ewm.Comment) (ewm.Comment, error) {
	sqlQuery, err := s.buildInsertQuery(comment)
	if err != nil {
		return ewm.Comment{}, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionInsertComment)
	if err != nil {
		return ewm.Comment{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return ewm.Comment{}, errors.Join(ErrExecFailed, errors.New("insert returned no id"))
	}

	if scanErr := rows.Scan(&comment.ID); scanErr != nil {
		return ewm.Comment{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	return comment, nil
}

func (s *CommentStore) update(ctx context.Context, comment ewm.Comment) (ewm.Comment, error) {
	sqlQuery, err := s.buildUpdateQuery(comment)
	if err != nil {
		return ewm.Comment{}, err
	}

	result, err := s.executeStatement(ctx, sqlQuery, logActionUpdateComment)
	if err != nil {
		return ewm.Comment{}, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ewm.Comment{}, errors.Join(ErrExecFailed, err)
	}

	if rowsAffected == 0 {
		return ewm.Comment{}, ewm.NotFoundError("comment with id %d", comment.ID)
	}

	return comment, nil
}

/***** query building *****/

func commentColumns() []any {
	return []any{goqu.C("id"), goqu.C("text"), goqu.C("event_id"), goqu.C("author_id"), goqu.C("created")}
}

func (s *CommentStore) buildGetQuery(commentID int64) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(tableComments).
		Select(commentColumns()...).
		Where(goqu.C("id").Eq(commentID))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *CommentStore) buildListQuery(
	where goqu.Expression,
	order exp.OrderedExpression,
	page ewm.Page,
) (sqlQueryString, error) {

	stmt := goqu.Dialect(dialectPostgres).
		From(tableComments).
		Select(commentColumns()...).
		Where(where).
		Order(order).
		Offset(uint(page.Offset)).
		Limit(uint(page.Limit))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *CommentStore) buildInsertQuery(comment ewm.Comment) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Insert(tableComments).
		Rows(goqu.Record{
			"text":      comment.Text,
			"event_id":  comment.EventID,
			"author_id": comment.AuthorID,
			"created":   comment.Created,
		}).
		Returning(goqu.C("id"))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *CommentStore) buildUpdateQuery(comment ewm.Comment) (sqlQueryString, error) {
	// Only the text is mutable; created, event and author bindings never change.
	stmt := goqu.Dialect(dialectPostgres).
		Update(tableComments).
		Set(goqu.Record{"text": comment.Text}).
		Where(goqu.C("id").Eq(comment.ID))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *CommentStore) buildDeleteQuery(commentID int64) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Delete(tableComments).
		Where(goqu.C("id").Eq(commentID))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func scanComment(rows interface{ Scan(dest ...any) error }) (ewm.Comment, error) {
	var comment ewm.Comment

	scanErr := rows.Scan(&comment.ID, &comment.Text, &comment.EventID, &comment.AuthorID, &comment.Created)
	if scanErr != nil {
		return ewm.Comment{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	return comment, nil
}
