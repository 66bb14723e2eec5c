package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/explore-with-me/ewm-go/ewm"
)

const logActionGetUser = "get user"

// UserStore implements ewm.UserStore on PostgreSQL.
type UserStore struct {
	engine
}

// GetByID loads one user.
func (s *UserStore) GetByID(ctx context.Context, userID int64) (ewm.User, error) {
	sqlQuery, err := s.buildGetQuery(userID)
	if err != nil {
		return ewm.User{}, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionGetUser)
	if err != nil {
		return ewm.User{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return ewm.User{}, ewm.NotFoundError("user with id %d", userID)
	}

	var user ewm.User
	if scanErr := rows.Scan(&user.ID, &user.Name, &user.Email); scanErr != nil {
		return ewm.User{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	return user, nil
}

func (s *UserStore) buildGetQuery(userID int64) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(tableUsers).
		Select(goqu.C("id"), goqu.C("name"), goqu.C("email")).
		Where(goqu.C("id").Eq(userID))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
