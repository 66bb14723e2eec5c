package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/explore-with-me/ewm-go/ewm"
)

const logActionGetCategory = "get category"

// CategoryStore implements ewm.CategoryStore on PostgreSQL.
type CategoryStore struct {
	engine
}

// GetByID loads one category.
func (s *CategoryStore) GetByID(ctx context.Context, categoryID int64) (ewm.Category, error) {
	sqlQuery, err := s.buildGetQuery(categoryID)
	if err != nil {
		return ewm.Category{}, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionGetCategory)
	if err != nil {
		return ewm.Category{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return ewm.Category{}, ewm.NotFoundError("category with id %d", categoryID)
	}

	var category ewm.Category
	if scanErr := rows.Scan(&category.ID, &category.Name); scanErr != nil {
		return ewm.Category{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	return category, nil
}

func (s *CategoryStore) buildGetQuery(categoryID int64) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(tableCategories).
		Select(goqu.C("id"), goqu.C("name")).
		Where(goqu.C("id").Eq(categoryID))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
