package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/explore-with-me/ewm-go/ewm"
)

const (
	logActionConfirmedCounts = "count confirmed requests"

	aliasConfirmed = "confirmed"
)

// RequestStore implements ewm.RequestStore on PostgreSQL. It only answers
// the confirmed-count aggregate the availability filter needs; the
// confirmation workflow itself runs outside this module.
type RequestStore struct {
	engine
}

// ConfirmedCounts returns the number of CONFIRMED requests per event.
// Events without any confirmed request are absent from the map.
func (s *RequestStore) ConfirmedCounts(ctx context.Context, eventIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	sqlQuery, err := s.buildCountsQuery(eventIDs)
	if err != nil {
		return nil, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionConfirmedCounts)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	for rows.Next() {
		var eventID, confirmed int64
		if scanErr := rows.Scan(&eventID, &confirmed); scanErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		counts[eventID] = confirmed
	}

	return counts, nil
}

func (s *RequestStore) buildCountsQuery(eventIDs []int64) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(tableRequests).
		Select(goqu.C("event_id"), goqu.COUNT(goqu.Star()).As(aliasConfirmed)).
		Where(goqu.And(
			goqu.C("status").Eq(string(ewm.RequestConfirmed)),
			goqu.C("event_id").In(eventIDs),
		)).
		GroupBy(goqu.C("event_id"))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
