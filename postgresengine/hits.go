package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/explore-with-me/ewm-go/stats"
)

const (
	logActionInsertHit = "insert hit"
	logActionCountHits = "count hits"

	colHitTimestamp = "hit_timestamp"
	aliasHits       = "hits"
)

// HitStore implements stats.HitStore on PostgreSQL. Hit records are
// append-only; this store never updates or deletes them.
type HitStore struct {
	engine
}

// Append persists one immutable hit record.
func (s *HitStore) Append(ctx context.Context, hit stats.Hit) error {
	sqlQuery, err := s.buildInsertQuery(hit)
	if err != nil {
		return err
	}

	if _, err := s.executeStatement(ctx, sqlQuery, logActionInsertHit); err != nil {
		return err
	}

	return nil
}

// Counts returns per-URI hit counts for hits within [start, end], optionally
// restricted to a URI set and deduplicated by origin, ordered by count
// descending. URIs without any matching hit are omitted.
func (s *HitStore) Counts(
	ctx context.Context,
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) ([]stats.ViewStats, error) {

	sqlQuery, err := s.buildCountsQuery(start, end, uris, unique)
	if err != nil {
		return nil, err
	}

	rows, err := s.executeQuery(ctx, sqlQuery, logActionCountHits)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	viewStats := make([]stats.ViewStats, 0)

	for rows.Next() {
		var vs stats.ViewStats
		if scanErr := rows.Scan(&vs.URI, &vs.Hits); scanErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		viewStats = append(viewStats, vs)
	}

	return viewStats, nil
}

func (s *HitStore) buildInsertQuery(hit stats.Hit) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Insert(tableHits).
		Rows(goqu.Record{
			"id":            hit.ID.String(),
			"app":           hit.App,
			"uri":           hit.URI,
			"ip":            hit.Origin,
			colHitTimestamp: hit.Timestamp,
		})

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildCountsQuery renders the aggregate: COUNT(ip) or COUNT(DISTINCT ip)
// per URI over the range, the URI restriction appended only when a set was
// given.
func (s *HitStore) buildCountsQuery(
	start time.Time,
	end time.Time,
	uris []string,
	unique bool,
) (sqlQueryString, error) {

	countExpr := goqu.COUNT(goqu.C("ip"))
	if unique {
		countExpr = goqu.COUNT(goqu.DISTINCT("ip"))
	}

	exprs := []goqu.Expression{
		goqu.C(colHitTimestamp).Gte(start),
		goqu.C(colHitTimestamp).Lte(end),
	}

	if uris != nil {
		exprs = append(exprs, goqu.C("uri").In(uris))
	}

	stmt := goqu.Dialect(dialectPostgres).
		From(tableHits).
		Select(goqu.C("uri"), countExpr.As(aliasHits)).
		Where(goqu.And(exprs...)).
		GroupBy(goqu.C("uri")).
		Order(goqu.I(aliasHits).Desc())

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
