package postgresengine

import (
	"context"
	"errors"
	"math"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import

	"github.com/explore-with-me/ewm-go/ewm"
	"github.com/explore-with-me/ewm-go/postgresengine/adapters"
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrQueryingFailed = errors.New("database query execution failed")
var ErrExecFailed = errors.New("database execution failed")
var ErrScanningDBRowFailed = errors.New("scanning database row failed")

const (
	tableEvents     = "events"
	tableUsers      = "users"
	tableCategories = "categories"
	tableRequests   = "requests"
	tableComments   = "comments"
	tableHits       = "hits"

	dialectPostgres = "postgres"

	logMsgSQLExecuted     = "executed sql for: "
	logMsgCloseRowsFailed = "failed to close database rows"
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrDurationMS     = "duration_ms"
)

type sqlQueryString = string

// engine is the shared plumbing of every store in this package: one DB
// adapter and an optional logger for SQL timing at debug level.
type engine struct {
	db     adapters.DBAdapter
	logger ewm.Logger
}

// Option defines a functional option shared by all store constructors.
type Option func(*engine)

// WithLogger sets the logger. SQL queries with execution timing are logged
// at debug level; non-critical cleanup failures at warn level.
func WithLogger(logger ewm.Logger) Option {
	return func(e *engine) {
		e.logger = logger
	}
}

func newEngine(db adapters.DBAdapter, options ...Option) engine {
	e := engine{db: db}

	for _, option := range options {
		option(&e)
	}

	return e
}

// executeQuery executes the SQL query and logs it with timing.
func (e engine) executeQuery(ctx context.Context, sqlQuery sqlQueryString, action string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlQuery)
	e.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if queryErr != nil {
		return nil, errors.Join(ErrQueryingFailed, queryErr)
	}

	return rows, nil
}

// executeStatement executes the SQL statement and logs it with timing.
func (e engine) executeStatement(ctx context.Context, sqlQuery sqlQueryString, action string) (adapters.DBResult, error) {
	start := time.Now()
	result, execErr := e.db.Exec(ctx, sqlQuery)
	e.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		return nil, errors.Join(ErrExecFailed, execErr)
	}

	return result, nil
}

// closeRows safely closes database rows and logs any errors.
func (e engine) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil && e.logger != nil {
		e.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level
// if the logger is configured.
func (e engine) logQueryWithDuration(sqlQuery sqlQueryString, action string, duration time.Duration) {
	if e.logger != nil {
		e.logger.Debug(
			logMsgSQLExecuted+action,
			logAttrDurationMS, durationToMilliseconds(duration),
			logAttrQuery, sqlQuery)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds
// with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
