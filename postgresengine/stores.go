package postgresengine

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/explore-with-me/ewm-go/postgresengine/adapters"
)

// Stores bundles one instance of every PostgreSQL store over a shared
// database connection.
type Stores struct {
	Events     *EventStore
	Users      *UserStore
	Categories *CategoryStore
	Requests   *RequestStore
	Comments   *CommentStore
	Hits       *HitStore
}

// NewStoresFromPGXPool creates the store bundle using a pgx pool with
// optional configuration.
func NewStoresFromPGXPool(pool *pgxpool.Pool, options ...Option) (Stores, error) {
	if pool == nil {
		return Stores{}, ErrNilDatabaseConnection
	}

	return buildStores(newEngine(adapters.NewPGXAdapter(pool), options...)), nil
}

// NewStoresFromSQLDB creates the store bundle using a sql.DB with optional
// configuration.
func NewStoresFromSQLDB(db *sql.DB, options ...Option) (Stores, error) {
	if db == nil {
		return Stores{}, ErrNilDatabaseConnection
	}

	return buildStores(newEngine(adapters.NewSQLAdapter(db), options...)), nil
}

// NewStoresFromSQLX creates the store bundle using a sqlx.DB with optional
// configuration.
func NewStoresFromSQLX(db *sqlx.DB, options ...Option) (Stores, error) {
	if db == nil {
		return Stores{}, ErrNilDatabaseConnection
	}

	return buildStores(newEngine(adapters.NewSQLXAdapter(db), options...)), nil
}

func buildStores(e engine) Stores {
	return Stores{
		Events:     &EventStore{engine: e},
		Users:      &UserStore{engine: e},
		Categories: &CategoryStore{engine: e},
		Requests:   &RequestStore{engine: e},
		Comments:   &CommentStore{engine: e},
		Hits:       &HitStore{engine: e},
	}
}
