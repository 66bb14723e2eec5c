// Package adapters provides the database adapter layer for the PostgreSQL
// storage engine.
//
// It supports three PostgreSQL client libraries - pgxpool.Pool, sql.DB and
// sqlx.DB - behind one DBAdapter interface, so every store in postgresengine
// works with whichever connection type the application already holds.
package adapters
