// Package postgresengine implements every store contract of the event
// platform on PostgreSQL: events, users, categories, participation-request
// counts, comments and visit hits.
//
// All SQL is built with goqu and executed through the adapters subpackage,
// so the same stores work over a pgxpool.Pool, a sql.DB or a sqlx.DB. Query
// shapes are composed conditionally from one predicate set per listing,
// which keeps the admin and public listing shapes behaviorally equivalent
// for equivalent filter sets.
package postgresengine
