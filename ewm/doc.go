// Package ewm holds the domain model of the event platform: events with
// their lifecycle state, participation requests, comments, the collaborator
// store contracts, the shared error taxonomy and the fixed timestamp codec
// used on every external boundary.
//
// The package is deliberately dependency-free. Everything that talks to a
// database or a remote service lives behind the interfaces defined here and
// is implemented in postgresengine and stats/statsclient.
package ewm
