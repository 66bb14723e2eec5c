// Package testutil provides the shared test fixtures of this module:
// a fixable clock, in-memory implementations of every store contract, and
// a canned views provider. The in-memory stores mirror the PostgreSQL
// stores' observable behavior so the domain packages can be tested without
// a database.
package testutil

import (
	"time"

	"github.com/explore-with-me/ewm-go/ewm"
)

// FixedClock returns a clock frozen at the given instant.
func FixedClock(at time.Time) ewm.Clock {
	return func() time.Time {
		return at
	}
}

// MustParseTime parses a timestamp in the fixed pattern and panics on
// malformed input. For test fixtures only.
func MustParseTime(s string) time.Time {
	t, err := ewm.ParseTime(s)
	if err != nil {
		panic(err)
	}

	return t
}
