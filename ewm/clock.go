package ewm

import (
	"time"
)

// Clock supplies the current time to every lead-time and window check.
// Injecting it keeps "now" fixable in tests; production wiring uses
// SystemClock.
type Clock func() time.Time

// SystemClock returns the wall-clock time truncated to second precision,
// matching the precision of the timestamp codec.
func SystemClock() time.Time {
	return time.Now().Truncate(time.Second)
}
