package ewm

import (
	"time"
)

// TimeLayout is the fixed textual pattern all timestamps are exchanged in.
// Second precision, no timezone; conversions must be deterministic and
// identical on every component sharing this codec.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in the fixed pattern.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime parses a timestamp in the fixed pattern,
// failing with ErrInvalidArgument on any other shape.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, InvalidArgumentError("cannot parse timestamp %q", s)
	}

	return t, nil
}
