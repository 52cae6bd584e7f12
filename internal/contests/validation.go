package contests

import (
	"errors"
	"time"
)

// ErrInvalidDateRange is returned when a contest window is malformed:
// the end is not after the start, or (on creation only) the end is already
// in the past.
var ErrInvalidDateRange = errors.New("invalid contest date range")

// validateDateRange checks a contest time window. creating additionally
// requires the end to be in the future relative to now; updates of an
// already-ended contest stay legal so admins can fix typos after the fact.
func validateDateRange(startsAt, endsAt, now time.Time, creating bool) error {
	if !endsAt.After(startsAt) {
		return ErrInvalidDateRange
	}
	if creating && !endsAt.After(now) {
		return ErrInvalidDateRange
	}
	return nil
}
