package scheduling

import (
	"fmt"
	"time"
)

// TimeInterval is a half-open [start, end) block of time on a single day.
// Immutable value type; the zero value is invalid.
type TimeInterval struct {
	Date  time.Time `db:"date" json:"date"`
	Start time.Time `db:"start_time" json:"start_time"`
	End   time.Time `db:"end_time" json:"end_time"`
}

// NewTimeInterval builds a validated interval, deriving the date from the
// start instant.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	i := TimeInterval{Start: start, End: end}
	i.normalize()
	if err := i.Validate(); err != nil {
		return TimeInterval{}, err
	}
	return i, nil
}

func (i *TimeInterval) normalize() {
	if i.Date.IsZero() && !i.Start.IsZero() {
		y, m, d := i.Start.UTC().Date()
		i.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// Validate checks the start-before-end invariant.
func (i TimeInterval) Validate() error {
	if i.Start.IsZero() || i.End.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if !i.Start.Before(i.End) {
		return fmt.Errorf("start_time must be before end_time")
	}
	return nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Symmetric; intervals that only touch at an endpoint do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Equal reports whether both intervals cover exactly the same time range.
func (i TimeInterval) Equal(other TimeInterval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}

// Day returns the interval's calendar day at midnight UTC.
func (i TimeInterval) Day() time.Time {
	if !i.Date.IsZero() {
		return i.Date
	}
	y, m, d := i.Start.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
