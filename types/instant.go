package types

import "time"

// WakeInstant is a point in time as seen by one wake cycle. Calendar fields
// are always derived from Unix through Loc, which stays fixed for the
// process lifetime.
type WakeInstant struct {
	Unix int64         // epoch seconds
	Frac time.Duration // sub-second part, [0, 1s)
	Loc  *time.Location
}

// InstantOf splits t into a WakeInstant in loc. A nil loc means UTC.
func InstantOf(t time.Time, loc *time.Location) WakeInstant {
	if loc == nil {
		loc = time.UTC
	}
	return WakeInstant{
		Unix: t.Unix(),
		Frac: time.Duration(t.Nanosecond()),
		Loc:  loc,
	}
}

// Time rebuilds the instant as a time.Time in its location.
func (w WakeInstant) Time() time.Time {
	loc := w.Loc
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(w.Unix, int64(w.Frac)).In(loc)
}

// Clock returns hour, minute and second of the instant in its location.
func (w WakeInstant) Clock() (hour, min, sec int) {
	return w.Time().Clock()
}

// String formats the instant in its location (RFC 3339).
func (w WakeInstant) String() string { return w.Time().Format(time.RFC3339) }
