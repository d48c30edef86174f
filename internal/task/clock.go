package task

import "time"

// Clock supplies the current time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// ModifiedOrNow returns ts, or clock.Now() when ts is missing.
//
// This is the single place where a missing modification time is defaulted, so
// an unstamped record always reads as newer than a stamped older one.
func ModifiedOrNow(ts *time.Time, clock Clock) time.Time {
	if ts != nil {
		return *ts
	}

	return clock.Now()
}
