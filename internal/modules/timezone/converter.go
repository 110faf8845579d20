// Package timezone provides UTC/local conversions for market timezones.
//
// All functions are pure and safe for concurrent use; DST transitions are
// handled by the IANA timezone database via time.LoadLocation.
package timezone

import (
	"fmt"
	"time"
)

// ErrUnknownTimezone is returned when a timezone identifier is not a
// recognized IANA name.
var ErrUnknownTimezone = fmt.Errorf("unknown timezone")

// UTCToLocal converts an instant to wall-clock time in the named timezone.
// The instant is normalized to UTC first, so callers may pass times carrying
// any location.
func UTCToLocal(t time.Time, tzID string) (time.Time, error) {
	loc, err := load(tzID)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().In(loc), nil
}

// LocalToUTC interprets the wall-clock fields of local as a time in the named
// timezone and returns the corresponding UTC instant. The location attached
// to the input is ignored.
func LocalToUTC(local time.Time, tzID string) (time.Time, error) {
	loc, err := load(tzID)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(
		local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(),
		loc,
	)
	return t.UTC(), nil
}

// Offset returns the UTC offset of the named timezone at the given instant.
// The offset is signed: America/New_York yields -5h in winter, -4h in summer.
func Offset(tzID string, at time.Time) (time.Duration, error) {
	loc, err := load(tzID)
	if err != nil {
		return 0, err
	}
	_, seconds := at.In(loc).Zone()
	return time.Duration(seconds) * time.Second, nil
}

func load(tzID string) (*time.Location, error) {
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, tzID)
	}
	return loc, nil
}
