package ctl

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// errUnknownTime is returned when a time argument matches no accepted layout.
var errUnknownTime = errors.New("unrecognized time, use +10m, 15:04, 2006-01-02 15:04 or RFC 3339")

// clockLayouts are wall-clock times of today, or tomorrow once passed.
//
//nolint:gochecknoglobals // Read-only layout table.
var clockLayouts = []string{"15:04", "15:04:05"}

// dateLayouts are absolute local times.
//
//nolint:gochecknoglobals // Read-only layout table.
var dateLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02 15:04:05"}

// ParseWhen converts a user supplied time into an absolute instant.
// Accepted forms are a relative duration ("+10m" or "10m"), a wall-clock
// time ("07:30", meaning the next occurrence), a local date and time, and
// RFC 3339.
func ParseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errUnknownTime
	}

	if d, err := time.ParseDuration(strings.TrimPrefix(s, "+")); err == nil {
		return now.Add(d), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	loc := now.Location()

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	for _, layout := range clockLayouts {
		clock, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}

		t := time.Date(now.Year(), now.Month(), now.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}

		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", errUnknownTime, s)
}
