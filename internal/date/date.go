// Package date parses due dates typed on the command line and formats the
// human-readable timestamps stored in task history.
package date

import (
	"fmt"
	"strings"
	"time"
)

const (
	dayFormat    = "2006-01-02"
	minuteFormat = "2006-01-02T15:04"
	spaceFormat  = "2006-01-02 15:04"

	// humanFormat mirrors the en-US locale string the web client writes
	// into history entries, e.g. "1/2/2025, 3:04:05 PM".
	humanFormat = "1/2/2006, 3:04:05 PM"
)

// Parse accepts YYYY-MM-DD, YYYY-MM-DDTHH:MM, "YYYY-MM-DD HH:MM" or RFC 3339.
// Inputs without a zone are interpreted in loc. The result is in UTC.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{minuteFormat, spaceFormat, dayFormat} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339", s)
}

// Human formats t in loc the way history entries are written.
func Human(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(humanFormat)
}

// Short formats a due date for tables: the day only when the time is
// midnight in loc, otherwise day and minute.
func Short(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	if local.Hour() == 0 && local.Minute() == 0 {
		return local.Format(dayFormat)
	}
	return local.Format(spaceFormat)
}
