package dates

import (
	"fmt"
	"strings"
	"time"
)

// DueDateLayout is the wire format for loan due dates.
const DueDateLayout = "2006-01-02"

// LoadLocation resolves the configured timezone, falling back to UTC when the
// zone database cannot resolve it. Day boundaries (overdue, dashboard "today")
// depend on this location, so the fallback keeps the API serving rather than
// failing startup on a missing tzdata.
func LoadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today returns midnight of the current day in the provided location.
func Today(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ParseDueDate parses a YYYY-MM-DD due date string.
func ParseDueDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("due date is required")
	}
	t, err := time.Parse(DueDateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (expected YYYY-MM-DD)", value)
	}
	return t, nil
}

// FormatDueDate renders a due date in the wire format.
func FormatDueDate(t time.Time) string {
	return t.Format(DueDateLayout)
}

// BeforeDay reports whether the date-only part of due falls strictly before
// the date-only part of today. Timestamps on either side are ignored.
func BeforeDay(due, today time.Time) bool {
	dy, dm, dd := due.Date()
	ty, tm, td := today.Date()
	if dy != ty {
		return dy < ty
	}
	if dm != tm {
		return dm < tm
	}
	return dd < td
}
