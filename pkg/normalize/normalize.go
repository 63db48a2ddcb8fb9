// Package normalize provides the canonical text forms used to match
// teacher names and weekday labels across the flat input files.
package normalize

import (
	"strings"
	"time"
)

var dayByPrefix = map[string]string{
	"mon": "monday",
	"tue": "tuesday",
	"wed": "wednesday",
	"thu": "thursday",
	"fri": "friday",
	"sat": "saturday",
	"sun": "sunday",
}

// Name canonicalises a teacher name: trimmed, lower-cased, inner whitespace
// runs collapsed to single spaces. Applying it twice yields the same result.
func Name(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// Day canonicalises a weekday label by its first three characters. Labels
// that match no known weekday pass through trimmed and lower-cased so they
// can still be compared verbatim.
func Day(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if len(d) >= 3 {
		if full, ok := dayByPrefix[d[:3]]; ok {
			return full
		}
	}
	return d
}

// DayFromDate returns the canonical weekday name for a calendar date.
func DayFromDate(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}
