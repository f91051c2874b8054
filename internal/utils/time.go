package utils

import (
	"time"
)

var civilLocation *time.Location

func init() {
	loc, err := time.LoadLocation(CivilDateTimeZone)
	if err != nil {
		loc = time.UTC
	}
	civilLocation = loc
}

// FormatTimeISO renders a UTC instant in RFC3339. All timestamps are
// stored and compared in UTC.
func FormatTimeISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func ParseTimeISO(timeStr string) (time.Time, error) {
	return time.Parse(time.RFC3339, timeStr)
}

// CivilDate converts an instant to the fixed civil-date boundary used
// for blackout dates and reporting windows (YYYY-MM-DD).
func CivilDate(t time.Time) string {
	return t.In(civilLocation).Format("2006-01-02")
}

// SameCivilDate reports whether two instants fall on the same civil day.
func SameCivilDate(a, b time.Time) bool {
	return CivilDate(a) == CivilDate(b)
}

// StartOfCivilDay returns the UTC instant at which the civil day
// containing t begins.
func StartOfCivilDay(t time.Time) time.Time {
	local := t.In(civilLocation)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, civilLocation)
	return start.UTC()
}
