package meds

import (
	"fmt"
	"time"
)

const clockLayout = "3:04 PM"

// ParseClockTime parses a human-readable schedule time like "8:00 AM" into
// hour and minute.
func ParseClockTime(s string) (hour, minute int, err error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid schedule time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// FormatClockTime renders hour/minute in the canonical "8:00 AM" form.
func FormatClockTime(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format(clockLayout)
}

// DoseAt returns the occurrence of the given clock time on the same
// calendar day as ref.
func DoseAt(ref time.Time, clockTime string) (time.Time, error) {
	h, m, err := ParseClockTime(clockTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), h, m, 0, 0, ref.Location()), nil
}

// NextDailyDose advances a dose timestamp to the same hour/minute on the
// following calendar day. Every medication is treated as daily cadence
// regardless of its declared frequency.
func NextDailyDose(current time.Time, ref time.Time) time.Time {
	next := ref.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(),
		current.Hour(), current.Minute(), 0, 0, ref.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayMarker renders a timestamp at calendar-day granularity, used for the
// daily-reset marker.
func DayMarker(t time.Time) string {
	return t.Format("2006-01-02")
}

// TimeUntil renders the remaining time before a dose as whole hours when at
// least one full hour remains, otherwise whole minutes. Values are floored,
// not rounded. Past timestamps yield negative values.
func TimeUntil(dose, now time.Time) string {
	diff := dose.Sub(now)
	hours := int(diff / time.Hour)
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", int(diff/time.Minute))
}
