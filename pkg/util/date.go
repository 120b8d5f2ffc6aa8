package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, date-only, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// DayStart truncates to UTC midnight.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// YoYWindows computes the current analysis window [curStart, curEnd) ending at
// the day boundary of asOf, plus the same window shifted back one calendar year.
func YoYWindows(asOf time.Time, days int) (curStart, curEnd, priorStart, priorEnd time.Time) {
	curEnd = DayStart(asOf)
	curStart = curEnd.AddDate(0, 0, -days)
	priorStart = curStart.AddDate(-1, 0, 0)
	priorEnd = curEnd.AddDate(-1, 0, 0)
	return curStart, curEnd, priorStart, priorEnd
}

// WeekStart truncates to the Monday of t's ISO week, UTC midnight.
func WeekStart(t time.Time) time.Time {
	t = DayStart(t)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, 1-wd)
}

// PeriodLabel renders a window as "YYYY-MM-DD to YYYY-MM-DD".
func PeriodLabel(start, end time.Time) string {
	return start.UTC().Format("2006-01-02") + " to " + end.UTC().Format("2006-01-02")
}
