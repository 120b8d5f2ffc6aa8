package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2025-03-01")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestYoYWindows(t *testing.T) {
	asOf := time.Date(2025, 3, 15, 13, 45, 0, 0, time.UTC)
	curStart, curEnd, priorStart, priorEnd := YoYWindows(asOf, 30)
	if !curEnd.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected curEnd %v", curEnd)
	}
	if !curStart.Equal(time.Date(2025, 2, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected curStart %v", curStart)
	}
	if !priorStart.Equal(curStart.AddDate(-1, 0, 0)) || !priorEnd.Equal(curEnd.AddDate(-1, 0, 0)) {
		t.Fatalf("prior window not shifted one year: %v %v", priorStart, priorEnd)
	}
}

func TestWeekStart(t *testing.T) {
	// Wednesday -> preceding Monday
	got := WeekStart(time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC))
	if !got.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week start %v", got)
	}
	// Sunday belongs to the week starting the prior Monday
	got = WeekStart(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC))
	if !got.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week start for sunday %v", got)
	}
}

func TestPeriodLabel(t *testing.T) {
	got := PeriodLabel(time.Date(2025, 2, 13, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	if got != "2025-02-13 to 2025-03-15" {
		t.Fatalf("unexpected label %q", got)
	}
}
