package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2025, 1, 1, 9, 30, 0, 0, time.Local)
	cases := []string{
		"2025-01-01 09:30:00",
		"2025-01-01 09:30",
		"2025-01-01T09:30:00",
		" 2025-01-01T09:30 ",
	}
	for _, raw := range cases {
		got, err := ParseTimestamp(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q = %v, want %v", raw, got, want)
		}
	}

	day, err := ParseTimestamp("2025-01-01")
	if err != nil || !day.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("unexpected bare date parse: %v %v", day, err)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "tomorrow", "2025-13-01 10:00:00"} {
		if _, err := ParseTimestamp(raw); !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("parse %q: expected ErrInvalidTimestamp, got %v", raw, err)
		}
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("09:45")
	if err != nil || got != 9*time.Hour+45*time.Minute {
		t.Fatalf("unexpected clock: %v %v", got, err)
	}
	if _, err := ParseClock("25:00"); !errors.Is(err, ErrInvalidClock) {
		t.Fatalf("expected ErrInvalidClock, got %v", err)
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 2, 9, 17, 4, 5, 0, time.Local)
	if got := StartOfDay(in); !got.Equal(time.Date(2026, 2, 9, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("unexpected start of day: %v", got)
	}
	if FormatTimestamp(time.Time{}) != "" {
		t.Fatal("zero time should format empty")
	}
}
