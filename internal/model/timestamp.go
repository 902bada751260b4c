package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
)

var (
	ErrInvalidTimestamp = errors.New("model: invalid timestamp")
	ErrInvalidClock     = errors.New("model: invalid clock time")
)

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// ParseTimestamp parses a wall-clock timestamp in local time, truncated to the
// second. RFC 3339 values keep their offset and are converted to local time.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	if tm, err := time.Parse(time.RFC3339, s); err == nil {
		return tm.Local().Truncate(time.Second), nil
	}
	for _, layout := range timestampLayouts {
		if tm, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return tm, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// ParseClock parses HH:MM or HH:MM:SS into an offset from midnight.
func ParseClock(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{ClockLayout, "15:04:05"} {
		if tm, err := time.Parse(layout, s); err == nil {
			return time.Duration(tm.Hour())*time.Hour +
				time.Duration(tm.Minute())*time.Minute +
				time.Duration(tm.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
}

// ParseDate parses a YYYY-MM-DD calendar date at local midnight.
func ParseDate(raw string) (time.Time, error) {
	tm, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return tm, nil
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimestampLayout)
}

// StartOfDay returns local midnight of t's calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
