package repository

import (
	"fmt"
	"time"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// timeScanner accepts native timestamps (pgx) and the text forms SQLite hands back.
type timeScanner struct {
	dst  *time.Time
	null **time.Time
}

func scanTime(dst *time.Time) *timeScanner      { return &timeScanner{dst: dst} }
func scanNullTime(dst **time.Time) *timeScanner { return &timeScanner{null: dst} }

func (s *timeScanner) Scan(src any) error {
	if src == nil {
		if s.null != nil {
			*s.null = nil
			return nil
		}
		return fmt.Errorf("scan time: unexpected NULL")
	}

	var t time.Time
	switch v := src.(type) {
	case time.Time:
		t = v
	case string:
		parsed, err := parseTime(v)
		if err != nil {
			return err
		}
		t = parsed
	case []byte:
		parsed, err := parseTime(string(v))
		if err != nil {
			return err
		}
		t = parsed
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}

	t = t.UTC()
	if s.null != nil {
		*s.null = &t
	} else {
		*s.dst = t
	}
	return nil
}

func parseTime(v string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("scan time: unrecognised value %q", v)
}

// dateOnly keeps the calendar date of t in its own location, stored as UTC midnight.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
