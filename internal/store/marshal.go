package store

import (
	"fmt"
	"time"

	"tesoreria/internal/treasury"
)

// Dates are stored as TEXT YYYY-MM-DD with "" for the zero time,
// timestamps as RFC 3339 UTC.

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(treasury.DateLayout)
}

func scanDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := treasury.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("scan date %q: %w", s, err)
	}
	return t, nil
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func scanTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("scan time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
