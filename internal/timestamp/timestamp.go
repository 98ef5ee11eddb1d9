// Package timestamp normalizes client and server times into the canonical
// UTC, second-precision string form stored by the monitor. Canonical strings
// sort lexically in chronological order.
package timestamp

import (
	"strings"
	"time"
)

// Layout is the canonical timestamp layout.
const Layout = "2006-01-02T15:04:05Z"

// inputLayouts are tried in order when parsing client-supplied timestamps.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Format renders t in canonical form, truncated to seconds.
func Format(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(Layout)
}

// Now returns the current UTC time in canonical form.
func Now() string {
	return Format(time.Now())
}

// Parse parses an ISO-8601-like timestamp. A missing offset is read as UTC.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}

// Normalize converts a client-supplied timestamp to canonical form. It
// returns false when raw is nil, empty or unparseable; callers then fall
// back to Now.
func Normalize(raw *string) (string, bool) {
	if raw == nil {
		return "", false
	}
	t, ok := Parse(*raw)
	if !ok {
		return "", false
	}
	return Format(t), true
}

// NormalizeOrNow resolves a client timestamp, defaulting to the current time.
func NormalizeOrNow(raw *string) string {
	if ts, ok := Normalize(raw); ok {
		return ts
	}
	return Now()
}

// StartOfDay returns midnight UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
