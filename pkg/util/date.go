package util

import (
	"strconv"
	"time"
)

// legacyLayouts are the space-separated timestamps older score files were written with.
var legacyLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime tries RFC3339Nano, the legacy space-separated layouts, and unix
// seconds. Results are in UTC. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
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

// FormatTime renders t as RFC3339Nano in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
