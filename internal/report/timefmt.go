package report

import (
	"fmt"
	"time"
)

// timestampLayouts are the formats the server emits for dates.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
}

// ParseTimestamp parses a server timestamp. Zone-less values are UTC,
// matching SQLite's CURRENT_TIMESTAMP.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// TimeAgo renders the distance from t to now using whole units:
// seconds below a minute, then minutes, hours and days. Units are
// always plural ("1 hours ago").
func TimeAgo(now, t time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%d seconds ago", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}
	return fmt.Sprintf("%d days ago", hours/24)
}

// FormatDate renders a date and time like "Mar 4, 2026 3:04:05 PM".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04:05 PM")
}

// when renders a server timestamp relative to now, falling back to the
// raw string when it cannot be parsed.
func when(now time.Time, raw string) string {
	if raw == "" {
		return "-"
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return TimeAgo(now, t)
}
