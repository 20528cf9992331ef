package models

import (
	"strings"
	"time"
)

// TimestampLayout is the format created_at/updated_at are rendered in.
const TimestampLayout = time.RFC3339Nano

// DateLayout is the calendar date format used in file names and CSV exports.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
}

// ParseDate parses the date formats administrators and exports produce.
// Fractional seconds are accepted after any seconds field.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a store timestamp the way snapshots carry it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
