package domain

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the presentation format for resolved timestamps:
// UTC, 12-hour clock.
const DisplayLayout = "2006-01-02 03:04:05 PM"

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an item or query timestamp and normalizes it to UTC.
// The same function is applied to both sides of every comparison.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse timestamp: empty value")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported layout", s)
}

// FormatDisplay renders t in DisplayLayout.
func FormatDisplay(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}

func parseRequired(itemID, field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%w: item %q has no %s", ErrMissingTimestamp, itemID, field)
	}
	t, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: item %q: %w", ErrMissingTimestamp, itemID, err)
	}
	return t, nil
}
