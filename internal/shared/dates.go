package shared

import (
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseOptionalDate parses a YYYY-MM-DD value; blank input yields nil.
func ParseOptionalDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, NewValidationError(field, "must be a date formatted as "+DateLayout)
	}
	return &t, nil
}

// StartOfDay returns midnight of t's calendar day in loc, as a UTC date value.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
