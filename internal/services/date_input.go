package services

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// DateInput is a delivery date from a request body: an RFC 3339 timestamp or a bare
// YYYY-MM-DD calendar date. Calendar dates mean midnight in the business time zone.
type DateInput struct {
	Value    time.Time
	DateOnly bool
}

// At wraps an exact instant.
func At(t time.Time) *DateInput {
	return &DateInput{Value: t}
}

// UnmarshalJSON accepts both supported layouts.
func (d *DateInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		d.Value, d.DateOnly = t, true
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q must be RFC 3339 or YYYY-MM-DD", s)
	}
	d.Value, d.DateOnly = t, false
	return nil
}

// MarshalJSON writes calendar dates back as YYYY-MM-DD.
func (d DateInput) MarshalJSON() ([]byte, error) {
	if d.DateOnly {
		return json.Marshal(d.Value.Format(dateOnlyLayout))
	}
	return json.Marshal(d.Value.Format(time.RFC3339))
}

// resolve returns the instant d names, placing calendar dates at midnight in loc.
func (d *DateInput) resolve(loc *time.Location) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Value
	if d.DateOnly {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
	return &t
}
