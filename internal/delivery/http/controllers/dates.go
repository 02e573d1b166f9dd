package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// eventDateLayouts are tried in order. Values without a zone are read as UTC.
var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// EventDate accepts RFC 3339 timestamps as well as the date and
// datetime-local forms sent by HTML date inputs.
type EventDate time.Time

func (d *EventDate) UnmarshalJSON(b []byte) error {
	t, err := parseEventDate(b)
	if err != nil {
		return err
	}
	*d = EventDate(t)
	return nil
}

func (d EventDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d))
}

// Time returns d as a time.Time.
func (d EventDate) Time() time.Time {
	return time.Time(d)
}

// parseEventDate reads a JSON string date. The empty string yields the zero time.
func parseEventDate(b []byte) (time.Time, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return time.Time{}, errors.New("date must be a string")
	}
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
