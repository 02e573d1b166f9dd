// Package calendar renders events as an iCalendar (RFC 5545) feed.
package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"eventhub/internal/domain"
)

const productID = "-//eventhub//events//EN"

type icalEncoder struct {
	now func() time.Time
}

// NewICalEncoder returns a CalendarEncoder backed by go-ical.
func NewICalEncoder() domain.CalendarEncoder {
	return &icalEncoder{now: time.Now}
}

// Encode writes one VEVENT per event, in the order given.
func (e *icalEncoder) Encode(events []*domain.EventDetails) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	stamp := e.now().UTC()
	for _, ev := range events {
		if ev == nil || ev.Event == nil {
			continue
		}
		cal.Children = append(cal.Children, toVEvent(ev, stamp))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func toVEvent(ev *domain.EventDetails, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.ID)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.Date.UTC())
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetText(ical.PropDescription, ev.Description)
	ve.Props.SetText(ical.PropLocation, ev.Location)
	ve.Props.SetDateTime(ical.PropCreated, ev.CreatedAt.UTC())
	ve.Props.SetDateTime(ical.PropLastModified, ev.UpdatedAt.UTC())
	if ev.Creator != nil && ev.Creator.Email != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.Value = "mailto:" + ev.Creator.Email
		if ev.Creator.Name != "" {
			p.Params.Set(ical.ParamCommonName, ev.Creator.Name)
		}
		ve.Props.Add(p)
	}
	return ve
}
