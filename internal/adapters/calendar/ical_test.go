package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func TestICalEncoder_Encode(t *testing.T) {
	stamp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	enc := &icalEncoder{now: func() time.Time { return stamp }}
	date := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

	events := []*domain.EventDetails{
		{
			Event:   &domain.Event{ID: "ev-1", Title: "Go meetup", Description: "Talks, pizza; more", Date: date, Location: "Lisbon", CreatedAt: stamp, UpdatedAt: stamp},
			Creator: &domain.CreatorSummary{ID: "u1", Name: "Alice", Email: "alice@example.com"},
		},
		{
			Event: &domain.Event{ID: "ev-2", Title: "Orphan", Description: "d", Date: date.Add(time.Hour), Location: "Porto", CreatedAt: stamp, UpdatedAt: stamp},
		},
		nil,
	}

	out, err := enc.Encode(events)
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(out)).Decode()
	require.NoError(t, err)
	prodID, err := cal.Props.Text(ical.PropProductID)
	require.NoError(t, err)
	assert.Equal(t, productID, prodID)

	vevents := cal.Events()
	require.Len(t, vevents, 2)

	uid, err := vevents[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", uid)
	summary, err := vevents[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Go meetup", summary)
	desc, err := vevents[0].Props.Text(ical.PropDescription)
	require.NoError(t, err)
	assert.Equal(t, "Talks, pizza; more", desc)
	start, err := vevents[0].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(date))
	organizer := vevents[0].Props.Get(ical.PropOrganizer)
	require.NotNil(t, organizer)
	assert.Equal(t, "mailto:alice@example.com", organizer.Value)
	assert.Equal(t, "Alice", organizer.Params.Get(ical.ParamCommonName))

	uid, err = vevents[1].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "ev-2", uid)
	assert.Nil(t, vevents[1].Props.Get(ical.PropOrganizer))
}

func TestICalEncoder_EncodeEmpty(t *testing.T) {
	out, err := NewICalEncoder().Encode(nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "BEGIN:VCALENDAR")
	assert.NotContains(t, string(out), "BEGIN:VEVENT")
}
