package ical

import (
	"bytes"
	"testing"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// TestEncode_Decodes checks that exported alarms read back as events with a display alarm.
func TestEncode_Decodes(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	records := []domain.Record{
		{ID: "a", TriggerAt: domain.Millis(at), Title: "Stand-up", Body: "Room 4"},
		{ID: "b", TriggerAt: domain.Millis(at.Add(time.Hour))},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records, at.Add(-time.Hour)))

	cal, err := goical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	uid, err := events[0].Props.Text(goical.PropUID)
	require.NoError(t, err)
	require.Equal(t, "a@reminder", uid)

	summary, err := events[0].Props.Text(goical.PropSummary)
	require.NoError(t, err)
	require.Equal(t, "Stand-up", summary)

	start, err := events[0].DateTimeStart(time.UTC)
	require.NoError(t, err)
	require.True(t, start.Equal(at))

	require.Len(t, events[0].Children, 1)
	require.Equal(t, goical.CompAlarm, events[0].Children[0].Name)

	summary, err = events[1].Props.Text(goical.PropSummary)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultTitle, summary)
}
