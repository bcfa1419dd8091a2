package ctl

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/reminder/internal/api/grpc/reminder"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// TestParseWhen covers every accepted form.
func TestParseWhen(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("test", 3*60*60)
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, loc)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"+10m", now.Add(10 * time.Minute)},
		{"90s", now.Add(90 * time.Second)},
		{"13:30", time.Date(2026, 4, 10, 13, 30, 0, 0, loc)},
		{"07:15", time.Date(2026, 4, 11, 7, 15, 0, 0, loc)},
		{"12:00", time.Date(2026, 4, 11, 12, 0, 0, 0, loc)},
		{"2026-05-01 09:00", time.Date(2026, 5, 1, 9, 0, 0, 0, loc)},
		{"2026-05-01T09:00:00Z", time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseWhen(tt.in, now)
		require.NoError(t, err, tt.in)
		require.True(t, tt.want.Equal(got), "%s: got %s, want %s", tt.in, got, tt.want)
	}

	_, err := ParseWhen("tomorrow-ish", now)
	require.ErrorIs(t, err, errUnknownTime)

	_, err = ParseWhen("  ", now)
	require.ErrorIs(t, err, errUnknownTime)
}

// TestPrinter_Alarms renders due and upcoming alarms without colors.
func TestPrinter_Alarms(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer

	p := NewPrinter(&buf, true)
	p.Alarms([]domain.Record{
		{ID: "a", TriggerAt: domain.Millis(now.Add(-time.Minute)), Title: "Old"},
		{ID: "b", TriggerAt: domain.Millis(now.Add(time.Hour)), Body: "details"},
	}, now)

	out := buf.String()
	require.Contains(t, out, "a  2026-04-10 11:59:00  due")
	require.Contains(t, out, "Old")
	require.Contains(t, out, "b  2026-04-10 13:00:00  in 1h0m0s")
	require.Contains(t, out, domain.DefaultTitle)
	require.Contains(t, out, "    details")

	buf.Reset()
	p.Alarms(nil, now)
	require.Equal(t, "No alarms scheduled.\n", buf.String())
}

// TestPrinter_Status renders both handler states.
func TestPrinter_Status(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	p := NewPrinter(&buf, true)
	p.Status(&api.StatusResponse{State: "idle"})
	p.Status(&api.StatusResponse{State: "firing", Alarm: &api.FireRequest{ID: "x", Title: "Tea"}})
	p.Permission(false)

	require.Equal(t,
		"Idle\nFiring Tea (x)\nExact alarms are not allowed; alarms fire within the inexact window.\n",
		buf.String())
}
