package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	api "github.com/oshokin/reminder/internal/api/grpc/reminder"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

//nolint:gochecknoinits // Deterministic rendering for every test in the package.
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// fakeSource is an in-memory Source.
type fakeSource struct {
	// mu guards the fields below.
	mu sync.Mutex
	// status is returned by Status.
	status *api.StatusResponse
	// alarms are returned by List.
	alarms []domain.Record
	// err is returned by every call when set.
	err error
	// stops counts StopCurrentAlarm calls.
	stops int
}

func (f *fakeSource) Status(context.Context) (*api.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.status, f.err
}

func (f *fakeSource) List(context.Context) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.alarms, f.err
}

func (f *fakeSource) StopCurrentAlarm(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stops++
	f.status = &api.StatusResponse{State: "idle"}

	return f.err
}

func newTestModel(source Source, now time.Time) Model {
	m := New(context.Background(), source, time.Second)
	m.now = func() time.Time { return now }

	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// TestModel_FiringView renders the firing alarm and the upcoming list.
func TestModel_FiringView(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	source := &fakeSource{
		status: &api.StatusResponse{
			State:   "firing",
			Alarm:   &api.FireRequest{ID: "a", Title: "Tea", Body: "Kitchen"},
			StopsAt: domain.Millis(now.Add(14 * time.Minute)),
			Playing: true,
		},
		alarms: []domain.Record{{ID: "b", TriggerAt: domain.Millis(now.Add(30 * time.Minute)), Title: "Call"}},
	}

	m := newTestModel(source, now)
	require.Contains(t, m.View(), "Connecting...")

	msg := m.Init()()
	updated, cmd := m.Update(msg)
	require.NotNil(t, cmd)

	view := updated.View()
	require.Contains(t, view, "FIRING  Tea")
	require.Contains(t, view, "Kitchen")
	require.Contains(t, view, "stops by itself in 14m0s")
	require.Contains(t, view, "Call")
	require.Contains(t, view, "(in 30m0s)")
}

// TestModel_Stop sends the stop request and polls again.
func TestModel_Stop(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		status: &api.StatusResponse{State: "firing", Alarm: &api.FireRequest{ID: "a"}},
	}

	m := newTestModel(source, time.Now())

	updated, _ := m.Update(m.Init()())
	require.Contains(t, updated.View(), "FIRING  "+domain.DefaultTitle)

	updated, cmd := updated.Update(runes("s"))
	require.NotNil(t, cmd)

	updated, cmd = updated.Update(cmd())
	require.NotNil(t, cmd)
	require.Equal(t, 1, source.stops)

	updated, _ = updated.Update(cmd())
	require.Contains(t, updated.View(), "Idle")
	require.Contains(t, updated.View(), "No alarms scheduled.")
}

// TestModel_ErrorAndQuit shows poll errors and quits on q.
func TestModel_ErrorAndQuit(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errors.New("daemon unreachable")}
	m := newTestModel(source, time.Now())

	updated, _ := m.Update(m.Init()())
	require.Contains(t, updated.View(), "Error: daemon unreachable")

	_, cmd := updated.Update(runes("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

// TestFormatDuration rounds by magnitude.
func TestFormatDuration(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0s", formatDuration(-time.Second))
	require.Equal(t, "42s", formatDuration(41600*time.Millisecond))
	require.Equal(t, "2m0s", formatDuration(119*time.Second))
}
