package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/platform/timer"
	repo "github.com/oshokin/reminder/internal/repository/alarm"
)

// call is one interaction with the fake timer.
type call struct {
	op        string
	id        string
	triggerAt int64
}

// fakeTimer records register/unregister calls in order.
type fakeTimer struct {
	mu          sync.Mutex
	calls       []call
	canExact    bool
	registerErr error
	failIDs     map[string]error
	requests    int
}

func (f *fakeTimer) CanScheduleExact(context.Context) bool { return f.canExact }

func (f *fakeTimer) RequestPermission(context.Context) { f.requests++ }

func (f *fakeTimer) Register(_ context.Context, rec domain.Record) (timer.Mode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{op: "register", id: rec.ID, triggerAt: rec.TriggerAt})

	if err := f.failIDs[rec.ID]; err != nil {
		return 0, err
	}

	if f.registerErr != nil {
		return 0, f.registerErr
	}

	if f.canExact {
		return timer.ModeExact, nil
	}

	return timer.ModeInexact, nil
}

func (f *fakeTimer) Unregister(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{op: "unregister", id: id})

	return nil
}

func (f *fakeTimer) registers() []call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []call

	for _, c := range f.calls {
		if c.op == "register" {
			out = append(out, c)
		}
	}

	return out
}

type fakeStopper struct{ stops int }

func (f *fakeStopper) Stop(context.Context) { f.stops++ }

type fakePlayer struct{ ceilings []time.Duration }

func (f *fakePlayer) Start(_ context.Context, ceiling time.Duration) error {
	f.ceilings = append(f.ceilings, ceiling)

	return nil
}

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	scheduler *Scheduler
	store     repo.Repository
	timer     *fakeTimer
	stopper   *fakeStopper
	player    *fakePlayer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   repo.NewFileRepository(filepath.Join(t.TempDir(), "prefs.json")),
		timer:   &fakeTimer{canExact: true},
		stopper: new(fakeStopper),
		player:  new(fakePlayer),
	}

	f.scheduler = New(f.store, f.timer, f.stopper, f.player, Options{
		Now: func() time.Time { return now },
	})

	return f
}

func (f *fixture) all(t *testing.T) []domain.Record {
	t.Helper()

	records, err := f.store.GetAll(context.Background())
	require.NoError(t, err)

	return records
}

// TestSchedule_Overwrites checks scheduling persists one record per id.
func TestSchedule_Overwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	first := domain.Record{ID: "r1", TriggerAt: now.Add(time.Hour).UnixMilli(), Title: "Dentist", Body: "Bring card"}

	mode, err := f.scheduler.Schedule(ctx, first)
	require.NoError(t, err)
	require.Equal(t, timer.ModeExact, mode)
	require.Equal(t, []domain.Record{first}, f.all(t))

	second := first
	second.TriggerAt = now.Add(2 * time.Hour).UnixMilli()
	second.Title = "Dentist (moved)"

	_, err = f.scheduler.Schedule(ctx, second)
	require.NoError(t, err)
	require.Equal(t, []domain.Record{second}, f.all(t))
}

// TestSchedule_UnregistersBeforeRegister checks a re-schedule never leaves two registrations.
func TestSchedule_UnregistersBeforeRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.scheduler.Schedule(ctx, domain.Record{ID: "r1", TriggerAt: 100})
	require.NoError(t, err)
	_, err = f.scheduler.Schedule(ctx, domain.Record{ID: "r1", TriggerAt: 200})
	require.NoError(t, err)

	require.Equal(t, []call{
		{op: "unregister", id: "r1"},
		{op: "register", id: "r1", triggerAt: 100},
		{op: "unregister", id: "r1"},
		{op: "register", id: "r1", triggerAt: 200},
	}, f.timer.calls)
}

// TestSchedule_PastTimeAccepted ensures a past TriggerAt is not rejected.
func TestSchedule_PastTimeAccepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.timer.canExact = false

	mode, err := f.scheduler.Schedule(context.Background(), domain.Record{ID: "late", TriggerAt: now.Add(-time.Hour).UnixMilli()})
	require.NoError(t, err)
	require.Equal(t, timer.ModeInexact, mode)
	require.Len(t, f.all(t), 1)
}

// TestSchedule_ContextUnavailable ensures a failed registration is surfaced and not persisted.
func TestSchedule_ContextUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.timer.registerErr = domain.ErrContextUnavailable

	_, err := f.scheduler.Schedule(context.Background(), domain.Record{ID: "r1", TriggerAt: 1})
	require.ErrorIs(t, err, domain.ErrContextUnavailable)
	require.Empty(t, f.all(t))

	_, err = f.scheduler.Schedule(context.Background(), domain.Record{})
	require.ErrorIs(t, err, ErrEmptyID)
}

// TestCancel covers known and unknown ids.
func TestCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.scheduler.Schedule(ctx, domain.Record{ID: "r1", TriggerAt: 1})
	require.NoError(t, err)

	before := f.all(t)

	require.NoError(t, f.scheduler.Cancel(ctx, "never-scheduled"))
	require.Equal(t, before, f.all(t))

	require.NoError(t, f.scheduler.Cancel(ctx, "r1"))
	require.Empty(t, f.all(t))
}

// TestCancelAll empties the store for any number of alarms.
func TestCancelAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for _, count := range []int{0, 1, 5} {
		f := newFixture(t)

		for i := range count {
			_, err := f.scheduler.Schedule(ctx, domain.Record{ID: string(rune('a' + i)), TriggerAt: int64(i)})
			require.NoError(t, err)
		}

		f.timer.calls = nil

		require.NoError(t, f.scheduler.CancelAll(ctx))
		require.Empty(t, f.all(t))
		require.Len(t, f.timer.calls, count)
	}
}

// TestRescheduleAll keeps only future records and registers only those.
func TestRescheduleAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	past := domain.Record{ID: "past", TriggerAt: now.Add(-time.Minute).UnixMilli()}
	exactlyNow := domain.Record{ID: "now", TriggerAt: now.UnixMilli()}
	future := domain.Record{ID: "future", TriggerAt: now.Add(time.Hour).UnixMilli(), Title: "Later"}

	require.NoError(t, f.store.ReplaceAll(ctx, []domain.Record{past, exactlyNow, future}))

	kept, err := f.scheduler.RescheduleAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, kept)
	require.Equal(t, []domain.Record{future}, f.all(t))
	require.Equal(t, []call{{op: "register", id: "future", triggerAt: future.TriggerAt}}, f.timer.registers())
}

// TestRescheduleAll_KeepsFailures keeps records whose registration failed.
func TestRescheduleAll_KeepsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.timer.failIDs = map[string]error{"flaky": domain.ErrContextUnavailable}

	flaky := domain.Record{ID: "flaky", TriggerAt: now.Add(time.Hour).UnixMilli()}
	ok := domain.Record{ID: "ok", TriggerAt: now.Add(2 * time.Hour).UnixMilli()}

	require.NoError(t, f.store.ReplaceAll(ctx, []domain.Record{flaky, ok}))

	kept, err := f.scheduler.RescheduleAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, kept)
	require.Equal(t, []domain.Record{flaky, ok}, f.all(t))
}

// TestAuxiliaryOperations covers the pass-through operations.
func TestAuxiliaryOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	require.True(t, f.scheduler.CanScheduleExact(ctx))

	f.scheduler.RequestPermission(ctx)
	require.Equal(t, 1, f.timer.requests)

	f.scheduler.StopCurrentAlarm(ctx)
	require.Equal(t, 1, f.stopper.stops)

	require.NoError(t, f.scheduler.PreviewTone(ctx, 5*time.Second))
	require.Equal(t, []time.Duration{5 * time.Second}, f.player.ceilings)

	rec, _, err := f.scheduler.TestAlarm(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.TestAlarmID, rec.ID)
	require.Equal(t, now.Add(3*time.Second).UnixMilli(), rec.TriggerAt)

	list, err := f.scheduler.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Record{rec}, list)
}
