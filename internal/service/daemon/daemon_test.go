package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/platform/audio"
	"github.com/oshokin/reminder/internal/platform/boot"
	"github.com/oshokin/reminder/internal/platform/notify"
	"github.com/oshokin/reminder/internal/platform/timer"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	// pid is the process id.
	pid int
	// name is the executable name.
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

// TestFindDuplicate checks the single-instance scan.
func TestFindDuplicate(t *testing.T) {
	t.Parallel()

	list := func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: 10, name: "reminderd"},
			fakeProcess{pid: 11, name: "bash"},
		}, nil
	}

	require.NoError(t, findDuplicate(list, 10, "reminderd"))
	require.ErrorIs(t, findDuplicate(list, 12, "reminderd"), ErrAlreadyRunning)
	require.NoError(t, findDuplicate(list, 12, "reminderctl"))

	failing := func() ([]ps.Process, error) { return nil, errors.New("no procfs") }
	require.Error(t, findDuplicate(failing, 1, "reminderd"))
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()

	cfg := &config.Config{
		ListenAddress: "127.0.0.1:0",
		DataDir:       t.TempDir(),
		LogLevel:      "debug",
		Store:         config.Store{Backend: backend},
		Playback:      config.Playback{Backend: config.PlaybackBackendNone},
		Indicator:     config.IndicatorNone,
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

func newDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()

	d, err := New(context.Background(), cfg, "", WithAudio(audio.None{}), WithIndicator(notify.Noop{}))
	require.NoError(t, err)

	t.Cleanup(func() { _ = d.Close() })

	return d
}

// TestService_BootCompletedOncePerEpoch restores the schedule once per registry lifetime.
func TestService_BootCompletedOncePerEpoch(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{config.StoreBackendJSON, config.StoreBackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			cfg := testConfig(t, backend)
			now := time.Now()

			first := newDaemon(t, cfg)
			svc := first.Service()

			_, err := svc.Schedule(ctx, domain.Record{ID: "future", TriggerAt: domain.Millis(now.Add(time.Hour))})
			require.NoError(t, err)

			_, err = svc.Schedule(ctx, domain.Record{ID: "past", TriggerAt: domain.Millis(now.Add(-time.Hour))})
			require.NoError(t, err)

			restored, kept, err := svc.BootCompleted(ctx)
			require.NoError(t, err)
			require.True(t, restored)
			require.Equal(t, 1, kept)

			restored, kept, err = svc.BootCompleted(ctx)
			require.NoError(t, err)
			require.False(t, restored)
			require.Equal(t, 1, kept)

			require.NoError(t, first.Close())

			// A new registry is a new epoch.
			second := newDaemon(t, cfg)

			restored, kept, err = second.Service().BootCompleted(ctx)
			require.NoError(t, err)
			require.True(t, restored)
			require.Equal(t, 1, kept)

			records, err := second.Service().List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			require.Equal(t, "future", records[0].ID)

			// Forgetting the marker from another process forces the next restore.
			require.NoError(t, boot.NewMarker(cfg.BootMarkerPath()).Reset())

			restored, kept, err = second.Service().BootCompleted(ctx)
			require.NoError(t, err)
			require.True(t, restored)
			require.Equal(t, 1, kept)
		})
	}
}

// TestService_PermissionFallback schedules inexactly while the grant is revoked.
func TestService_PermissionFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newDaemon(t, testConfig(t, config.StoreBackendJSON))
	svc := d.Service()

	require.True(t, svc.CanScheduleExact(ctx))

	mode, err := svc.Schedule(ctx, domain.Record{ID: "a", TriggerAt: domain.Millis(time.Now().Add(time.Hour))})
	require.NoError(t, err)
	require.Equal(t, timer.ModeExact, mode)

	require.NoError(t, d.Gate().Revoke())
	require.False(t, svc.CanScheduleExact(ctx))

	mode, err = svc.Schedule(ctx, domain.Record{ID: "a", TriggerAt: domain.Millis(time.Now().Add(time.Hour))})
	require.NoError(t, err)
	require.Equal(t, timer.ModeInexact, mode)
}

// TestService_PreviewWithoutAudio surfaces the missing output device.
func TestService_PreviewWithoutAudio(t *testing.T) {
	t.Parallel()

	d := newDaemon(t, testConfig(t, config.StoreBackendJSON))

	err := d.Service().PreviewTone(context.Background(), time.Second)
	require.ErrorIs(t, err, domain.ErrResourceUnavailable)
}
