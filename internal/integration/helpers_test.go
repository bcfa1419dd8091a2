package integration

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/platform/audio"
	"github.com/oshokin/reminder/internal/service/daemon"
)

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// newConfig returns a validated configuration rooted in a temp directory.
func newConfig(t *testing.T, platform string) *config.Config {
	t.Helper()

	cfg := &config.Config{
		ListenAddress: "127.0.0.1:0",
		DataDir:       t.TempDir(),
		LogLevel:      "info",
		Timer:         config.Timer{Platform: platform},
		Playback:      config.Playback{Backend: config.PlaybackBackendNone},
		Indicator:     config.IndicatorNone,
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// startDaemon runs reminderd from a temporary config file.
// Returns a stop function that cancels the daemon and waits for it to exit.
func startDaemon(t *testing.T, cfg *config.Config) (stop func()) {
	t.Helper()

	// Create cancellable context for daemon lifecycle.
	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "reminder-settings.yaml")

	// Create temporary configuration file.
	require.NoError(t, config.Save(cfgPath, cfg))

	done := make(chan error, 1)

	// Start daemon in background goroutine.
	go func() {
		done <- daemon.Run(ctx, &daemon.Options{
			ConfigPath:    cfgPath,
			AllowMultiple: true,
		})
	}()

	// Wait until the gRPC port accepts connections.
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", cfg.ListenAddress, 50*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 5*time.Second, 20*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// fakeAudio is an audio backend that counts open streams.
type fakeAudio struct {
	// mu guards the counters.
	mu sync.Mutex
	// active is the number of open streams.
	active int
	// plays is the number of Play calls.
	plays int
}

func (a *fakeAudio) Play(audio.Tone) (audio.Stream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active++
	a.plays++

	return &fakeStream{audio: a}, nil
}

func (a *fakeAudio) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.active
}

// fakeStream decrements the active count once.
type fakeStream struct {
	// audio owns the counters.
	audio *fakeAudio
	// once guards the decrement.
	once sync.Once
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		s.audio.mu.Lock()
		s.audio.active--
		s.audio.mu.Unlock()
	})

	return nil
}

// systemdRecorder records systemd commands instead of running them.
type systemdRecorder struct {
	// mu guards calls.
	mu sync.Mutex
	// calls are the recorded command lines.
	calls []string
	// managerStart is reported as the start time of the user manager.
	managerStart string
}

func (r *systemdRecorder) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := name + " " + strings.Join(args, " ")
	r.calls = append(r.calls, call)

	if strings.HasPrefix(call, "systemctl --user show") {
		return []byte(r.managerStart + "\n"), nil
	}

	return nil, nil
}

// Created returns the recorded systemd-run command lines.
func (r *systemdRecorder) Created() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var created []string

	for _, call := range r.calls {
		if strings.HasPrefix(call, "systemd-run ") {
			created = append(created, call)
		}
	}

	return created
}
