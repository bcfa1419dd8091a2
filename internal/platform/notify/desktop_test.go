//go:build linux

package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scriptedRunner returns canned output once released and records invocations.
type scriptedRunner struct {
	mu      sync.Mutex
	calls   [][]string
	release chan string
}

func (r *scriptedRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	select {
	case out := <-r.release:
		return []byte(out + "\n"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestDesktop(r *scriptedRunner) *desktop {
	return &desktop{
		run:      r.run,
		lookPath: func(file string) (string, error) { return "/usr/bin/" + file, nil },
	}
}

// TestDesktop_StopAction verifies the Stop action reaches the callback.
func TestDesktop_StopAction(t *testing.T) {
	t.Parallel()

	r := &scriptedRunner{release: make(chan string)}
	d := newTestDesktop(r)

	stopped := make(chan struct{})

	require.NoError(t, d.Show(context.Background(), Notice{Title: "🔔 Standup", Body: "Room 4"}, func() {
		close(stopped)
	}))

	r.release <- StopAction

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop callback was not called")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	require.Len(t, r.calls, 1)
	require.Equal(t, "notify-send", r.calls[0][0])
	require.Contains(t, r.calls[0], "--action=stop=Stop")
	require.Contains(t, r.calls[0], "--action=default=Open")
	require.Contains(t, r.calls[0], "🔔 Standup")
}

// TestDesktop_ClearCancels ensures Clear terminates the pending command
// without invoking the callback.
func TestDesktop_ClearCancels(t *testing.T) {
	t.Parallel()

	r := &scriptedRunner{release: make(chan string)}
	d := newTestDesktop(r)

	require.NoError(t, d.Show(context.Background(), Notice{Title: "t"}, func() {
		t.Error("stop callback must not run after Clear")
	}))

	d.Clear(context.Background())

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()

		return d.cancel == nil
	}, time.Second, 10*time.Millisecond)
}

// TestDesktop_MissingCommand reports a missing notification binary.
func TestDesktop_MissingCommand(t *testing.T) {
	t.Parallel()

	d := &desktop{
		run:      (&scriptedRunner{}).run,
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
	}

	require.Error(t, d.Show(context.Background(), Notice{}, nil))
}

// TestDesktop_TapStops treats tapping the notification like Stop.
func TestDesktop_TapStops(t *testing.T) {
	t.Parallel()

	r := &scriptedRunner{release: make(chan string)}
	d := newTestDesktop(r)

	stopped := make(chan struct{})

	require.NoError(t, d.Show(context.Background(), Notice{Title: "t"}, func() {
		close(stopped)
	}))

	r.release <- DefaultAction

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop callback was not called")
	}
}

// TestExecRunner_InterruptsOnCancel lets the command close its notification
// when the context ends instead of killing it.
func TestExecRunner_InterruptsOnCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ready := filepath.Join(dir, "ready")
	closed := filepath.Join(dir, "closed")

	script := `trap 'echo closed > "$2"; exit 0' INT; : > "$1"; while :; do sleep 0.05; done`

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		_, err := execRunner(ctx, "sh", "-c", script, "sh", ready, closed)
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(ready)

		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command did not exit after interrupt")
	}

	contents, err := os.ReadFile(closed)
	require.NoError(t, err)
	require.Equal(t, "closed\n", string(contents))
}
