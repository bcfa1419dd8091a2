//go:build linux || darwin

package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/reminder/internal/logger"
)

// runner executes a command and returns its standard output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// desktop drives the platform notification command.
type desktop struct {
	// run executes notification commands.
	run runner
	// lookPath resolves the notification command.
	lookPath func(file string) (string, error)
	// mu guards cancel and generation.
	mu sync.Mutex
	// cancel terminates the command backing the current alarm notification.
	cancel context.CancelFunc
	// generation identifies the current alarm notification.
	generation uint64
}

func newDesktop() *desktop {
	return &desktop{
		run:      execRunner,
		lookPath: exec.LookPath,
	}
}

// closeGrace bounds the wait for a notification command after it is interrupted.
const closeGrace = 2 * time.Second

// execRunner interrupts the command when ctx ends; notify-send --wait closes
// its notification on SIGINT, while a kill would leave it on screen.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = closeGrace

	return cmd.Output()
}

// Show starts the alarm notification in the background. The command blocks
// until the notification is dismissed or an action is chosen.
func (d *desktop) Show(ctx context.Context, notice Notice, onStop func()) error {
	name, args := alarmCommand(notice)
	if _, err := d.lookPath(name); err != nil {
		return fmt.Errorf("find %s: %w", name, err)
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.generation++
	generation := d.generation
	d.mu.Unlock()

	go func() {
		defer cancel()

		out, err := d.run(runCtx, name, args...)
		if err != nil {
			if runCtx.Err() == nil && !errors.Is(err, context.Canceled) {
				logger.WarnKV(ctx, "Alarm notification failed", "error", err)
			}

			return
		}

		if !stopsAlarm(strings.TrimSpace(string(out))) || onStop == nil {
			return
		}

		d.mu.Lock()
		current := d.generation == generation
		d.mu.Unlock()

		if current {
			onStop()
		}
	}()

	return nil
}

// stopsAlarm reports whether the chosen action silences the alarm.
func stopsAlarm(action string) bool {
	return action == StopAction || action == DefaultAction
}

// Clear terminates the current alarm notification command.
func (d *desktop) Clear(context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.generation++
}

// Notify shows a transient notification and waits for the command to return.
func (d *desktop) Notify(ctx context.Context, notice Notice) error {
	name, args := hintCommand(notice)

	if _, err := d.run(ctx, name, args...); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}

	return nil
}
