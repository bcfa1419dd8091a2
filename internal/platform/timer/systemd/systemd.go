// Package systemd registers alarms as transient systemd user timers.
//
// Each alarm becomes a reminder-<key>.timer unit created with systemd-run. The
// unit runs `reminderctl fire`, which hands the payload to reminderd. Transient
// units live in the user service manager and die with it, on reboot or when the
// last session of the user ends, so the epoch is the kernel boot id joined
// with the start time of the user manager.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/boot"
	"github.com/oshokin/reminder/internal/platform/timer"
)

const (
	// DefaultFireCommand is the executable the timers run.
	DefaultFireCommand = "reminderctl"

	systemdRun = "systemd-run"
	systemctl  = "systemctl"

	calendarLayout = "2006-01-02 15:04:05"
	exactAccuracy  = "1s"

	// managerStartProperty is the monotonic start time of the user manager.
	managerStartProperty = "UserspaceTimestampMonotonic"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Gate is the exact-alarm grant consulted by the platform.
type Gate interface {
	// Granted reports whether exact alarms are allowed.
	Granted(ctx context.Context) bool
	// Request asks the user to allow exact alarms.
	Request(ctx context.Context)
}

// Options configure a Platform.
type Options struct {
	// Gate holds the exact-alarm grant.
	Gate Gate
	// FireCommand is the reminderctl executable. Defaults to DefaultFireCommand.
	FireCommand string
	// ConfigPath is passed to the fire command with --config when set.
	ConfigPath string
	// InexactWindow is the AccuracySec of inexact timers.
	InexactWindow time.Duration
	// Run executes commands. Defaults to os/exec.
	Run Runner
	// LookPath resolves executables. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	// BootID returns the current boot id. Defaults to boot.KernelBootID.
	BootID func() (string, error)
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Platform is a timer.Platform backed by systemd user timers.
type Platform struct {
	opts Options
}

var _ timer.Platform = (*Platform)(nil)

// New creates a systemd timer platform.
func New(opts Options) *Platform {
	if opts.FireCommand == "" {
		opts.FireCommand = DefaultFireCommand
	}

	if opts.Run == nil {
		opts.Run = execRunner
	}

	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}

	if opts.BootID == nil {
		opts.BootID = boot.KernelBootID
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Platform{
		opts: opts,
	}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// UnitName returns the unit name (without suffix) of an alarm id.
func UnitName(id string) string {
	return fmt.Sprintf("reminder-%08x", timer.Key(id))
}

// CanScheduleExact reports whether systemd-run is available and the grant is held.
func (p *Platform) CanScheduleExact(ctx context.Context) bool {
	if _, err := p.opts.LookPath(systemdRun); err != nil {
		return false
	}

	return p.opts.Gate.Granted(ctx)
}

// RequestPermission forwards to the gate.
func (p *Platform) RequestPermission(ctx context.Context) {
	p.opts.Gate.Request(ctx)
}

// RegisterExact creates a timer with one-second accuracy that wakes the system.
func (p *Platform) RegisterExact(ctx context.Context, record domain.Record) error {
	if !p.opts.Gate.Granted(ctx) {
		return domain.ErrPermissionDenied
	}

	return p.register(ctx, record,
		"--timer-property=AccuracySec="+exactAccuracy,
		"--timer-property=WakeSystem=yes")
}

// RegisterInexact creates a timer whose accuracy is the inexact window.
func (p *Platform) RegisterInexact(ctx context.Context, record domain.Record) error {
	accuracy := max(int64(p.opts.InexactWindow/time.Second), 1)

	return p.register(ctx, record,
		"--timer-property=AccuracySec="+strconv.FormatInt(accuracy, 10)+"s")
}

// Unregister stops the timer and its service. Units that are not loaded are ignored.
func (p *Platform) Unregister(ctx context.Context, id string) error {
	unit := UnitName(id)

	out, err := p.opts.Run(ctx, systemctl, "--user", "stop", unit+".timer", unit+".service")
	if err == nil || strings.Contains(string(out), "not loaded") {
		return nil
	}

	return classify(fmt.Sprintf("stop %s", unit), out, err)
}

// Epoch identifies the lifetime of the user manager holding the timers.
func (p *Platform) Epoch(ctx context.Context) (string, error) {
	bootID, err := p.opts.BootID()
	if err != nil {
		return "", err
	}

	out, err := p.opts.Run(ctx, systemctl, "--user", "show", "--property="+managerStartProperty, "--value")
	if err != nil {
		return "", classify("read user manager start", out, err)
	}

	started := strings.TrimSpace(string(out))
	if started == "" || started == "0" {
		logger.DebugKV(ctx, "User manager start time unknown, using boot id", "boot_id", bootID)

		return bootID, nil
	}

	return bootID + "/" + started, nil
}

// register replaces the timer for record with one carrying the given properties.
func (p *Platform) register(ctx context.Context, record domain.Record, properties ...string) error {
	if err := p.Unregister(ctx, record.ID); err != nil {
		return err
	}

	unit := UnitName(record.ID)
	args := make([]string, 0, 16+len(properties))
	args = append(args, "--user", "--unit="+unit, "--collect", "--description=Reminder: "+record.Title)

	if at := record.Time(); at.After(p.opts.Now()) {
		args = append(args, "--on-calendar="+at.UTC().Format(calendarLayout)+" UTC")
	} else {
		// Calendar timers in the past never elapse.
		args = append(args, "--on-active=1s")
	}

	args = append(args, properties...)
	args = append(args, "--", p.opts.FireCommand)

	if p.opts.ConfigPath != "" {
		args = append(args, "--config", escapeExec(p.opts.ConfigPath))
	}

	args = append(args, "fire",
		"--id", escapeExec(record.ID),
		"--title", escapeExec(record.Title),
		"--body", escapeExec(record.Body))

	out, err := p.opts.Run(ctx, systemdRun, args...)
	if err != nil {
		return classify(fmt.Sprintf("create %s", unit), out, err)
	}

	logger.DebugKV(ctx, "Systemd timer created", "unit", unit, "alarm_id", record.ID)

	return nil
}

// escapeExec protects s from environment expansion in ExecStart.
func escapeExec(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// classify maps command failures onto the domain errors.
func classify(action string, out []byte, err error) error {
	text := strings.ToLower(string(out))

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", action, domain.ErrContextUnavailable, err)
	case strings.Contains(text, "access denied"),
		strings.Contains(text, "not permitted"),
		strings.Contains(text, "permission denied"):
		return fmt.Errorf("%s: %w: %s", action, domain.ErrPermissionDenied, strings.TrimSpace(string(out)))
	case strings.Contains(text, "failed to connect to bus"),
		strings.Contains(text, "no medium found"):
		return fmt.Errorf("%s: %w: %s", action, domain.ErrContextUnavailable, strings.TrimSpace(string(out)))
	default:
		return fmt.Errorf("%s: %w: %s", action, err, strings.TrimSpace(string(out)))
	}
}
