package timer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
)

// Mode is the precision a registration ended up with.
type Mode int

const (
	// ModeExact fires at the requested instant and may wake the device.
	ModeExact Mode = iota + 1
	// ModeInexact lets the platform batch the wake-up within its window.
	ModeInexact
)

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeInexact:
		return "inexact"
	default:
		return "unknown"
	}
}

// Platform is a raw timer facility.
// Registrations are keyed by Key(record.ID); registering an occupied key
// replaces the previous registration.
type Platform interface {
	// CanScheduleExact reports whether exact registrations are currently permitted.
	CanScheduleExact(ctx context.Context) bool
	// RequestPermission asks the user to allow exact alarms. It does not wait.
	RequestPermission(ctx context.Context)
	// RegisterExact arranges a wake-up at record.TriggerAt.
	// It fails with alarm.ErrPermissionDenied when exact alarms are not allowed.
	RegisterExact(ctx context.Context, record domain.Record) error
	// RegisterInexact arranges a batched wake-up near record.TriggerAt.
	RegisterInexact(ctx context.Context, record domain.Record) error
	// Unregister removes the registration for id. Unknown ids are ignored.
	Unregister(ctx context.Context, id string) error
	// Epoch identifies the lifetime of the registrations: it changes whenever
	// every registration has been lost.
	Epoch(ctx context.Context) (string, error)
}

// Key returns the registration key of an alarm id.
// Distinct ids may share a key; they then share one registration slot.
func Key(id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))

	return h.Sum32()
}

// Adapter applies the exact-or-inexact policy on top of a Platform.
type Adapter struct {
	// platform is the wrapped timer facility.
	platform Platform
}

// NewAdapter wraps the platform.
func NewAdapter(platform Platform) *Adapter {
	return &Adapter{
		platform: platform,
	}
}

// CanScheduleExact re-queries the platform on every call.
func (a *Adapter) CanScheduleExact(ctx context.Context) bool {
	return a.platform.CanScheduleExact(ctx)
}

// RequestPermission forwards the request to the platform and returns at once.
func (a *Adapter) RequestPermission(ctx context.Context) {
	a.platform.RequestPermission(ctx)
}

// Register registers the record, preferring exact precision.
// The capability check runs first; a permission failure on the exact call
// downgrades to inexact. Other failures are returned unchanged.
func (a *Adapter) Register(ctx context.Context, record domain.Record) (Mode, error) {
	if a.platform.CanScheduleExact(ctx) {
		err := a.platform.RegisterExact(ctx, record)
		if err == nil {
			return ModeExact, nil
		}

		if !errors.Is(err, domain.ErrPermissionDenied) {
			return 0, fmt.Errorf("register exact timer: %w", err)
		}

		logger.WarnKV(ctx, "Exact alarm denied, falling back to inexact",
			"alarm_id", record.ID,
			"error", err)
	}

	if err := a.platform.RegisterInexact(ctx, record); err != nil {
		return 0, fmt.Errorf("register inexact timer: %w", err)
	}

	return ModeInexact, nil
}

// Unregister removes any registration for id.
func (a *Adapter) Unregister(ctx context.Context, id string) error {
	if err := a.platform.Unregister(ctx, id); err != nil {
		return fmt.Errorf("unregister timer: %w", err)
	}

	return nil
}

// Epoch returns the platform's registration epoch.
func (a *Adapter) Epoch(ctx context.Context) (string, error) {
	return a.platform.Epoch(ctx)
}
