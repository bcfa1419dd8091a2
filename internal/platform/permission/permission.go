// Package permission holds the user's grant for exact alarms.
//
// Exact alarms are allowed until the user revokes them. A revocation is a
// marker file in the data directory, so it survives restarts and is shared by
// reminderd and reminderctl.
package permission

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/reminder/internal/config"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/notify"
)

// requestNotice tells the user how to allow exact alarms.
//
//nolint:gochecknoglobals // Constant notification text.
var requestNotice = notify.Notice{
	Title: "Allow exact alarms",
	Body:  "Reminders may fire late. Run `reminderctl permission grant` to allow exact alarms.",
}

// Gate is the exact-alarm grant.
type Gate struct {
	// path is the denial marker file.
	path string
	// indicator shows the permission request.
	indicator notify.Indicator
}

// NewGate returns a gate backed by the marker at path.
// indicator may be nil when requests never need to be shown.
func NewGate(path string, indicator notify.Indicator) *Gate {
	if indicator == nil {
		indicator = notify.Noop{}
	}

	return &Gate{
		path:      filepath.Clean(path),
		indicator: indicator,
	}
}

// Granted reports whether exact alarms are allowed. It reads the marker on every call.
func (g *Gate) Granted(ctx context.Context) bool {
	_, err := os.Stat(g.path)

	switch {
	case err == nil:
		return false
	case errors.Is(err, os.ErrNotExist):
		return true
	default:
		logger.WarnKV(ctx, "Failed to read permission marker, assuming denied", "path", g.path, "error", err)

		return false
	}
}

// Grant allows exact alarms.
func (g *Gate) Grant() error {
	if err := os.Remove(g.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove permission marker: %w", err)
	}

	return nil
}

// Revoke forbids exact alarms.
func (g *Gate) Revoke() error {
	if err := os.MkdirAll(filepath.Dir(g.path), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	if err := os.WriteFile(g.path, nil, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write permission marker: %w", err)
	}

	return nil
}

// Request shows how to grant exact alarms and returns without waiting for the user.
func (g *Gate) Request(ctx context.Context) {
	if g.Granted(ctx) {
		return
	}

	logger.Info(ctx, "Requesting exact alarm permission")

	if err := g.indicator.Notify(ctx, requestNotice); err != nil {
		logger.WarnKV(ctx, "Failed to show permission request", "error", err)
	}
}
