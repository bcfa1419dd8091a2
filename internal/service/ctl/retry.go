package ctl

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/reminder/internal/logger"
)

// DefaultRetryInterval is the delay between attempts to reach the daemon.
const DefaultRetryInterval = time.Second

// Unreachable reports whether err means the daemon could not be reached.
func Unreachable(err error) bool {
	return status.Code(err) == codes.Unavailable
}

// Retry calls attempt at once and then every interval while it fails with an
// Unreachable error. Other errors and success end the loop; so does ctx, in
// which case the last attempt error is returned.
func Retry(ctx context.Context, interval time.Duration, attempt func(ctx context.Context) error) error {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	err := attempt(ctx)
	if err == nil || !Unreachable(err) {
		return err
	}

	// Setup retry timer for subsequent attempts.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Retry loop until success or cancellation.
	for {
		logger.DebugKV(ctx, "Daemon unreachable, retrying", "error", err, "interval", interval)

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-ticker.C:
			err = attempt(ctx)
			if err == nil || !Unreachable(err) {
				return err
			}
		}
	}
}
