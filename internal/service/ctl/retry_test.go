package ctl

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestRetry_UntilReachable keeps trying while the daemon is unavailable.
func TestRetry_UntilReachable(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var calls int

		start := time.Now()
		err := Retry(context.Background(), time.Second, func(context.Context) error {
			calls++
			if calls < 3 {
				return status.Error(codes.Unavailable, "connection refused")
			}

			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 3, calls)
		require.Equal(t, 2*time.Second, time.Since(start))
	})
}

// TestRetry_PermanentError stops at the first error that is not about reachability.
func TestRetry_PermanentError(t *testing.T) {
	t.Parallel()

	var calls int

	err := Retry(context.Background(), time.Second, func(context.Context) error {
		calls++

		return status.Error(codes.InvalidArgument, "bad id")
	})

	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Equal(t, 1, calls)
}

// TestRetry_Deadline gives up when the context ends.
func TestRetry_Deadline(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := Retry(ctx, time.Second, func(context.Context) error {
			return status.Error(codes.Unavailable, "connection refused")
		})

		require.True(t, Unreachable(err))
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.False(t, Unreachable(errors.New("plain")))
	})
}
