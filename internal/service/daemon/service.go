package daemon

import (
	"context"
	"fmt"

	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/boot"
	"github.com/oshokin/reminder/internal/service/scheduler"
	"github.com/oshokin/reminder/internal/service/trigger"
)

// epochSource reports the current timer epoch.
type epochSource interface {
	// Epoch changes whenever the registrations are lost.
	Epoch(ctx context.Context) (string, error)
}

// Service is the daemon facade served by the transports.
type Service struct {
	*scheduler.Scheduler

	// handler is the alarm trigger handler.
	handler *trigger.Handler
	// epochs identifies the timer epoch.
	epochs epochSource
	// marker guards the once-per-epoch restore.
	marker *boot.Marker
}

func newService(
	sched *scheduler.Scheduler,
	handler *trigger.Handler,
	epochs epochSource,
	marker *boot.Marker,
) *Service {
	return &Service{
		Scheduler: sched,
		handler:   handler,
		epochs:    epochs,
		marker:    marker,
	}
}

// Fire hands a fired timer to the trigger handler.
func (s *Service) Fire(ctx context.Context, event trigger.Event) {
	s.handler.Fire(ctx, event)
}

// Status describes the trigger handler.
func (s *Service) Status(context.Context) trigger.Snapshot {
	return s.handler.Snapshot()
}

// BootCompleted reschedules every future alarm unless that already happened
// in the current timer epoch. It reports whether the restore ran and how many
// alarms are scheduled afterwards.
func (s *Service) BootCompleted(ctx context.Context) (bool, int, error) {
	ctx = logger.WithName(ctx, "boot")

	epoch, err := s.epochs.Epoch(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("read timer epoch: %w", err)
	}

	var kept int

	restored, err := s.marker.Once(ctx, epoch, func(ctx context.Context) error {
		var restoreErr error

		kept, restoreErr = s.RescheduleAll(ctx)

		return restoreErr
	})
	if err != nil {
		return restored, 0, fmt.Errorf("restore schedule: %w", err)
	}

	if !restored {
		records, listErr := s.List(ctx)
		if listErr != nil {
			return false, 0, fmt.Errorf("list alarms: %w", listErr)
		}

		logger.DebugKV(ctx, "Schedule already restored for this epoch", "epoch", epoch)

		return false, len(records), nil
	}

	logger.InfoKV(ctx, "Schedule restored", "epoch", epoch, "kept", kept)

	return true, kept, nil
}
