// Package scheduler is the entry point for scheduling alarms.
//
// It keeps the OS timer registrations and the persisted records in step:
// scheduling registers first and persists second, cancelling unregisters
// first and removes second, and RescheduleAll rebuilds the registrations from
// the store after the timer facility lost them. Records are never deleted when
// they fire; RescheduleAll is the only place expired records are pruned.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/timer"
	repo "github.com/oshokin/reminder/internal/repository/alarm"
)

// Test alarm payload.
const (
	testAlarmTitle = "Test alarm"
	testAlarmBody  = "If you can hear this, alarms work."
)

// ErrEmptyID is returned when a record has no id.
var ErrEmptyID = errors.New("alarm id must not be empty")

// Timer is the OS timer adapter as seen by the scheduler.
type Timer interface {
	// CanScheduleExact reports whether exact alarms are currently permitted.
	CanScheduleExact(ctx context.Context) bool
	// RequestPermission asks the user to allow exact alarms.
	RequestPermission(ctx context.Context)
	// Register arranges the wake-up for record, exact when possible.
	Register(ctx context.Context, record domain.Record) (timer.Mode, error)
	// Unregister removes the wake-up for id.
	Unregister(ctx context.Context, id string) error
}

// Stopper silences the alarm that is currently firing.
type Stopper interface {
	// Stop returns the firing alarm to idle.
	Stop(ctx context.Context)
}

// Player plays the alarm tone for a bounded time.
type Player interface {
	// Start replaces the current sound with one bounded by ceiling.
	Start(ctx context.Context, ceiling time.Duration) error
}

// Options tune a Scheduler.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Scheduler coordinates the alarm store and the OS timer adapter.
type Scheduler struct {
	// repo persists alarm records.
	repo repo.Repository
	// timer registers OS wake-ups.
	timer Timer
	// stopper silences the firing alarm.
	stopper Stopper
	// player previews the alarm tone.
	player Player
	// now returns the current time.
	now func() time.Time
	// mu serializes the mutating operations.
	mu sync.Mutex
}

// New creates a scheduler.
func New(repository repo.Repository, t Timer, stopper Stopper, player Player, opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		repo:    repository,
		timer:   t,
		stopper: stopper,
		player:  player,
		now:     opts.Now,
	}
}

// Schedule registers the record with the timer facility, replacing any
// previous registration for its id, and persists it. TriggerAt is not
// checked: a past time fires as soon as the platform allows. When the
// registration fails nothing is persisted.
func (s *Scheduler) Schedule(ctx context.Context, record domain.Record) (timer.Mode, error) {
	if record.ID == "" {
		return 0, ErrEmptyID
	}

	ctx = logger.WithKV(ctx, "alarm_id", record.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.timer.Unregister(ctx, record.ID); err != nil {
		return 0, fmt.Errorf("replace alarm %s: %w", record.ID, err)
	}

	mode, err := s.timer.Register(ctx, record)
	if err != nil {
		return 0, fmt.Errorf("schedule alarm %s: %w", record.ID, err)
	}

	if err = s.repo.Put(ctx, record); err != nil {
		return mode, fmt.Errorf("persist alarm %s: %w", record.ID, err)
	}

	logger.InfoKV(ctx, "Alarm scheduled", "trigger_at", record.Time(), "mode", mode)

	return mode, nil
}

// Cancel unregisters and removes the alarm. Unknown ids are a no-op.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	ctx = logger.WithKV(ctx, "alarm_id", id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.timer.Unregister(ctx, id); err != nil {
		return fmt.Errorf("cancel alarm %s: %w", id, err)
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove alarm %s: %w", id, err)
	}

	logger.Info(ctx, "Alarm cancelled")

	return nil
}

// CancelAll unregisters every persisted alarm and clears the store.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list alarms: %w", err)
	}

	for _, record := range records {
		if err = s.timer.Unregister(ctx, record.ID); err != nil {
			return fmt.Errorf("cancel alarm %s: %w", record.ID, err)
		}
	}

	if err = s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear alarms: %w", err)
	}

	logger.InfoKV(ctx, "All alarms cancelled", "count", len(records))

	return nil
}

// RescheduleAll restores the registrations after they were lost. Records
// firing strictly after now are registered again and kept; the rest are
// dropped. A record whose registration fails is logged and kept so the next
// restore retries it. It returns the number of kept records.
func (s *Scheduler) RescheduleAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list alarms: %w", err)
	}

	var (
		now  = s.now()
		kept = make([]domain.Record, 0, len(records))
	)

	for _, record := range records {
		if !record.IsFuture(now) {
			logger.DebugKV(ctx, "Dropping expired alarm", "alarm_id", record.ID, "trigger_at", record.Time())

			continue
		}

		if _, err = s.timer.Register(ctx, record); err != nil {
			logger.WarnKV(ctx, "Failed to restore alarm, keeping it for the next restore",
				"alarm_id", record.ID,
				"error", err)
		}

		kept = append(kept, record)
	}

	if err = s.repo.ReplaceAll(ctx, kept); err != nil {
		return 0, fmt.Errorf("rewrite alarms: %w", err)
	}

	logger.InfoKV(ctx, "Alarms restored", "kept", len(kept), "dropped", len(records)-len(kept))

	return len(kept), nil
}

// StopCurrentAlarm silences the firing alarm, if any.
func (s *Scheduler) StopCurrentAlarm(ctx context.Context) {
	s.stopper.Stop(ctx)
}

// List returns the persisted alarms in insertion order.
func (s *Scheduler) List(ctx context.Context) ([]domain.Record, error) {
	records, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return records, nil
}

// CanScheduleExact reports whether exact alarms are currently permitted.
func (s *Scheduler) CanScheduleExact(ctx context.Context) bool {
	return s.timer.CanScheduleExact(ctx)
}

// RequestPermission asks the user to allow exact alarms and returns at once.
func (s *Scheduler) RequestPermission(ctx context.Context) {
	s.timer.RequestPermission(ctx)
}

// TestAlarm schedules the built-in test alarm a few seconds from now.
func (s *Scheduler) TestAlarm(ctx context.Context) (domain.Record, timer.Mode, error) {
	record := domain.Record{
		ID:        domain.TestAlarmID,
		TriggerAt: domain.Millis(s.now().Add(domain.TestAlarmDelay)),
		Title:     testAlarmTitle,
		Body:      testAlarmBody,
	}

	mode, err := s.Schedule(ctx, record)

	return record, mode, err
}

// PreviewTone plays the alarm tone for d.
func (s *Scheduler) PreviewTone(ctx context.Context, d time.Duration) error {
	if err := s.player.Start(ctx, d); err != nil {
		return fmt.Errorf("preview tone: %w", err)
	}

	return nil
}
