// Package inproc is a timer platform living inside reminderd.
//
// Registrations sit on a min-heap ordered by fire time. The run loop never
// sleeps longer than MaxSleep, so wall-clock steps and suspend/resume are
// noticed within a minute. Registrations die with the process, which is why
// the epoch is a fresh id per Registry.
package inproc

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/timer"
)

// MaxSleep caps a single wait of the run loop.
const MaxSleep = 60 * time.Second

// Gate is the exact-alarm grant consulted by the registry.
type Gate interface {
	// Granted reports whether exact alarms are allowed.
	Granted(ctx context.Context) bool
	// Request asks the user to allow exact alarms.
	Request(ctx context.Context)
}

// FireFunc receives the record of a registration that came due.
type FireFunc func(ctx context.Context, record domain.Record)

// Options tune a Registry.
type Options struct {
	// InexactWindow is the batching window of inexact registrations.
	InexactWindow time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Registration describes a pending wake-up.
type Registration struct {
	// Record is the payload delivered when the registration fires.
	Record domain.Record
	// At is when the registration fires.
	At time.Time
	// Mode is the precision it was registered with.
	Mode timer.Mode
}

// Registry is an in-process timer platform.
type Registry struct {
	// gate holds the exact-alarm grant.
	gate Gate
	// fire receives due registrations.
	fire FireFunc
	// window is the inexact batching window.
	window time.Duration
	// now returns the current time.
	now func() time.Time
	// epoch identifies this registry's lifetime.
	epoch string
	// wake interrupts the run loop after a change.
	wake chan struct{}
	// mu guards queue and byKey.
	mu sync.Mutex
	// queue orders registrations by fire time.
	queue entryQueue
	// byKey maps registration keys to queue entries.
	byKey map[uint32]*entry
}

var _ timer.Platform = (*Registry)(nil)

// New creates a registry delivering due registrations to fire.
func New(gate Gate, fire FireFunc, opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Registry{
		gate:   gate,
		fire:   fire,
		window: opts.InexactWindow,
		now:    opts.Now,
		epoch:  uuid.NewString(),
		wake:   make(chan struct{}, 1),
		byKey:  make(map[uint32]*entry),
	}
}

// CanScheduleExact reports the current grant.
func (r *Registry) CanScheduleExact(ctx context.Context) bool {
	return r.gate.Granted(ctx)
}

// RequestPermission forwards to the gate.
func (r *Registry) RequestPermission(ctx context.Context) {
	r.gate.Request(ctx)
}

// RegisterExact schedules a wake-up at record.TriggerAt.
// The grant is re-checked because it may be revoked after the capability check.
func (r *Registry) RegisterExact(ctx context.Context, record domain.Record) error {
	if !r.gate.Granted(ctx) {
		return domain.ErrPermissionDenied
	}

	r.put(record, record.Time(), timer.ModeExact)

	return nil
}

// RegisterInexact schedules a wake-up at the first window boundary at or after record.TriggerAt.
func (r *Registry) RegisterInexact(_ context.Context, record domain.Record) error {
	r.put(record, r.roundUp(record.Time()), timer.ModeInexact)

	return nil
}

// Unregister removes the registration sharing id's key.
func (r *Registry) Unregister(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byKey[timer.Key(id)]; ok {
		heap.Remove(&r.queue, e.index)
		delete(r.byKey, e.key)
	}

	return nil
}

// Epoch returns the per-process id of this registry.
func (r *Registry) Epoch(context.Context) (string, error) {
	return r.epoch, nil
}

// Pending returns the registrations that have not fired, earliest first.
func (r *Registry) Pending() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Registration, 0, len(r.queue))
	for _, e := range r.queue {
		result = append(result, Registration{
			Record: e.record,
			At:     e.at,
			Mode:   e.mode,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].At.Before(result[j].At)
	})

	return result
}

// Run delivers due registrations until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "timer")

	for {
		for _, record := range r.popDue() {
			logger.InfoKV(ctx, "Timer fired", "alarm_id", record.ID)
			r.fire(ctx, record)
		}

		t := time.NewTimer(r.nextSleep())

		select {
		case <-ctx.Done():
			t.Stop()

			return nil
		case <-r.wake:
			t.Stop()
		case <-t.C:
		}
	}
}

// put inserts or replaces the registration for record's key and wakes the loop.
func (r *Registry) put(record domain.Record, at time.Time, mode timer.Mode) {
	key := timer.Key(record.ID)

	r.mu.Lock()
	if e, ok := r.byKey[key]; ok {
		e.record, e.at, e.mode = record, at, mode
		heap.Fix(&r.queue, e.index)
	} else {
		e = &entry{key: key, record: record, at: at, mode: mode}
		heap.Push(&r.queue, e)
		r.byKey[key] = e
	}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// popDue removes and returns every registration due at the current time.
func (r *Registry) popDue() []domain.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		now = r.now()
		due []domain.Record
	)

	for len(r.queue) > 0 && !r.queue[0].at.After(now) {
		e, _ := heap.Pop(&r.queue).(*entry)
		delete(r.byKey, e.key)
		due = append(due, e.record)
	}

	return due
}

// nextSleep returns how long the loop may wait, capped at MaxSleep.
func (r *Registry) nextSleep() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) == 0 {
		return MaxSleep
	}

	return min(max(r.queue[0].at.Sub(r.now()), 0), MaxSleep)
}

// roundUp moves t to the next window boundary.
func (r *Registry) roundUp(t time.Time) time.Time {
	if r.window <= 0 {
		return t
	}

	rounded := t.Truncate(r.window)
	if rounded.Before(t) {
		rounded = rounded.Add(r.window)
	}

	return rounded
}

// entry is a queued registration.
type entry struct {
	record domain.Record
	at     time.Time
	mode   timer.Mode
	key    uint32
	index  int
}

type entryQueue []*entry

var _ heap.Interface = (*entryQueue)(nil)

func (q entryQueue) Len() int {
	return len(q)
}

func (q entryQueue) Less(i, j int) bool {
	return q[i].at.Before(q[j].at)
}

func (q entryQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *entryQueue) Push(x any) {
	e, _ := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *entryQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]

	return e
}
