// Package trigger reacts to a fired timer: it sounds the alarm, shows the
// indicator with a Stop action and returns to idle when the user stops the
// alarm or the ceiling passes.
package trigger

import (
	"context"
	"sync"
	"time"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/notify"
)

// titlePrefix marks alarm notifications.
const titlePrefix = "🔔 "

// State is the handler state.
type State int

const (
	// StateIdle means no alarm is firing.
	StateIdle State = iota
	// StateFiring means an alarm is sounding.
	StateFiring
)

// String returns the lower-case name of the state.
func (s State) String() string {
	if s == StateFiring {
		return "firing"
	}

	return "idle"
}

// Event is the payload carried by a fired timer.
type Event struct {
	// ID is the alarm id.
	ID string
	// Title is the alarm title.
	Title string
	// Body is the alarm text.
	Body string
}

// EventFromRecord builds the event a registration of record delivers.
func EventFromRecord(record domain.Record) Event {
	return Event{
		ID:    record.ID,
		Title: record.Title,
		Body:  record.Body,
	}
}

// Notice returns the indicator text for the event.
func (e Event) Notice() notify.Notice {
	title, body := e.Title, e.Body
	if title == "" {
		title = domain.DefaultTitle
	}

	if body == "" {
		body = domain.DefaultTitle
	}

	return notify.Notice{
		Title: titlePrefix + title,
		Body:  body,
	}
}

// Player is the playback side of the handler.
type Player interface {
	// Start replaces the current session with one bounded by ceiling.
	Start(ctx context.Context, ceiling time.Duration) error
	// Stop ends the current session.
	Stop(ctx context.Context)
	// IsPlaying reports whether a session is active.
	IsPlaying() bool
}

// Snapshot describes the handler at one instant.
type Snapshot struct {
	// State is idle or firing.
	State State
	// Alarm is the firing alarm; empty when idle.
	Alarm Event
	// StartedAt is when the alarm started firing.
	StartedAt time.Time
	// StopsAt is when the alarm stops by itself.
	StopsAt time.Time
	// Playing reports whether the sound is on.
	Playing bool
}

// Handler is the alarm trigger handler.
type Handler struct {
	// player sounds the alarm.
	player Player
	// indicator shows the firing alarm.
	indicator notify.Indicator
	// ceiling bounds how long an alarm fires.
	ceiling time.Duration
	// mu guards the fields below.
	mu sync.Mutex
	// state is the current state.
	state State
	// current is the firing alarm.
	current Event
	// startedAt is when current started firing.
	startedAt time.Time
	// autoStop returns to idle at the ceiling.
	autoStop *time.Timer
	// generation numbers firings so a stale Stop action or auto-stop is ignored.
	generation uint64
}

// New creates a handler.
func New(player Player, indicator notify.Indicator, ceiling time.Duration) *Handler {
	return &Handler{
		player:    player,
		indicator: indicator,
		ceiling:   ceiling,
	}
}

// Fire sounds the alarm described by event, replacing any alarm already firing.
// Playback and indicator failures are logged; the handler still enters the
// firing state so the alarm can be stopped.
func (h *Handler) Fire(ctx context.Context, event Event) {
	ctx = logger.WithKV(logger.WithName(ctx, "trigger"), "alarm_id", event.ID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateFiring {
		logger.InfoKV(ctx, "Replacing firing alarm", "previous_id", h.current.ID)
	}

	h.disarmLocked()
	h.generation++

	var (
		generation = h.generation
		timerCtx   = context.WithoutCancel(ctx)
	)

	if err := h.player.Start(ctx, h.ceiling); err != nil {
		logger.WarnKV(ctx, "Alarm sound is unavailable", "error", err)
	}

	onStop := func() {
		logger.Info(timerCtx, "Stop pressed on the alarm notification")
		h.stopGeneration(timerCtx, generation)
	}

	if err := h.indicator.Show(ctx, event.Notice(), onStop); err != nil {
		logger.WarnKV(ctx, "Failed to show alarm notification", "error", err)
	}

	h.state = StateFiring
	h.current = event
	h.startedAt = time.Now()

	if h.ceiling > 0 {
		h.autoStop = time.AfterFunc(h.ceiling, func() {
			logger.Info(timerCtx, "Alarm ceiling reached")
			h.stopGeneration(timerCtx, generation)
		})
	}

	logger.Info(ctx, "Alarm firing")
}

// Stop silences the current alarm and returns to idle. It is a no-op when idle.
func (h *Handler) Stop(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked(ctx)
}

// Snapshot returns the current state.
func (h *Handler) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := Snapshot{
		State:   h.state,
		Playing: h.player.IsPlaying(),
	}

	if h.state == StateFiring {
		snapshot.Alarm = h.current
		snapshot.StartedAt = h.startedAt

		if h.ceiling > 0 {
			snapshot.StopsAt = h.startedAt.Add(h.ceiling)
		}
	}

	return snapshot
}

// stopGeneration stops the firing numbered generation if it is still current.
func (h *Handler) stopGeneration(ctx context.Context, generation uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.generation != generation {
		return
	}

	h.stopLocked(ctx)
}

func (h *Handler) stopLocked(ctx context.Context) {
	h.disarmLocked()
	h.generation++
	h.player.Stop(ctx)

	if h.state == StateIdle {
		return
	}

	h.indicator.Clear(ctx)
	logger.InfoKV(ctx, "Alarm stopped", "alarm_id", h.current.ID)

	h.state = StateIdle
	h.current = Event{}
	h.startedAt = time.Time{}
}

func (h *Handler) disarmLocked() {
	if h.autoStop != nil {
		h.autoStop.Stop()
		h.autoStop = nil
	}
}
