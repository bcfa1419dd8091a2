package alarm

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTitle replaces an empty title or body when an alarm is shown.
	DefaultTitle = "Reminder!"
	// TestAlarmID is the id used by the built-in test alarm.
	TestAlarmID = "test-alarm"
	// TestAlarmDelay is how far in the future the test alarm fires.
	TestAlarmDelay = 3 * time.Second
)

// Record is the durable description of a scheduled alarm.
type Record struct {
	// ID is the caller-chosen identity. At most one record exists per id.
	ID string `json:"id"`
	// TriggerAt is the absolute fire time in epoch milliseconds.
	TriggerAt int64 `json:"triggerAt"`
	// Title is shown when the alarm fires.
	Title string `json:"title"`
	// Body is shown under the title when the alarm fires.
	Body string `json:"body"`
}

// Time returns TriggerAt as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.TriggerAt)
}

// IsFuture reports whether the record fires strictly after now.
func (r Record) IsFuture(now time.Time) bool {
	return r.TriggerAt > now.UnixMilli()
}

// Millis converts t to the epoch-millisecond representation used by Record.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// NewID returns a fresh alarm id for callers that do not pick their own.
func NewID() string {
	return uuid.NewString()
}

// Reminder is either "no reminder" or a reminder at an absolute time bound to
// a notification id.
type Reminder struct {
	// notificationID identifies the alarm the reminder schedules.
	notificationID string
	// triggerAt is the fire time in epoch milliseconds.
	triggerAt int64
	// set distinguishes a reminder from NoReminder.
	set bool
}

// NoReminder returns the empty variant.
func NoReminder() Reminder {
	return Reminder{}
}

// NewReminder returns a reminder firing at triggerAt for the given notification id.
// An empty id gets a generated one.
func NewReminder(triggerAt int64, notificationID string) Reminder {
	if notificationID == "" {
		notificationID = NewID()
	}

	return Reminder{
		notificationID: notificationID,
		triggerAt:      triggerAt,
		set:            true,
	}
}

// IsSet reports whether r holds a reminder.
func (r Reminder) IsSet() bool {
	return r.set
}

// TriggerAt returns the fire time and whether the reminder is set.
func (r Reminder) TriggerAt() (int64, bool) {
	return r.triggerAt, r.set
}

// NotificationID returns the id of the alarm the reminder schedules.
func (r Reminder) NotificationID() string {
	return r.notificationID
}

// Record turns the reminder into an alarm record carrying the given payload.
// The second result is false for NoReminder.
func (r Reminder) Record(title, body string) (Record, bool) {
	if !r.set {
		return Record{}, false
	}

	return Record{
		ID:        r.notificationID,
		TriggerAt: r.triggerAt,
		Title:     title,
		Body:      body,
	}, true
}
