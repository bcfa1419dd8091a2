package reminder

import (
	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/service/trigger"
)

// Alarm is the wire form of an alarm record.
type Alarm struct {
	// ID is the alarm id. Empty on Schedule means "generate one".
	ID string `json:"id"`
	// TriggerAt is the fire time in epoch milliseconds.
	TriggerAt int64 `json:"trigger_at"`
	// Title is shown when the alarm fires.
	Title string `json:"title"`
	// Body is shown under the title.
	Body string `json:"body"`
}

// ScheduleRequest schedules one alarm.
type ScheduleRequest struct {
	// Alarm is the alarm to schedule.
	Alarm Alarm `json:"alarm"`
}

// ScheduleResponse reports the scheduled alarm.
type ScheduleResponse struct {
	// Alarm is the persisted alarm, with its id filled in.
	Alarm Alarm `json:"alarm"`
	// Mode is "exact" or "inexact".
	Mode string `json:"mode"`
}

// ListResponse lists the persisted alarms.
type ListResponse struct {
	// Alarms are in insertion order.
	Alarms []Alarm `json:"alarms"`
}

// FireRequest delivers a fired timer.
type FireRequest struct {
	// ID is the alarm id.
	ID string `json:"id"`
	// Title is the alarm title.
	Title string `json:"title"`
	// Body is the alarm text.
	Body string `json:"body"`
}

// StatusResponse describes the trigger handler.
type StatusResponse struct {
	// State is "idle" or "firing".
	State string `json:"state"`
	// Alarm is the firing alarm; nil when idle.
	Alarm *FireRequest `json:"alarm,omitempty"`
	// StartedAt is when the alarm started firing, in epoch milliseconds.
	StartedAt int64 `json:"started_at,omitempty"`
	// StopsAt is when the alarm stops by itself, in epoch milliseconds.
	StopsAt int64 `json:"stops_at,omitempty"`
	// Playing reports whether the sound is on.
	Playing bool `json:"playing"`
}

// BootCompletedResponse reports the schedule restore.
type BootCompletedResponse struct {
	// Restored is false when the schedule was already restored for this epoch.
	Restored bool `json:"restored"`
	// Kept is the number of alarms still scheduled after the restore.
	Kept int `json:"kept"`
}

// PreviewToneRequest plays the alarm tone.
type PreviewToneRequest struct {
	// DurationMillis is how long the tone plays.
	DurationMillis int64 `json:"duration_millis"`
}

// ToRecord converts the wire alarm to a domain record.
func (a Alarm) ToRecord() domain.Record {
	return domain.Record{
		ID:        a.ID,
		TriggerAt: a.TriggerAt,
		Title:     a.Title,
		Body:      a.Body,
	}
}

// FromRecord converts a domain record to the wire form.
func FromRecord(record domain.Record) Alarm {
	return Alarm{
		ID:        record.ID,
		TriggerAt: record.TriggerAt,
		Title:     record.Title,
		Body:      record.Body,
	}
}

// FromRecords converts a list of domain records.
func FromRecords(records []domain.Record) []Alarm {
	alarms := make([]Alarm, 0, len(records))
	for _, record := range records {
		alarms = append(alarms, FromRecord(record))
	}

	return alarms
}

// ToEvent converts the request to a trigger event.
func (r FireRequest) ToEvent() trigger.Event {
	return trigger.Event{
		ID:    r.ID,
		Title: r.Title,
		Body:  r.Body,
	}
}

// FromSnapshot converts a handler snapshot to the wire form.
func FromSnapshot(s trigger.Snapshot) *StatusResponse {
	resp := &StatusResponse{
		State:   s.State.String(),
		Playing: s.Playing,
	}

	if s.State == trigger.StateFiring {
		resp.Alarm = &FireRequest{ID: s.Alarm.ID, Title: s.Alarm.Title, Body: s.Alarm.Body}
		resp.StartedAt = domain.Millis(s.StartedAt)

		if !s.StopsAt.IsZero() {
			resp.StopsAt = domain.Millis(s.StopsAt)
		}
	}

	return resp
}
