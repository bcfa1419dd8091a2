// Package ical exports scheduled alarms as an iCalendar document.
//
// Every alarm becomes a zero-length VEVENT carrying a DISPLAY VALARM that
// triggers at the event start, so calendar applications remind the user at
// the same instant the daemon would.
package ical

import (
	"fmt"
	"io"
	"time"

	goical "github.com/emersion/go-ical"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/version"
)

const (
	// uidSuffix turns alarm ids into globally unique UIDs.
	uidSuffix = "@reminder"
	// triggerAtStart fires the VALARM at DTSTART.
	triggerAtStart = "PT0S"
)

// ProductID identifies the exporter in PRODID.
func ProductID() string {
	return "-//oshokin//reminder " + version.Short() + "//EN"
}

// Calendar builds the iCalendar document for records. stamp is used as DTSTAMP.
func Calendar(records []domain.Record, stamp time.Time) *goical.Calendar {
	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, ProductID())

	cal.Children = make([]*goical.Component, 0, len(records))
	for _, record := range records {
		cal.Children = append(cal.Children, event(record, stamp))
	}

	return cal
}

// Encode writes the iCalendar document for records to w.
func Encode(w io.Writer, records []domain.Record, stamp time.Time) error {
	if err := goical.NewEncoder(w).Encode(Calendar(records, stamp)); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}

	return nil
}

func event(record domain.Record, stamp time.Time) *goical.Component {
	title := record.Title
	if title == "" {
		title = domain.DefaultTitle
	}

	calEvent := goical.NewEvent()
	calEvent.Props.SetText(goical.PropUID, record.ID+uidSuffix)
	calEvent.Props.SetDateTime(goical.PropDateTimeStamp, stamp.UTC())
	calEvent.Props.SetDateTime(goical.PropDateTimeStart, record.Time().UTC())
	calEvent.Props.SetDateTime(goical.PropDateTimeEnd, record.Time().UTC())
	calEvent.Props.SetText(goical.PropSummary, title)

	if record.Body != "" {
		calEvent.Props.SetText(goical.PropDescription, record.Body)
	}

	calEvent.Children = append(calEvent.Children, valarm(title))

	return calEvent.Component
}

func valarm(title string) *goical.Component {
	alarm := goical.NewComponent(goical.CompAlarm)
	alarm.Props.SetText(goical.PropAction, "DISPLAY")
	alarm.Props.SetText(goical.PropDescription, title)

	trigger := goical.NewProp(goical.PropTrigger)
	trigger.SetValueType(goical.ValueDuration)
	trigger.Value = triggerAtStart
	alarm.Props.Set(trigger)

	return alarm
}
