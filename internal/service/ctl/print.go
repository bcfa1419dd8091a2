package ctl

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	api "github.com/oshokin/reminder/internal/api/grpc/reminder"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// timeLayout formats alarm times in listings.
const timeLayout = "2006-01-02 15:04:05"

// Printer writes human readable command output.
type Printer struct {
	// out receives the output.
	out io.Writer
	// id colors alarm ids.
	id *color.Color
	// due colors alarms that already fired.
	due *color.Color
	// upcoming colors alarms still ahead.
	upcoming *color.Color
	// firing colors the firing state.
	firing *color.Color
	// muted colors secondary text.
	muted *color.Color
}

// NewPrinter returns a printer writing to out. Colors follow the terminal
// unless noColor is set.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	p := &Printer{
		out:      out,
		id:       color.New(color.FgCyan),
		due:      color.New(color.FgYellow),
		upcoming: color.New(color.FgGreen),
		firing:   color.New(color.FgRed, color.Bold),
		muted:    color.New(color.Faint),
	}

	if noColor {
		for _, c := range []*color.Color{p.id, p.due, p.upcoming, p.firing, p.muted} {
			c.DisableColor()
		}
	}

	return p
}

// Alarms lists records in insertion order.
func (p *Printer) Alarms(records []domain.Record, now time.Time) {
	if len(records) == 0 {
		_, _ = p.muted.Fprintln(p.out, "No alarms scheduled.")

		return
	}

	for _, record := range records {
		when := record.Time().In(now.Location()).Format(timeLayout)

		state := p.upcoming.Sprint("in " + record.Time().Sub(now).Round(time.Second).String())
		if !record.IsFuture(now) {
			state = p.due.Sprint("due")
		}

		title := record.Title
		if title == "" {
			title = domain.DefaultTitle
		}

		_, _ = fmt.Fprintf(p.out, "%s  %s  %-12s  %s\n", p.id.Sprint(record.ID), when, state, title)

		if record.Body != "" {
			_, _ = fmt.Fprintf(p.out, "    %s\n", p.muted.Sprint(record.Body))
		}
	}
}

// Scheduled reports a scheduled alarm.
func (p *Printer) Scheduled(resp *api.ScheduleResponse, now time.Time) {
	record := resp.Alarm.ToRecord()

	_, _ = fmt.Fprintf(p.out, "Scheduled %s at %s (%s)\n",
		p.id.Sprint(record.ID),
		record.Time().In(now.Location()).Format(timeLayout),
		resp.Mode)
}

// Status reports the trigger handler state.
func (p *Printer) Status(resp *api.StatusResponse) {
	if resp.Alarm == nil {
		_, _ = fmt.Fprintln(p.out, "Idle")

		return
	}

	title := resp.Alarm.Title
	if title == "" {
		title = domain.DefaultTitle
	}

	_, _ = fmt.Fprintf(p.out, "%s %s (%s)\n", p.firing.Sprint("Firing"), title, p.id.Sprint(resp.Alarm.ID))
}

// Permission reports whether exact alarms are allowed.
func (p *Printer) Permission(exact bool) {
	if exact {
		_, _ = fmt.Fprintln(p.out, p.upcoming.Sprint("Exact alarms are allowed."))

		return
	}

	_, _ = fmt.Fprintln(p.out, p.due.Sprint("Exact alarms are not allowed; alarms fire within the inexact window."))
}
