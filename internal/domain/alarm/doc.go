// Package alarm contains the domain types of the alarm scheduling subsystem.
//
// A Record is the durable description of one alarm: a caller-chosen id, an
// absolute fire time in epoch milliseconds and the display payload shown when
// it fires. Reminder is the optional reminder attached to a note, modelled as
// an explicit variant so "no reminder" never hides behind a zero time.
package alarm
