package notify

import (
	"context"

	"github.com/oshokin/reminder/internal/config"
)

const (
	// StopAction is the action id reported when the user presses Stop.
	StopAction = "stop"
	// DefaultAction is the action id reported when the user taps the notification.
	DefaultAction = "default"
)

// Notice is the text of a notification.
type Notice struct {
	// Title is the notification summary.
	Title string
	// Body is the notification text.
	Body string
}

// Indicator is the user-visible side of a firing alarm.
type Indicator interface {
	// Show replaces the current alarm notification. onStop runs when the user
	// presses the Stop action or taps the notification.
	Show(ctx context.Context, notice Notice, onStop func()) error
	// Clear removes the alarm notification, if any.
	Clear(ctx context.Context)
	// Notify shows a transient notification without actions.
	Notify(ctx context.Context, notice Notice) error
}

// New returns the indicator selected by the configuration.
//
//nolint:ireturn // Callers only need the Indicator contract.
func New(kind string) Indicator {
	if kind == config.IndicatorNone {
		return Noop{}
	}

	return newDesktop()
}

// Noop is an Indicator that shows nothing.
type Noop struct{}

// Show does nothing.
func (Noop) Show(context.Context, Notice, func()) error { return nil }

// Clear does nothing.
func (Noop) Clear(context.Context) {}

// Notify does nothing.
func (Noop) Notify(context.Context, Notice) error { return nil }
