// Package notify shows firing alarms and one-off hints on the desktop.
//
// On Linux the indicator is a critical notify-send notification with a Stop
// action; on macOS it is an osascript notification without actions. Other
// platforms, and the "none" setting, use Noop.
package notify
