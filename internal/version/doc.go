// Package version exposes build metadata for reminderd and reminderctl.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
package version
