// Package timer is the OS timer adapter of the scheduler.
//
// A Platform is a raw timer facility (the in-process registry or systemd user
// timers). Adapter wraps one and applies the degradation policy: exact
// registration when the platform allows it, inexact otherwise, with a
// permission failure on the exact path downgrading on the spot.
package timer
