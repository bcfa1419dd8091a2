// Package daemon hosts the reminder scheduling core.
//
// It wires the alarm store, the OS timer platform, the trigger handler and
// the playback controller together, restores the schedule once per timer
// epoch and serves the result over gRPC and, optionally, HTTP.
package daemon
