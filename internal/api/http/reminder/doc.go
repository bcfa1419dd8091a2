// Package reminder exposes the reminder daemon as a JSON HTTP API.
//
// Routes mirror the gRPC AlarmService: alarms are scheduled, listed and
// cancelled under /v1/alarms, the firing alarm is inspected and stopped under
// /v1/alarm, and the exact alarm permission is read and requested under
// /v1/permission.
package reminder
