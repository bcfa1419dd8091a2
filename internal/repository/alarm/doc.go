// Package alarm persists scheduled alarm records.
//
// Two backends implement Repository: FileRepository keeps a single JSON
// document under the namespaced key "scheduled_alarms", and SQLiteRepository
// keeps one row per alarm in a SQLite database. Both serialize every operation
// with a mutex and re-read the medium on every call, so the store never relies
// on an in-memory copy.
package alarm
