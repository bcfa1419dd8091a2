// Package migration embeds the SQL scripts of the SQLite alarm store.
// Scripts run in lexical order; the count of applied scripts is kept in
// pragma user_version.
package migration

import "embed"

// Scripts holds every *.sql migration.
//
//go:embed *.sql
var Scripts embed.FS
