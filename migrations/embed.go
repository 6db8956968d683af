// Package migrations embeds the SQLite schema for the sqlite storage backend.
package migrations

import "embed"

// FS holds the *.up.sql files applied by database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
