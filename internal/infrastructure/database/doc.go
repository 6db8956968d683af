// Package database provides SQLite connectivity for the inventory's
// optional sqlite storage backend.
//
// This package manages:
//   - Connection setup with WAL mode and busy timeout
//   - Forward-only schema migrations read from an fs.FS
//   - Transactions via InTx
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.ConfigFrom(cfg.Database))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
package database
