// Package database provides SQLite connectivity for the doorgate roster.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Embedded schema migrations (create-if-absent, idempotent)
//   - Connection lifecycle and health checks
//
// Security considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//   - Credentials are stored in plaintext; see DESIGN.md for why this
//     deliberately mirrors the reference system rather than hardening it
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
