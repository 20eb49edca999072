// Package storage persists the bot's known recipients.
//
// The only backend is a local SQLite file (modernc.org/sqlite, no cgo).
// The schema lives in migrations.sql and is applied on open; it is kept
// idempotent so restarts are cheap.
package storage
