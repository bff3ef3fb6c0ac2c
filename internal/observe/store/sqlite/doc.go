// Package sqlite provides a SQLite-backed sample store with embedded schema
// migrations.
package sqlite
