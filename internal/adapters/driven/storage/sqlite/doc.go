// Package sqlite provides the SQLite-backed exemplar collection.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file can hold several
// named collections; each implements driven.ExemplarCollection.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Queries
//
// Metadata filters are evaluated in SQL as AND-ed equality predicates. Cosine
// similarity is computed in Go over the matching rows, which keeps the store
// free of native extensions. Collections of approved report sections are
// small enough for this to stay fast.
//
// # Data Location
//
// By default, the database is stored at ~/.sred/data/exemplars.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
