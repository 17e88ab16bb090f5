// Package sqlite provides the SQLite-backed implementations of the
// generation store and the chunk index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Both stores share one database connection:
//
//   - GenerationStore: generation records, one row per run
//   - ChunkIndex: chunk rows with their embeddings
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files; only the .up.sql files are applied, in version order.
//
// # Data Location
//
// By default, the database is stored at ~/.azurebridge/data/azurebridge.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite runs in WAL mode with a
// busy timeout so readers never block the single writer.
package sqlite
