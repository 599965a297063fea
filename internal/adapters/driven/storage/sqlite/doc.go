// Package sqlite provides a persistent VectorIndex backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Chunks are stored in one table keyed by collection and chunk id, with the
// embedding as a little-endian float32 blob and the metadata as JSON.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Querying
//
// On open, every chunk of the collection is loaded into an in-memory index which
// serves Query, Get and Count. Writes go to the database first and are applied to
// the in-memory index only after the transaction commits.
//
// # Data Location
//
// The database is stored at <data_dir>/index.db.
package sqlite
