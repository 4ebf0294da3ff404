// Package history persists every organizer outcome to a SQLite journal so
// past runs can be inspected with `shelve history`.
//
// The store follows the same conventions as the rest of shelve's storage:
// a single database file under the data directory, WAL journaling, a
// schema_version table checked at open, and bounded retries when SQLite
// reports the database as busy.
package history
