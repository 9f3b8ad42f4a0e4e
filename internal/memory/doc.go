// Package memory provides an in-memory Datastore used for tests and
// ephemeral environments. It implements the same key and query semantics as
// the SQLite backend: entities are addressed by full key path and queries
// return results ordered by key path.
package memory
