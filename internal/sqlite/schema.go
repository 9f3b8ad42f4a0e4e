// Package sqlite implements the SQLite Datastore backend.
// SQLite is the query engine; entities.jsonl in the data directory is the
// source of truth and is reloaded into a fresh database on every Attach.
package sqlite

// Schema DDL. key_path is the full root-to-leaf key (see types.Key.String);
// properties holds the codec-encoded property map as JSON.
const (
	createEntities = `CREATE TABLE entities (
    key_path TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    parent_path TEXT,
    properties TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxEntitiesKind   = `CREATE INDEX idx_entities_kind ON entities(kind);`
	idxEntitiesParent = `CREATE INDEX idx_entities_parent ON entities(parent_path);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createEntities,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxEntitiesKind,
	idxEntitiesParent,
}
