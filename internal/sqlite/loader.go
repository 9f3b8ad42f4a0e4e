// This file implements JSONL loading at Attach and persistence after writes.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/euan-reid/story-server/pkg/types"
)

// loadJSONL reads entities.jsonl from dataDir and inserts each entity into
// the entities table. Loading is transactional: all succeed or the database
// remains empty. Malformed lines, unparseable keys, and records whose kind
// disagrees with their key are skipped. When a key appears twice the later
// line wins. Unknown fields are ignored.
func loadJSONL(db *sql.DB, dataDir string) (int, error) {
	records, err := readJSONL(filepath.Join(dataDir, entitiesJSONL))
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", entitiesJSONL, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertEntitySQL)
	if err != nil {
		return 0, fmt.Errorf("preparing entity insert: %w", err)
	}
	defer stmt.Close()

	var loaded int
	for _, rec := range records {
		var e entityJSON
		if err := json.Unmarshal(rec, &e); err != nil {
			continue
		}
		key, err := types.ParseKey(e.Key)
		if err != nil || string(key.Kind) != e.Kind {
			continue
		}
		props := bytes.TrimSpace(e.Properties)
		if len(props) == 0 || props[0] != '{' {
			continue
		}
		if _, err := stmt.Exec(key.String(), string(key.Kind), key.Name, parentPath(key), string(props)); err != nil {
			continue
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// persistJSONL rewrites entities.jsonl from the entities table, ordered by
// key path.
func persistJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	rows, err := db.QueryContext(ctx, "SELECT key_path, kind, properties FROM entities ORDER BY key_path")
	if err != nil {
		return fmt.Errorf("querying entities for persist: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var keyPath, kind, props string
		if err := rows.Scan(&keyPath, &kind, &props); err != nil {
			return fmt.Errorf("scanning entity for persist: %w", err)
		}
		b, err := json.Marshal(entityJSON{
			Key:        keyPath,
			Kind:       kind,
			Properties: json.RawMessage(props),
		})
		if err != nil {
			return fmt.Errorf("marshaling entity %s: %w", keyPath, err)
		}
		records = append(records, b)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, entitiesJSONL), records)
}

// parentPath returns the parent's key path, or nil for root keys.
func parentPath(key *types.Key) any {
	if key.Parent == nil {
		return nil
	}
	return key.Parent.String()
}
