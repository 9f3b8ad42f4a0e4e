package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/euan-reid/story-server/pkg/types"
)

const upsertEntitySQL = `
	INSERT INTO entities (key_path, kind, name, parent_path, properties)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(key_path) DO UPDATE SET
		properties = excluded.properties`

// Get fetches the entity stored under key.
// Returns ErrNotFound if no entity exists at that key.
func (b *Backend) Get(ctx context.Context, key *types.Key) (*types.Entity, error) {
	if key == nil {
		return nil, types.ErrInvalidKey
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDatastoreDetached
	}

	var props string
	err := b.db.QueryRowContext(ctx,
		"SELECT properties FROM entities WHERE key_path = ?", key.String()).Scan(&props)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}

	m, err := decodeProperties(props)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &types.Entity{Key: key, Properties: m}, nil
}

// Put creates or replaces the entity stored under entity.Key.
func (b *Backend) Put(ctx context.Context, entity *types.Entity) error {
	if entity == nil || entity.Key == nil {
		return types.ErrInvalidKey
	}
	props, err := json.Marshal(entity.Properties)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", entity.Key, err)
	}
	if entity.Properties == nil {
		props = []byte("{}")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDatastoreDetached
	}

	key := entity.Key
	if _, err := b.db.ExecContext(ctx, upsertEntitySQL,
		key.String(), string(key.Kind), key.Name, parentPath(key), string(props)); err != nil {
		return fmt.Errorf("upserting %s: %w", key, err)
	}
	return b.persistAfterWrite(ctx)
}

// Query returns entities of q.Kind matching every filter, ordered by key path.
func (b *Backend) Query(ctx context.Context, q types.Query) ([]*types.Entity, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	stmt, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDatastoreDetached
	}

	rows, err := b.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Kind, err)
	}
	defer rows.Close()

	var out []*types.Entity
	for rows.Next() {
		var keyPath, props string
		if err := rows.Scan(&keyPath, &props); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", q.Kind, err)
		}
		key, err := types.ParseKey(keyPath)
		if err != nil {
			return nil, err
		}
		m, err := decodeProperties(props)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", keyPath, err)
		}
		out = append(out, &types.Entity{Key: key, Properties: m})
	}
	return out, rows.Err()
}

// buildQuery renders q as SQL. Field names are validated identifiers and are
// passed as JSON path parameters, never interpolated.
func buildQuery(q types.Query) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT key_path, properties FROM entities WHERE kind = ?")
	args := []any{string(q.Kind)}

	for _, f := range q.Filters {
		arg, err := filterArg(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%w: field %q: %v", types.ErrInvalidFilter, f.Field, err)
		}
		sb.WriteString(" AND json_extract(properties, ?) IS ?")
		args = append(args, "$."+f.Field, arg)
	}

	if q.Ancestor != nil {
		prefix := q.Ancestor.String() + "/"
		sb.WriteString(" AND substr(key_path, 1, ?) = ?")
		args = append(args, len(prefix), prefix)
	}

	sb.WriteString(" ORDER BY key_path")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return sb.String(), args, nil
}

// filterArg converts a filter value to the SQL value json_extract yields for
// the same stored JSON value.
func filterArg(v any) (any, error) {
	switch x := v.(type) {
	case nil, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("unsupported filter value type %T", v)
	}
}

// decodeProperties parses a stored property map. Numbers decode as int64
// when integral and float64 otherwise; timestamps come back as RFC 3339
// strings and are restored by the record decoder.
func decodeProperties(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		m[k] = normalizeNumbers(v)
	}
	return m, nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k])
		}
		return x
	default:
		return v
	}
}
