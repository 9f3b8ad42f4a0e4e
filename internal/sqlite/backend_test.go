// Tests for the SQLite backend lifecycle and entity operations.
package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/euan-reid/story-server/pkg/types"
)

func attachTemp(t *testing.T, sync string) (*Backend, string) {
	t.Helper()
	tmpDir := t.TempDir()
	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
		Sync:    sync,
	}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b, tmpDir
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	// Verify database file created
	dbPath := filepath.Join(tmpDir, dbFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", dbFileName)
	}

	// Verify double attach fails
	if err := b.Attach(config); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	b.Detach()
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()

	if err := b.Attach(types.Config{}); !errors.Is(err, types.ErrBackendEmpty) {
		t.Errorf("expected ErrBackendEmpty, got %v", err)
	}
	if err := b.Attach(types.Config{Backend: types.BackendMemory}); !errors.Is(err, types.ErrBackendUnknown) {
		t.Errorf("expected ErrBackendUnknown for memory config, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	ctx := context.Background()
	b, _ := attachTemp(t, "")

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	// Verify idempotent
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	// Verify operations fail after detach
	key := types.NewKey(types.KindAuthor, "a1", nil)
	if _, err := b.Get(ctx, key); err != types.ErrDatastoreDetached {
		t.Errorf("Get: expected ErrDatastoreDetached, got %v", err)
	}
	if err := b.Put(ctx, &types.Entity{Key: key}); err != types.ErrDatastoreDetached {
		t.Errorf("Put: expected ErrDatastoreDetached, got %v", err)
	}
	if _, err := b.Query(ctx, types.Query{Kind: types.KindAuthor}); err != types.ErrDatastoreDetached {
		t.Errorf("Query: expected ErrDatastoreDetached, got %v", err)
	}
}

func TestBackend_GetPut(t *testing.T) {
	ctx := context.Background()
	b, _ := attachTemp(t, "")

	key := types.NewKey(types.KindAuthor, "a1", nil)
	if _, err := b.Get(ctx, key); err != types.ErrNotFound {
		t.Fatalf("expected ErrNotFound before Put, got %v", err)
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	props := map[string]any{
		"id":    "a1",
		"name":  "Jane Doe",
		"score": 2.5,
		"count": int64(3),
		"ok":    true,
		"at":    at,
		"tags":  []any{"x", int64(1)},
		"meta":  map[string]any{"k": "v"},
		"none":  nil,
	}
	if err := b.Put(ctx, &types.Entity{Key: key, Properties: props}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := b.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Properties["name"] != "Jane Doe" {
		t.Errorf("name = %v", got.Properties["name"])
	}
	if got.Properties["score"] != 2.5 {
		t.Errorf("score = %#v", got.Properties["score"])
	}
	if got.Properties["count"] != int64(3) {
		t.Errorf("count = %#v", got.Properties["count"])
	}
	if got.Properties["ok"] != true {
		t.Errorf("ok = %#v", got.Properties["ok"])
	}
	if got.Properties["at"] != at.Format(time.RFC3339Nano) {
		t.Errorf("at = %#v", got.Properties["at"])
	}
	if tags, ok := got.Properties["tags"].([]any); !ok || len(tags) != 2 || tags[1] != int64(1) {
		t.Errorf("tags = %#v", got.Properties["tags"])
	}
	if v, ok := got.Properties["none"]; !ok || v != nil {
		t.Errorf("none = %#v (present %v)", v, ok)
	}

	// Upsert replaces the property set.
	if err := b.Put(ctx, &types.Entity{Key: key, Properties: map[string]any{"name": "Janet"}}); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	got, _ = b.Get(ctx, key)
	if got.Properties["name"] != "Janet" {
		t.Errorf("name after upsert = %v", got.Properties["name"])
	}
	if _, ok := got.Properties["score"]; ok {
		t.Error("upsert should replace the full property set")
	}
}

func TestBackend_KeysIncludeAncestry(t *testing.T) {
	ctx := context.Background()
	b, _ := attachTemp(t, "")

	s1 := types.NewKey(types.KindSeries, "s1", types.NewKey(types.KindUniverse, "u1", nil))
	s2 := types.NewKey(types.KindSeries, "s2", types.NewKey(types.KindUniverse, "u1", nil))
	k1 := types.NewKey(types.KindStory, "x", s1)
	k2 := types.NewKey(types.KindStory, "x", s2)

	b.Put(ctx, &types.Entity{Key: k1, Properties: map[string]any{"name": "one"}})
	b.Put(ctx, &types.Entity{Key: k2, Properties: map[string]any{"name": "two"}})

	e1, err := b.Get(ctx, k1)
	if err != nil {
		t.Fatalf("Get k1: %v", err)
	}
	e2, err := b.Get(ctx, k2)
	if err != nil {
		t.Fatalf("Get k2: %v", err)
	}
	if e1.Properties["name"] != "one" || e2.Properties["name"] != "two" {
		t.Errorf("same id under different parents must be distinct: %v %v", e1.Properties, e2.Properties)
	}
	if _, err := b.Get(ctx, types.NewKey(types.KindStory, "x", nil)); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound for parentless key, got %v", err)
	}
}

func TestBackend_Query(t *testing.T) {
	ctx := context.Background()
	b, _ := attachTemp(t, "")

	u1 := types.NewKey(types.KindUniverse, "u1", nil)
	u2 := types.NewKey(types.KindUniverse, "u2", nil)
	entities := []*types.Entity{
		{Key: types.NewKey(types.KindSeries, "b", u1), Properties: map[string]any{"name": "Book", "universe_id": "u1", "order": int64(2), "done": true}},
		{Key: types.NewKey(types.KindSeries, "a", u1), Properties: map[string]any{"name": "Book", "universe_id": "u1", "order": int64(1), "done": false}},
		{Key: types.NewKey(types.KindSeries, "c", u2), Properties: map[string]any{"name": "Other", "universe_id": "u2"}},
		{Key: types.NewKey(types.KindAuthor, "d", nil), Properties: map[string]any{"name": "Book"}},
	}
	for _, e := range entities {
		if err := b.Put(ctx, e); err != nil {
			t.Fatalf("Put %s: %v", e.Key, err)
		}
	}

	tests := []struct {
		name  string
		query types.Query
		want  []string
	}{
		{"by name ordered by key", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "name", Value: "Book"}}}, []string{"a", "b"}},
		{"by foreign key", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "universe_id", Value: "u2"}}}, []string{"c"}},
		{"by integer", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "order", Value: 2}}}, []string{"b"}},
		{"by uint64", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "order", Value: uint64(1)}}}, []string{"a"}},
		{"by bool", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "done", Value: false}}}, []string{"a"}},
		{"two filters", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "name", Value: "Book"}, {Field: "order", Value: 1}}}, []string{"a"}},
		{"by ancestor", types.Query{Kind: types.KindSeries, Ancestor: u2}, []string{"c"}},
		{"limit", types.Query{Kind: types.KindSeries, Limit: 2}, []string{"a", "b"}},
		{"no match", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "name", Value: "Missing"}}}, nil},
		{"missing field", types.Query{Kind: types.KindSeries, Filters: []types.Filter{{Field: "absent", Value: "x"}}}, nil},
		{"other kind", types.Query{Kind: types.KindAuthor, Filters: []types.Filter{{Field: "name", Value: "Book"}}}, []string{"d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			var names []string
			for _, e := range got {
				names = append(names, e.Key.Name)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("got %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("got %v, want %v", names, tt.want)
				}
			}
		})
	}
}

func TestBackend_QueryRejectsInvalidFilters(t *testing.T) {
	ctx := context.Background()
	b, _ := attachTemp(t, "")

	bad := []types.Query{
		{Kind: ""},
		{Kind: types.KindAuthor, Filters: []types.Filter{{Field: "name') OR 1=1 --", Value: "x"}}},
		{Kind: types.KindAuthor, Filters: []types.Filter{{Field: "tags", Value: []any{"x"}}}},
	}
	for _, q := range bad {
		if _, err := b.Query(ctx, q); !errors.Is(err, types.ErrInvalidFilter) {
			t.Errorf("Query(%+v): expected ErrInvalidFilter, got %v", q, err)
		}
	}
}
