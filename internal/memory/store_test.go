package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euan-reid/story-server/pkg/types"
)

func TestStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	key := types.NewKey(types.KindAuthor, "a1", nil)

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.Put(ctx, &types.Entity{Key: key, Properties: map[string]any{"name": "Jane"}}))
	got, err := s.Get(ctx, types.NewKey(types.KindAuthor, "a1", nil))
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Properties["name"])

	// Upsert replaces.
	require.NoError(t, s.Put(ctx, &types.Entity{Key: key, Properties: map[string]any{"name": "Janet"}}))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Janet", got.Properties["name"])
	assert.Equal(t, 1, s.Len())
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	key := types.NewKey(types.KindAuthor, "a1", nil)
	props := map[string]any{"name": "Jane"}
	require.NoError(t, s.Put(ctx, &types.Entity{Key: key, Properties: props}))

	props["name"] = "mutated"
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Properties["name"])

	got.Properties["name"] = "mutated again"
	again, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Jane", again.Properties["name"])
}

func TestStoreKeysIncludeAncestry(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s1 := types.NewKey(types.KindSeries, "s1", nil)
	s2 := types.NewKey(types.KindSeries, "s2", nil)

	require.NoError(t, s.Put(ctx, &types.Entity{Key: types.NewKey(types.KindStory, "x", s1), Properties: map[string]any{"name": "one"}}))
	require.NoError(t, s.Put(ctx, &types.Entity{Key: types.NewKey(types.KindStory, "x", s2), Properties: map[string]any{"name": "two"}}))
	assert.Equal(t, 2, s.Len())

	_, err := s.Get(ctx, types.NewKey(types.KindStory, "x", nil))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := types.NewKey(types.KindUniverse, "u1", nil)
	for _, e := range []*types.Entity{
		{Key: types.NewKey(types.KindSeries, "b", u), Properties: map[string]any{"name": "Book", "universe_id": "u1"}},
		{Key: types.NewKey(types.KindSeries, "a", u), Properties: map[string]any{"name": "Book", "universe_id": "u1"}},
		{Key: types.NewKey(types.KindSeries, "c", nil), Properties: map[string]any{"name": "Other", "universe_id": "u2"}},
		{Key: types.NewKey(types.KindAuthor, "d", nil), Properties: map[string]any{"name": "Book"}},
	} {
		require.NoError(t, s.Put(ctx, e))
	}

	got, err := s.Query(ctx, types.Query{
		Kind:    types.KindSeries,
		Filters: []types.Filter{{Field: "name", Value: "Book"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Key.Name, "results ordered by key path")
	assert.Equal(t, "b", got[1].Key.Name)

	got, err = s.Query(ctx, types.Query{Kind: types.KindSeries, Ancestor: u})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Query(ctx, types.Query{Kind: types.KindSeries, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.Query(ctx, types.Query{
		Kind:    types.KindSeries,
		Filters: []types.Filter{{Field: "name", Value: "Missing"}},
	})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Query(ctx, types.Query{
		Kind:    types.KindSeries,
		Filters: []types.Filter{{Field: "name'); DROP", Value: "x"}},
	})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
}

func TestStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := types.NewKey(types.KindAuthor, string(rune('a'+i%26))+"-"+string(rune('0'+i/26)), nil)
			_ = s.Put(ctx, &types.Entity{Key: key, Properties: map[string]any{"n": i}})
			_, _ = s.Query(ctx, types.Query{Kind: types.KindAuthor})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestStoreHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore()
	_, err := s.Get(ctx, types.NewKey(types.KindAuthor, "a", nil))
	assert.ErrorIs(t, err, context.Canceled)
}
