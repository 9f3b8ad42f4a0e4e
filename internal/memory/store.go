package memory

import (
	"context"
	"maps"
	"reflect"
	"sort"
	"sync"

	"github.com/euan-reid/story-server/pkg/types"
)

var _ types.Backend = (*Store)(nil)

// Store implements types.Datastore with a map keyed by key path.
// Uses sync.RWMutex for thread-safe concurrent access.
type Store struct {
	mu   sync.RWMutex
	data map[string]*types.Entity
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]*types.Entity)}
}

// Attach validates config. The store holds no external resources, so it is
// usable without attaching; Attach exists to satisfy types.Backend.
func (s *Store) Attach(config types.Config) error {
	return config.Validate()
}

// Detach is a no-op; stored entities remain available.
func (s *Store) Detach() error {
	return nil
}

// Get returns a copy of the entity stored under key.
// Returns ErrNotFound if the key doesn't exist.
func (s *Store) Get(ctx context.Context, key *types.Key) (*types.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == nil {
		return nil, types.ErrInvalidKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key.String()]
	if !ok {
		return nil, types.ErrNotFound
	}
	return clone(e), nil
}

// Put stores a copy of entity, replacing any entity under the same key.
func (s *Store) Put(ctx context.Context, entity *types.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entity == nil || entity.Key == nil {
		return types.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[entity.Key.String()] = clone(entity)
	return nil
}

// Query scans all entities of q.Kind and returns those matching every filter.
func (s *Store) Query(ctx context.Context, q types.Query) ([]*types.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.data))
	for path, e := range s.data {
		if matches(e, q) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	if q.Limit > 0 && len(paths) > q.Limit {
		paths = paths[:q.Limit]
	}

	out := make([]*types.Entity, len(paths))
	for i, path := range paths {
		out[i] = clone(s.data[path])
	}
	return out, nil
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func matches(e *types.Entity, q types.Query) bool {
	if e.Key.Kind != q.Kind {
		return false
	}
	if q.Ancestor != nil && !e.Key.HasAncestor(q.Ancestor) {
		return false
	}
	for _, f := range q.Filters {
		v, ok := e.Properties[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

// clone copies the entity and its top-level property map. Nested values are
// shared; callers treat entities as read-only.
func clone(e *types.Entity) *types.Entity {
	return &types.Entity{
		Key:        e.Key,
		Properties: maps.Clone(e.Properties),
	}
}
