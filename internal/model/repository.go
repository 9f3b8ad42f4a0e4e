package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/euan-reid/story-server/internal/codec"
	"github.com/euan-reid/story-server/pkg/types"
)

// defaultConcurrency bounds parallel hydration of query results.
const defaultConcurrency = 8

// Repository is the record base: it saves records and answers lookups
// against one Datastore. It holds no mutable state and is safe for
// concurrent use.
type Repository struct {
	store       types.Datastore
	registry    *Registry
	log         *zap.Logger
	concurrency int
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. The default discards all output.
func WithLogger(log *zap.Logger) Option {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}

// WithConcurrency bounds how many records of one query result are hydrated
// in parallel. Values below one mean sequential hydration.
func WithConcurrency(n int) Option {
	return func(r *Repository) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// NewRepository returns a Repository over store.
func NewRepository(store types.Datastore, opts ...Option) *Repository {
	r := &Repository{
		store:       store,
		registry:    NewRegistry(),
		log:         zap.NewNop(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the kind registry.
func (r *Repository) Registry() *Registry {
	return r.registry
}

// Construct prepares an in-memory record: it assigns a new id when none is
// set, validates required fields, and resolves the storage parent from the
// record's ancestry reference. A missing ancestor fails with
// ErrAncestorUnresolved.
func (r *Repository) Construct(ctx context.Context, rec types.Record) error {
	desc, err := r.registry.Descriptor(rec.Kind())
	if err != nil {
		return err
	}
	if rec.Base().ID == uuid.Nil {
		rec.Base().ID = uuid.New()
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	return r.resolveParent(ctx, desc, rec)
}

// Save encodes the record's fields and upserts it under its storage key.
// An unset parent is resolved first. A record whose parent chain disagrees
// with its foreign keys, or whose id is already stored under another
// ancestor, is rejected with ErrInvalidRecord: ancestry references never
// change after creation. Store errors are returned unchanged.
func (r *Repository) Save(ctx context.Context, rec types.Record) error {
	desc, err := r.registry.Descriptor(rec.Kind())
	if err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if !desc.IsRoot() && rec.Parent() == nil {
		if err := r.resolveParent(ctx, desc, rec); err != nil {
			return err
		}
	} else if !r.chainResolved(rec) {
		return fmt.Errorf("%w: %s %s: parent chain does not match its references",
			types.ErrInvalidRecord, rec.Kind(), rec.Base().ID)
	}

	props, err := codec.Encode(rec.Fields())
	if err != nil {
		return fmt.Errorf("saving %s %s: %w", rec.Kind(), rec.Base().ID, err)
	}
	key := types.StorageKey(rec)
	if err := r.checkSingleKey(ctx, desc, rec.Base().ID, key); err != nil {
		return err
	}
	r.log.Debug("put", zap.Stringer("key", key))
	return r.store.Put(ctx, &types.Entity{Key: key, Properties: props})
}

// checkSingleKey fails if a record of desc's kind with id is stored under a
// key other than key. Root keys depend on the id alone and need no check.
func (r *Repository) checkSingleKey(ctx context.Context, desc *Descriptor, id uuid.UUID, key *types.Key) error {
	if desc.IsRoot() {
		return nil
	}
	stored, err := r.fetch(ctx, desc, types.FieldID, id, nil, 0)
	if err != nil {
		return err
	}
	for _, e := range stored {
		if !e.Key.Equal(key) {
			return fmt.Errorf("%w: %s %s is stored under %s, not %s",
				types.ErrInvalidRecord, desc.Kind, id, e.Key, key)
		}
	}
	return nil
}

// GetByID fetches a record by id. A missing record is reported as
// found == false with a nil error.
//
// Root kinds are fetched directly by key. For other kinds the full key
// depends on ancestors that are not known yet, so the record is located by
// an equality query on its id field.
func (r *Repository) GetByID(ctx context.Context, kind types.Kind, id uuid.UUID) (types.Record, bool, error) {
	desc, err := r.registry.Descriptor(kind)
	if err != nil {
		return nil, false, err
	}
	return r.getByID(ctx, desc, id)
}

// GetByIDRequired is GetByID with a missing record reported as ErrNotFound.
func (r *Repository) GetByIDRequired(ctx context.Context, kind types.Kind, id uuid.UUID) (types.Record, error) {
	rec, found, err := r.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s with id %s", types.ErrNotFound, kind, id)
	}
	return rec, nil
}

// Query returns every record of kind whose field equals value, ordered by
// storage key. Callers should treat the order as unspecified.
func (r *Repository) Query(ctx context.Context, kind types.Kind, field string, value any) ([]types.Record, error) {
	desc, err := r.registry.Descriptor(kind)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, desc, field, value)
}

// GetUnique returns the first record of kind whose field equals value.
// With several matches the one with the lowest storage key wins.
func (r *Repository) GetUnique(ctx context.Context, kind types.Kind, field string, value any) (types.Record, bool, error) {
	desc, err := r.registry.Descriptor(kind)
	if err != nil {
		return nil, false, err
	}
	return r.getUnique(ctx, desc, field, value)
}

// GetByName returns the record of kind with the given name.
func (r *Repository) GetByName(ctx context.Context, kind types.Kind, name string) (types.Record, bool, error) {
	return r.GetUnique(ctx, kind, types.FieldName, name)
}

// GetByLookup resolves a human-facing lookup string against the kind's
// default lookup field. For id lookups a malformed UUID is ErrInvalidID.
func (r *Repository) GetByLookup(ctx context.Context, kind types.Kind, value string) (types.Record, bool, error) {
	desc, err := r.registry.Descriptor(kind)
	if err != nil {
		return nil, false, err
	}
	return r.getByLookup(ctx, desc, value)
}

// ChildrenOf returns the records of childKind that reference parent through
// the foreign key childKind declares for parent's kind. This covers storage
// children (series of a universe) and cross-references (stories of an
// author) alike. Returns ErrNoRelationship if childKind has no such key.
func (r *Repository) ChildrenOf(ctx context.Context, parent types.Record, childKind types.Kind) ([]types.Record, error) {
	childDesc, err := r.registry.Descriptor(childKind)
	if err != nil {
		return nil, err
	}
	ref, ok := childDesc.ReferenceTo(parent.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: %s has no reference to %s", types.ErrNoRelationship, childKind, parent.Kind())
	}

	// Storage children of a fully resolved parent live under its key and
	// share it as their parent.
	var (
		knownParent types.Record
		ancestor    *types.Key
	)
	if childDesc.Ancestor != nil && *childDesc.Ancestor == ref && r.chainResolved(parent) {
		knownParent = parent
		ancestor = types.StorageKey(parent)
	}
	entities, err := r.fetch(ctx, childDesc, ref.Field, parent.Base().ID, ancestor, 0)
	if err != nil {
		return nil, err
	}
	return r.hydrateAll(ctx, childDesc, entities, knownParent)
}

// GetByKindAndID resolves kindName through the registry, then calls GetByID.
func (r *Repository) GetByKindAndID(ctx context.Context, kindName string, id uuid.UUID) (types.Record, bool, error) {
	desc, err := r.registry.Resolve(kindName)
	if err != nil {
		return nil, false, err
	}
	return r.getByID(ctx, desc, id)
}

// GetByKindAndName resolves kindName through the registry, then calls
// GetByName.
func (r *Repository) GetByKindAndName(ctx context.Context, kindName, name string) (types.Record, bool, error) {
	desc, err := r.registry.Resolve(kindName)
	if err != nil {
		return nil, false, err
	}
	return r.getUnique(ctx, desc, types.FieldName, name)
}

// GetByKindAndLookup resolves kindName through the registry, then calls
// GetByLookup.
func (r *Repository) GetByKindAndLookup(ctx context.Context, kindName, value string) (types.Record, bool, error) {
	desc, err := r.registry.Resolve(kindName)
	if err != nil {
		return nil, false, err
	}
	return r.getByLookup(ctx, desc, value)
}

// ChildrenByKind looks up a parent by kind name and default lookup value and
// lists its children of childKindName. A missing parent is ErrNotFound.
func (r *Repository) ChildrenByKind(ctx context.Context, kindName, lookup, childKindName string) ([]types.Record, error) {
	childDesc, err := r.registry.Resolve(childKindName)
	if err != nil {
		return nil, err
	}
	parent, found, err := r.GetByKindAndLookup(ctx, kindName, lookup)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s %q", types.ErrNotFound, kindName, lookup)
	}
	return r.ChildrenOf(ctx, parent, childDesc.Kind)
}

func (r *Repository) getByID(ctx context.Context, desc *Descriptor, id uuid.UUID) (types.Record, bool, error) {
	if !desc.IsRoot() {
		return r.getUnique(ctx, desc, types.FieldID, id)
	}

	key := types.NewKey(desc.Kind, id.String(), nil)
	r.log.Debug("get", zap.Stringer("key", key))
	e, err := r.store.Get(ctx, key)
	if errors.Is(err, types.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rec, err := r.hydrate(ctx, desc, e, nil)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (r *Repository) getUnique(ctx context.Context, desc *Descriptor, field string, value any) (types.Record, bool, error) {
	// Two results are enough to tell a unique match from several.
	entities, err := r.fetch(ctx, desc, field, value, nil, 2)
	if err != nil {
		return nil, false, err
	}
	if len(entities) == 0 {
		return nil, false, nil
	}
	if len(entities) > 1 {
		r.log.Warn("lookup matched several records; using the first",
			zap.String("kind", string(desc.Kind)),
			zap.String("field", field),
			zap.Stringer("key", entities[0].Key))
	}
	rec, err := r.hydrate(ctx, desc, entities[0], nil)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (r *Repository) getByLookup(ctx context.Context, desc *Descriptor, value string) (types.Record, bool, error) {
	if desc.DefaultLookupField != types.FieldID {
		return r.getUnique(ctx, desc, desc.DefaultLookupField, value)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q", types.ErrInvalidID, value)
	}
	return r.getByID(ctx, desc, id)
}

func (r *Repository) query(ctx context.Context, desc *Descriptor, field string, value any) ([]types.Record, error) {
	entities, err := r.fetch(ctx, desc, field, value, nil, 0)
	if err != nil {
		return nil, err
	}
	return r.hydrateAll(ctx, desc, entities, nil)
}

// fetch issues an equality query for field == value on desc's kind,
// optionally scoped to keys under ancestor and capped at limit results.
func (r *Repository) fetch(ctx context.Context, desc *Descriptor, field string, value any, ancestor *types.Key, limit int) ([]*types.Entity, error) {
	if !desc.HasField(field) {
		return nil, fmt.Errorf("%w: %s has no field %q", types.ErrInvalidFilter, desc.Kind, field)
	}
	v, err := codec.EncodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFilter, err)
	}
	r.log.Debug("query",
		zap.String("kind", string(desc.Kind)),
		zap.String("field", field))
	return r.store.Query(ctx, types.Query{
		Kind:     desc.Kind,
		Filters:  []types.Filter{{Field: field, Value: v}},
		Ancestor: ancestor,
		Limit:    limit,
	})
}

// hydrateAll decodes entities in parallel, preserving their order.
func (r *Repository) hydrateAll(ctx context.Context, desc *Descriptor, entities []*types.Entity, knownParent types.Record) ([]types.Record, error) {
	out := make([]types.Record, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, e := range entities {
		g.Go(func() error {
			rec, err := r.hydrate(gctx, desc, e, knownParent)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// hydrate rebuilds a typed record from a stored entity and resolves its
// parent chain. knownParent, when set, is used instead of a fetch if it is
// the record's ancestor.
func (r *Repository) hydrate(ctx context.Context, desc *Descriptor, e *types.Entity, knownParent types.Record) (types.Record, error) {
	rec := desc.New()
	if err := codec.Decode(e.Properties, rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidRecord, e.Key, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Key, err)
	}
	if rec.Base().ID.String() != e.Key.Name {
		return nil, fmt.Errorf("%w: %s stores id %s", types.ErrInvalidRecord, e.Key, rec.Base().ID)
	}

	if knownParent != nil {
		rec.SetParent(knownParent)
		if r.chainResolved(rec) {
			return rec, nil
		}
	}
	if err := r.resolveParent(ctx, desc, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// resolveParent sets rec's parent from its ancestry reference.
func (r *Repository) resolveParent(ctx context.Context, desc *Descriptor, rec types.Record) error {
	if desc.Ancestor == nil {
		rec.SetParent(nil)
		return nil
	}
	parentDesc, err := r.registry.Descriptor(desc.Ancestor.Kind)
	if err != nil {
		return err
	}
	parentID := referencedID(rec, desc.Ancestor.Field)
	parent, found, err := r.getByID(ctx, parentDesc, parentID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s %s references %s %s",
			types.ErrAncestorUnresolved, desc.Kind, rec.Base().ID, parentDesc.Kind, parentID)
	}
	rec.SetParent(parent)
	return nil
}

// chainResolved reports whether rec's parent chain is set all the way to
// the root and each link matches the child's ancestry reference.
func (r *Repository) chainResolved(rec types.Record) bool {
	desc, err := r.registry.Descriptor(rec.Kind())
	if err != nil {
		return false
	}
	p := rec.Parent()
	if desc.Ancestor == nil {
		return p == nil
	}
	if p == nil || p.Kind() != desc.Ancestor.Kind ||
		p.Base().ID != referencedID(rec, desc.Ancestor.Field) {
		return false
	}
	return r.chainResolved(p)
}

func referencedID(rec types.Record, field string) uuid.UUID {
	id, _ := rec.Fields()[field].(uuid.UUID)
	return id
}
