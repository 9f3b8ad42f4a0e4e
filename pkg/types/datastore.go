package types

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Datastore is the store-client handle: a hierarchical key-value store of
// entities addressed by Key. Implementations must be safe for concurrent use
// by multiple in-flight requests. The handle is constructed and owned by the
// process entry point and passed explicitly to its users.
type Datastore interface {
	// Get fetches the entity stored under key.
	// Returns ErrNotFound if no entity exists at that key.
	Get(ctx context.Context, key *Key) (*Entity, error)

	// Put creates or replaces the entity stored under entity.Key.
	Put(ctx context.Context, entity *Entity) error

	// Query returns every entity of q.Kind matching all filters, ordered by
	// key path ascending. An empty result is not an error.
	Query(ctx context.Context, q Query) ([]*Entity, error)
}

// Backend is a Datastore with an explicit lifecycle. The process entry point
// attaches it once, shares it across requests, and detaches it on exit.
type Backend interface {
	Datastore

	// Attach connects the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	// After Detach, operations return ErrDatastoreDetached.
	Detach() error
}

// Entity is a stored record: its key and its encoded properties. Property
// values are restricted to the codec's primitive set.
type Entity struct {
	Key        *Key
	Properties map[string]any
}

// Filter is an equality predicate on one property.
type Filter struct {
	Field string
	Value any
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate returns ErrInvalidFilter if the field is not a plain identifier.
func (f Filter) Validate() error {
	if !fieldNamePattern.MatchString(f.Field) {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	return nil
}

// Query selects entities of one kind.
type Query struct {
	Kind     Kind
	Filters  []Filter
	Ancestor *Key // restrict to descendants of Ancestor when non-nil
	Limit    int  // zero means no limit
}

// Validate checks the kind and every filter.
func (q Query) Validate() error {
	if q.Kind == "" {
		return fmt.Errorf("%w: query has no kind", ErrInvalidFilter)
	}
	for _, f := range q.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Lookup and record errors.
var (
	ErrUnknownKind        = errors.New("unknown kind")
	ErrNotFound           = errors.New("record not found")
	ErrAncestorUnresolved = errors.New("ancestor not found")
	ErrInvalidID          = errors.New("invalid record ID")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrInvalidKey         = errors.New("invalid key")
	ErrNoRelationship     = errors.New("no relationship between kinds")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrKindMismatch       = errors.New("record kind does not match")
)

// Datastore lifecycle errors.
var (
	ErrDatastoreDetached = errors.New("datastore is detached")
	ErrAlreadyAttached   = errors.New("datastore is already attached")
)
