package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Record is the contract every stored record type implements.
// Parent linkage is a back-reference only: a record never owns its parent,
// and the parent is always the unique storage ancestor implied by the
// record's ancestry reference (nil for root kinds).
type Record interface {
	// Kind returns the record's canonical kind. It must not depend on
	// receiver state so that it can be called on a nil pointer.
	Kind() Kind

	// Base returns the identity fields shared by all records.
	Base() *RecordBase

	// Parent returns the resolved storage parent, or nil.
	Parent() Record

	// SetParent records the resolved storage parent.
	SetParent(parent Record)

	// Fields returns the record's stored field mapping, keyed by field name.
	// Values are in-memory Go values; the codec converts them for the store.
	Fields() map[string]any

	// Validate checks required fields.
	Validate() error
}

// Field names shared by every record kind.
const (
	FieldID   = "id"
	FieldName = "name"
)

// RecordBase holds identity and parent linkage. Concrete records embed it.
type RecordBase struct {
	ID   uuid.UUID `json:"id" yaml:"id" mapstructure:"id"`
	Name string    `json:"name" yaml:"name" mapstructure:"name"`

	parent Record
}

// Base returns b.
func (b *RecordBase) Base() *RecordBase { return b }

// Parent returns the resolved storage parent, or nil.
func (b *RecordBase) Parent() Record { return b.parent }

// SetParent records the resolved storage parent.
func (b *RecordBase) SetParent(parent Record) { b.parent = parent }

func (b *RecordBase) fields() map[string]any {
	return map[string]any{
		FieldID:   b.ID,
		FieldName: b.Name,
	}
}

func (b *RecordBase) validate(kind Kind) error {
	if b.ID == uuid.Nil {
		return fmt.Errorf("%w: %s has no id", ErrInvalidRecord, kind)
	}
	if b.Name == "" {
		return fmt.Errorf("%w: %s %s", ErrInvalidName, kind, b.ID)
	}
	return nil
}

func requireRef(kind Kind, field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidRecord, kind, field)
	}
	return nil
}
