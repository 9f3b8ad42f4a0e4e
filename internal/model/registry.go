package model

import (
	"fmt"
	"sort"

	"github.com/euan-reid/story-server/pkg/types"
)

// Reference is a foreign-key field pointing at a record of another kind.
type Reference struct {
	Field string
	Kind  types.Kind
}

// Descriptor describes one record kind.
type Descriptor struct {
	Kind types.Kind

	// DefaultLookupField is the field a human-facing lookup string is
	// matched against.
	DefaultLookupField string

	// Ancestor is the reference naming the storage parent, nil for roots.
	Ancestor *Reference

	// References lists every foreign key, including Ancestor.
	References []Reference

	newRecord func() types.Record
}

// New returns an empty record of this kind.
func (d *Descriptor) New() types.Record {
	return d.newRecord()
}

// IsRoot reports whether records of this kind have no storage parent.
func (d *Descriptor) IsRoot() bool {
	return d.Ancestor == nil
}

// ReferenceTo returns the foreign key this kind declares for records of
// kind, if any.
func (d *Descriptor) ReferenceTo(kind types.Kind) (Reference, bool) {
	for _, ref := range d.References {
		if ref.Kind == kind {
			return ref, true
		}
	}
	return Reference{}, false
}

// HasField reports whether field is part of this kind's stored schema.
func (d *Descriptor) HasField(field string) bool {
	_, ok := d.New().Fields()[field]
	return ok
}

var (
	seriesAncestor = Reference{Field: types.FieldUniverseID, Kind: types.KindUniverse}
	storyAncestor  = Reference{Field: types.FieldSeriesID, Kind: types.KindSeries}
)

// standardDescriptors is the closed set of record kinds.
var standardDescriptors = []*Descriptor{
	{
		Kind:               types.KindAuthor,
		DefaultLookupField: types.FieldID,
		newRecord:          func() types.Record { return &types.Author{} },
	},
	{
		Kind:               types.KindUniverse,
		DefaultLookupField: types.FieldID,
		newRecord:          func() types.Record { return &types.Universe{} },
	},
	{
		Kind:               types.KindSeries,
		DefaultLookupField: types.FieldID,
		Ancestor:           &seriesAncestor,
		References:         []Reference{seriesAncestor},
		newRecord:          func() types.Record { return &types.Series{} },
	},
	{
		Kind:               types.KindStory,
		DefaultLookupField: types.FieldID,
		Ancestor:           &storyAncestor,
		References: []Reference{
			storyAncestor,
			{Field: types.FieldAuthorID, Kind: types.KindAuthor},
		},
		newRecord: func() types.Record { return &types.Story{} },
	},
}

// Registry resolves kind names to descriptors. It is built once and is
// read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	byKind map[types.Kind]*Descriptor
	kinds  []types.Kind
}

// NewRegistry returns a registry over the standard record kinds.
func NewRegistry() *Registry {
	r := &Registry{byKind: make(map[types.Kind]*Descriptor, len(standardDescriptors))}
	for _, d := range standardDescriptors {
		r.byKind[d.Kind] = d
		r.kinds = append(r.kinds, d.Kind)
	}
	sort.Slice(r.kinds, func(i, j int) bool { return r.kinds[i] < r.kinds[j] })
	return r
}

// Kinds returns the known kinds in sorted order.
func (r *Registry) Kinds() []types.Kind {
	out := make([]types.Kind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// IsKnown reports whether name is exactly a registered kind name.
func (r *Registry) IsKnown(name string) bool {
	_, ok := r.byKind[types.Kind(name)]
	return ok
}

// Resolve returns the descriptor for name. Matching is exact and
// case-sensitive; "Story" and "stories" are not "story".
// Returns ErrUnknownKind when nothing matches.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	d, ok := r.byKind[types.Kind(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, name)
	}
	return d, nil
}

// Descriptor returns the descriptor for kind.
func (r *Registry) Descriptor(kind types.Kind) (*Descriptor, error) {
	return r.Resolve(string(kind))
}
