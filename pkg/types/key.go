package types

import (
	"fmt"
	"strings"
)

// keySeparator joins path elements in Key.String. Kinds and identifiers never
// contain it: kinds are fixed lowercase words and identifiers are UUID strings.
const keySeparator = "/"

// Key is a record's physical storage address: its kind, its identifier, and
// the key of its storage parent. Keys form a strict path that mirrors the
// Universe → Series → Story ancestry, so two records of the same kind and id
// under different ancestors have different keys.
type Key struct {
	Kind   Kind
	Name   string
	Parent *Key
}

// PathElement is one (kind, name) step of a key path.
type PathElement struct {
	Kind Kind
	Name string
}

// NewKey returns a key for kind and name under parent. Parent may be nil.
func NewKey(kind Kind, name string, parent *Key) *Key {
	return &Key{Kind: kind, Name: name, Parent: parent}
}

// Path returns the key's elements in root-to-leaf order.
func (k *Key) Path() []PathElement {
	if k == nil {
		return nil
	}
	var depth int
	for p := k; p != nil; p = p.Parent {
		depth++
	}
	path := make([]PathElement, depth)
	for p := k; p != nil; p = p.Parent {
		depth--
		path[depth] = PathElement{Kind: p.Kind, Name: p.Name}
	}
	return path
}

// String encodes the key path as kind/name pairs joined by "/", root first.
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	path := k.Path()
	parts := make([]string, 0, 2*len(path))
	for _, el := range path {
		parts = append(parts, string(el.Kind), el.Name)
	}
	return strings.Join(parts, keySeparator)
}

// Equal reports whether k and other address the same path.
func (k *Key) Equal(other *Key) bool {
	for a, b := k, other; ; a, b = a.Parent, b.Parent {
		if a == nil || b == nil {
			return a == b
		}
		if a.Kind != b.Kind || a.Name != b.Name {
			return false
		}
	}
}

// HasAncestor reports whether ancestor is a strict ancestor of k.
func (k *Key) HasAncestor(ancestor *Key) bool {
	if k == nil || ancestor == nil {
		return false
	}
	for p := k.Parent; p != nil; p = p.Parent {
		if p.Equal(ancestor) {
			return true
		}
	}
	return false
}

// ParseKey decodes the output of Key.String.
// Returns ErrInvalidKey if the path is empty, has an odd number of elements,
// or contains an empty element.
func ParseKey(s string) (*Key, error) {
	if s == "" {
		return nil, ErrInvalidKey
	}
	parts := strings.Split(s, keySeparator)
	if len(parts)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	var k *Key
	for i := 0; i < len(parts); i += 2 {
		if parts[i] == "" || parts[i+1] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, s)
		}
		k = NewKey(Kind(parts[i]), parts[i+1], k)
	}
	return k, nil
}

// StorageKey derives a record's key from its kind, its id, and the key of its
// resolved parent. The parent must already be resolved for non-root records;
// see Record.Parent.
func StorageKey(r Record) *Key {
	var parent *Key
	if p := r.Parent(); p != nil {
		parent = StorageKey(p)
	}
	return NewKey(r.Kind(), r.Base().ID.String(), parent)
}
