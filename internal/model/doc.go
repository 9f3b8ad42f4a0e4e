// Package model maps typed records onto a Datastore.
//
// A Registry holds one Descriptor per record kind: how to construct it, which
// field is its default lookup key, and which foreign-key fields reference
// other kinds (one of which, for non-root kinds, names the storage parent).
// A Repository uses those descriptors to save records under keys derived from
// their ancestry, to fetch them by id, name, or default lookup, and to list
// the children of a record. Fetched records always have their parent chain
// resolved; a dangling ancestor reference is an ErrAncestorUnresolved error.
package model
