// Package types defines the record schemas, the Record contract, storage keys,
// the Datastore interface, and the standard errors for the story server's
// entity-persistence layer.
//
// Records form two independent roots. Universe → Series → Story is the
// storage ancestry: a Story's key is parented by its Series, whose key is
// parented by its Universe. Author is a separate root referenced from Story
// by author_id; that reference never appears in a storage key.
package types
