package model

import (
	"context"

	"github.com/google/uuid"

	"github.com/euan-reid/story-server/pkg/types"
)

// NewAuthor constructs an Author with a fresh id.
func (r *Repository) NewAuthor(ctx context.Context, name string) (*types.Author, error) {
	a := &types.Author{RecordBase: types.RecordBase{Name: name}}
	if err := r.Construct(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// NewUniverse constructs a Universe with a fresh id.
func (r *Repository) NewUniverse(ctx context.Context, name string) (*types.Universe, error) {
	u := &types.Universe{RecordBase: types.RecordBase{Name: name}}
	if err := r.Construct(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// NewSeries constructs a Series in the universe universeID. The universe
// must already be stored.
func (r *Repository) NewSeries(ctx context.Context, name string, universeID uuid.UUID) (*types.Series, error) {
	s := &types.Series{RecordBase: types.RecordBase{Name: name}, UniverseID: universeID}
	if err := r.Construct(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStory constructs a Story in the series seriesID by authorID. The
// series must already be stored; the author is not checked.
func (r *Repository) NewStory(ctx context.Context, name string, seriesID, authorID uuid.UUID) (*types.Story, error) {
	st := &types.Story{RecordBase: types.RecordBase{Name: name}, SeriesID: seriesID, AuthorID: authorID}
	if err := r.Construct(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
