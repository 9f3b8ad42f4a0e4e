package model

import (
	"context"

	"github.com/euan-reid/story-server/pkg/types"
)

// AuthorStories returns the stories written by a.
func (r *Repository) AuthorStories(ctx context.Context, a *types.Author) ([]*types.Story, error) {
	return Children[*types.Story](ctx, r, a)
}

// UniverseSeries returns the series set in u.
func (r *Repository) UniverseSeries(ctx context.Context, u *types.Universe) ([]*types.Series, error) {
	return Children[*types.Series](ctx, r, u)
}

// SeriesStories returns the stories in s.
func (r *Repository) SeriesStories(ctx context.Context, s *types.Series) ([]*types.Story, error) {
	return Children[*types.Story](ctx, r, s)
}

// SeriesUniverse returns the universe s is set in. The resolved parent is
// used when present.
func (r *Repository) SeriesUniverse(ctx context.Context, s *types.Series) (*types.Universe, error) {
	if u, ok := s.Parent().(*types.Universe); ok && u.ID == s.UniverseID {
		return u, nil
	}
	return Require[*types.Universe](ctx, r, s.UniverseID)
}

// StorySeries returns the series st belongs to.
func (r *Repository) StorySeries(ctx context.Context, st *types.Story) (*types.Series, error) {
	if s, ok := st.Parent().(*types.Series); ok && s.ID == st.SeriesID {
		return s, nil
	}
	return Require[*types.Series](ctx, r, st.SeriesID)
}

// StoryAuthor returns the author of st.
func (r *Repository) StoryAuthor(ctx context.Context, st *types.Story) (*types.Author, error) {
	return Require[*types.Author](ctx, r, st.AuthorID)
}
