package types

import "github.com/google/uuid"

// Foreign-key field names.
const (
	FieldUniverseID = "universe_id"
	FieldSeriesID   = "series_id"
	FieldAuthorID   = "author_id"
)

// Author is an individual writer. Root record; stories reference it by
// author_id without it appearing in their storage keys.
type Author struct {
	RecordBase `mapstructure:",squash" yaml:",inline"`
}

// Kind returns KindAuthor.
func (*Author) Kind() Kind { return KindAuthor }

// Fields returns the stored field mapping.
func (a *Author) Fields() map[string]any { return a.fields() }

// Validate checks required fields.
func (a *Author) Validate() error { return a.validate(KindAuthor) }

// Universe is a setting one or more series take place in. Root record.
type Universe struct {
	RecordBase `mapstructure:",squash" yaml:",inline"`
}

// Kind returns KindUniverse.
func (*Universe) Kind() Kind { return KindUniverse }

// Fields returns the stored field mapping.
func (u *Universe) Fields() map[string]any { return u.fields() }

// Validate checks required fields.
func (u *Universe) Validate() error { return u.validate(KindUniverse) }

// Series is an ordered group of stories set in exactly one Universe.
// UniverseID is immutable after creation and names the storage parent.
type Series struct {
	RecordBase `mapstructure:",squash" yaml:",inline"`
	UniverseID uuid.UUID `json:"universe_id" yaml:"universe_id" mapstructure:"universe_id"`
}

// Kind returns KindSeries.
func (*Series) Kind() Kind { return KindSeries }

// Fields returns the stored field mapping.
func (s *Series) Fields() map[string]any {
	f := s.fields()
	f[FieldUniverseID] = s.UniverseID
	return f
}

// Validate checks required fields.
func (s *Series) Validate() error {
	if err := s.validate(KindSeries); err != nil {
		return err
	}
	return requireRef(KindSeries, FieldUniverseID, s.UniverseID)
}

// Story is a single piece of writing. SeriesID names the storage parent;
// AuthorID is a cross-reference only.
type Story struct {
	RecordBase `mapstructure:",squash" yaml:",inline"`
	AuthorID   uuid.UUID `json:"author_id" yaml:"author_id" mapstructure:"author_id"`
	SeriesID   uuid.UUID `json:"series_id" yaml:"series_id" mapstructure:"series_id"`
}

// Kind returns KindStory.
func (*Story) Kind() Kind { return KindStory }

// Title returns the story's name.
func (s *Story) Title() string { return s.Name }

// Fields returns the stored field mapping.
func (s *Story) Fields() map[string]any {
	f := s.fields()
	f[FieldAuthorID] = s.AuthorID
	f[FieldSeriesID] = s.SeriesID
	return f
}

// Validate checks required fields.
func (s *Story) Validate() error {
	if err := s.validate(KindStory); err != nil {
		return err
	}
	if err := requireRef(KindStory, FieldAuthorID, s.AuthorID); err != nil {
		return err
	}
	return requireRef(KindStory, FieldSeriesID, s.SeriesID)
}

// Compile-time checks.
var (
	_ Record = (*Author)(nil)
	_ Record = (*Universe)(nil)
	_ Record = (*Series)(nil)
	_ Record = (*Story)(nil)
)
