package types

// Kind is the canonical lowercase name identifying a record's concrete type
// in the store (e.g. "author", "story").
type Kind string

// Record kinds. The set is closed.
const (
	KindAuthor   Kind = "author"
	KindUniverse Kind = "universe"
	KindSeries   Kind = "series"
	KindStory    Kind = "story"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}
