package discovery

import (
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/query"
)

// Empty-state texts shown when there is nothing to display.
const (
	EmptyNoGrants     = "No grants yet"
	EmptyNoGrantsHint = "Get started by adding some grants."
	EmptyNoMatch      = "No matching grants"
	EmptyNoMatchHint  = "Try adjusting your search or filters, or add some grants first."
)

// State is an immutable snapshot of what the presentation layer renders.
type State struct {
	RawText      string
	SelectedTags []string
	Mode         mode.Mode
	Source       query.Source

	DisplayGrants []grant.Grant
	// ResolvedTags is always empty while browsing.
	ResolvedTags  []string
	AvailableTags []string

	GrantsLoading bool
	TagsLoading   bool
	// Searching is true while the response for the current query is outstanding.
	Searching bool

	// EmptyMessage and EmptyHint are set only when DisplayGrants is empty
	// and nothing is loading.
	EmptyMessage string
	EmptyHint    string
}

// IsSearch reports whether the display follows a search rather than the listing.
func (s State) IsSearch() bool {
	_, ok := s.Source.(query.Searching)
	return ok
}

// HasFilters reports whether there is anything for ClearFilters to reset.
func (s State) HasFilters() bool {
	return s.RawText != "" || len(s.SelectedTags) > 0
}
