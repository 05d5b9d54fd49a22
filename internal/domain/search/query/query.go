package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
)

// Query is a normalized discovery query: free text, a tag set and a match mode.
type Query struct {
	text string
	tags []string // sorted, unique, non-empty
	mode mode.Mode
}

// New validates and normalizes query parameters.
// Text is trimmed, empty tags are dropped, duplicates collapse and order is discarded.
// An empty mode defaults to mode.All.
func New(text string, tags []string, m mode.Mode) (Query, error) {
	if m == "" {
		m = mode.Default
	}
	if !m.IsValid() {
		return Query{}, domain.NewValidation("mode", fmt.Sprintf("must be %q or %q, got %q", mode.All, mode.Any, m))
	}

	set := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			set = append(set, t)
		}
	}
	slices.Sort(set)
	set = slices.Compact(set)

	return Query{
		text: strings.TrimSpace(text),
		tags: set,
		mode: m,
	}, nil
}

// Text returns the trimmed free-text part.
func (q Query) Text() string { return q.text }

// Tags returns a copy of the selected tags in sorted order.
func (q Query) Tags() []string { return slices.Clone(q.tags) }

// Mode returns the match mode.
func (q Query) Mode() mode.Mode { return q.mode }

// IsEmpty reports whether the query has neither text nor tags.
func (q Query) IsEmpty() bool { return q.text == "" && len(q.tags) == 0 }

// Key is a canonical identity: equal keys mean equivalent requests.
func (q Query) Key() string {
	return string(q.mode) + "\x00" + q.text + "\x00" + strings.Join(q.tags, "\x1f")
}

func (q Query) String() string {
	return fmt.Sprintf("q=%q tags=%v mode=%s", q.text, q.tags, q.mode)
}

// Source is where the discovery view takes its grants from: Browsing or Searching.
type Source interface {
	isSource()
}

// Browsing displays the full cached listing.
type Browsing struct{}

// Searching displays the result of an advanced search for Query.
type Searching struct {
	Query Query
}

func (Browsing) isSource()  {}
func (Searching) isSource() {}

// Compose selects the display source for q: searching when it has text or tags, browsing otherwise.
func Compose(q Query) Source {
	if q.IsEmpty() {
		return Browsing{}
	}
	return Searching{Query: q}
}

// SourceName is a stable label for a source, used in logs and JSON.
func SourceName(s Source) string {
	switch s.(type) {
	case Searching:
		return "search"
	default:
		return "browse"
	}
}
