package result

import "github.com/felixrdev/grant-tagging-system/internal/domain/grant"

// Result is the response to one advanced search. It is never merged with other results.
type Result struct {
	// ResolvedTags are the canonical tags the backend derived from the query.
	// They may differ from the tags the user selected.
	ResolvedTags []string      `json:"resolved_tags"`
	Grants       []grant.Grant `json:"grants"`
}

// Empty returns a result with no resolved tags and no grants.
func Empty() Result {
	return Result{ResolvedTags: []string{}, Grants: []grant.Grant{}}
}

// Len returns the number of matching grants.
func (r Result) Len() int { return len(r.Grants) }
