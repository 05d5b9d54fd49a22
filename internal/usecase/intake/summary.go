package intake

import (
	"fmt"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
)

// Summary describes a batch of tagged grants.
type Summary struct {
	Total      int     `json:"total_grants"`
	UniqueTags int     `json:"unique_tags"`
	AvgTags    float64 `json:"average_tags_per_grant"`
}

// Summarize counts grants and tags. The average is zero for an empty batch.
func Summarize(grants []grant.Grant) Summary {
	unique := make(map[string]struct{})
	total := 0
	for _, g := range grants {
		total += len(g.Tags)
		for _, t := range g.Tags {
			unique[t] = struct{}{}
		}
	}
	s := Summary{Total: len(grants), UniqueTags: len(unique)}
	if len(grants) > 0 {
		s.AvgTags = float64(total) / float64(len(grants))
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Total grants: %d\nUnique tags used: %d\nAverage tags per grant: %.1f",
		s.Total, s.UniqueTags, s.AvgTags)
}
