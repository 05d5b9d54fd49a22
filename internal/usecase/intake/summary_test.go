package intake

import (
	"testing"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		grants []grant.Grant
		want   Summary
	}{
		{"empty", nil, Summary{}},
		{"shared tags", []grant.Grant{
			{Tags: []string{"soil", "agriculture"}},
			{Tags: []string{"soil", "water", "rural"}},
		}, Summary{Total: 2, UniqueTags: 4, AvgTags: 2.5}},
		{"untagged", []grant.Grant{{Tags: []string{}}}, Summary{Total: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Summarize(tc.grants); got != tc.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSummary_String(t *testing.T) {
	s := Summary{Total: 2, UniqueTags: 4, AvgTags: 2.5}
	want := "Total grants: 2\nUnique tags used: 4\nAverage tags per grant: 2.5"
	if s.String() != want {
		t.Errorf("String() = %q, want %q", s.String(), want)
	}
}
