package grant

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInput_Normalize(t *testing.T) {
	in := Input{Name: "A", Description: "B"}.Normalize()
	if in.WebsiteURLs == nil || len(in.WebsiteURLs) != 0 {
		t.Errorf("WebsiteURLs = %#v, want empty non-nil", in.WebsiteURLs)
	}
	if in.DocumentURLs == nil || len(in.DocumentURLs) != 0 {
		t.Errorf("DocumentURLs = %#v, want empty non-nil", in.DocumentURLs)
	}
}

func TestInput_Normalize_KeepsOrder(t *testing.T) {
	in := Input{Name: "A", Description: "B", WebsiteURLs: []string{"https://b", "https://a"}}.Normalize()
	if diff := cmp.Diff([]string{"https://b", "https://a"}, in.WebsiteURLs); diff != "" {
		t.Errorf("WebsiteURLs mismatch (-want +got):\n%s", diff)
	}
}

func TestInput_Preview(t *testing.T) {
	g := Input{Name: "A", Description: "B"}.Preview()
	want := Grant{
		Name:         "A",
		Description:  "B",
		Tags:         []string{},
		WebsiteURLs:  []string{},
		DocumentURLs: []string{},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("Preview() mismatch (-want +got):\n%s", diff)
	}
}

func TestGrant_InputDropsTags(t *testing.T) {
	g := Grant{Name: "A", Description: "B", Tags: []string{"x"}, DocumentURLs: []string{"d"}}
	want := Input{Name: "A", Description: "B", WebsiteURLs: []string{}, DocumentURLs: []string{"d"}}
	if diff := cmp.Diff(want, g.Input()); diff != "" {
		t.Errorf("Input() mismatch (-want +got):\n%s", diff)
	}
}

func TestGrant_HasTag(t *testing.T) {
	g := Grant{Tags: []string{"soil", "water"}}
	if !g.HasTag("soil") {
		t.Error("expected HasTag(soil)")
	}
	if g.HasTag("Soil") {
		t.Error("HasTag is exact match")
	}
}
