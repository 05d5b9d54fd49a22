package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
)

func validationPath(t *testing.T, err error) string {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T: %v", err, err)
	}
	return verr.Path
}

func TestDecodeGrants_Valid(t *testing.T) {
	data := []byte(`[{"grant_name":"A","grant_description":"B","tags":["x"],"website_urls":[],"document_urls":["d"]}]`)

	got, err := New().DecodeGrants(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []grant.Grant{{
		Name:         "A",
		Description:  "B",
		Tags:         []string{"x"},
		WebsiteURLs:  []string{},
		DocumentURLs: []string{"d"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeGrants mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeGrants_NormalizesMissingURLs(t *testing.T) {
	got, err := New().DecodeGrants([]byte(`[{"grant_name":"A","grant_description":"B","tags":[]}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].WebsiteURLs == nil || got[0].DocumentURLs == nil {
		t.Errorf("URL sequences must never be nil: %+v", got[0])
	}
	if got[0].Tags == nil {
		t.Error("empty tags must decode as an empty sequence")
	}
}

func TestDecodeGrants_Failures(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantPath string
	}{
		{"missing tags", `[{"grant_name":"A","grant_description":"B"}]`, "[0].tags"},
		{"null tags", `[{"grant_name":"A","grant_description":"B","tags":null}]`, "[0].tags"},
		{"missing name", `[{"grant_description":"B","tags":[]}]`, "[0].grant_name"},
		{"second element", `[{"grant_name":"A","grant_description":"B","tags":[]},{"grant_name":"C","tags":[]}]`, "[1].grant_description"},
		{"tags not array", `[{"grant_name":"A","grant_description":"B","tags":"x"}]`, "[0].tags"},
		{"object instead of array", `{"grant_name":"A"}`, ""},
		{"null", `null`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().DecodeGrants([]byte(tc.data))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if got := validationPath(t, err); got != tc.wantPath {
				t.Errorf("path = %q, want %q (err: %v)", got, tc.wantPath, err)
			}
		})
	}
}

func TestDecodeTags(t *testing.T) {
	tags, err := New().DecodeTags([]byte(`["stem","agriculture"]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"stem", "agriculture"}, tags); diff != "" {
		t.Errorf("DecodeTags mismatch (-want +got):\n%s", diff)
	}

	if _, err := New().DecodeTags([]byte(`["stem", 3]`)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for non-string tag, got %v", err)
	}
	if _, err := New().DecodeTags([]byte(`null`)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for null, got %v", err)
	}
}

func TestDecodeSearchResult(t *testing.T) {
	data := []byte(`{"resolved_tags":["agriculture","soil"],"grants":[{"grant_name":"A","grant_description":"B","tags":["soil"]}]}`)

	res, err := New().DecodeSearchResult(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"agriculture", "soil"}, res.ResolvedTags); diff != "" {
		t.Errorf("ResolvedTags mismatch (-want +got):\n%s", diff)
	}
	if res.Len() != 1 || res.Grants[0].Name != "A" {
		t.Errorf("unexpected grants: %+v", res.Grants)
	}
}

func TestDecodeSearchResult_Failures(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantPath string
	}{
		{"missing resolved_tags", `{"grants":[]}`, "resolved_tags"},
		{"missing grants", `{"resolved_tags":[]}`, "grants"},
		{"grant without tags", `{"resolved_tags":[],"grants":[{"grant_name":"A","grant_description":"B"}]}`, "grants[0].tags"},
		{"array instead of object", `[]`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().DecodeSearchResult([]byte(tc.data))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if got := validationPath(t, err); got != tc.wantPath {
				t.Errorf("path = %q, want %q (err: %v)", got, tc.wantPath, err)
			}
		})
	}
}

func TestDecodeInputs_Valid(t *testing.T) {
	inputs, err := New().DecodeInputs([]byte(`[{"grant_name":"A","grant_description":"B"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []grant.Input{{Name: "A", Description: "B", WebsiteURLs: []string{}, DocumentURLs: []string{}}}
	if diff := cmp.Diff(want, inputs); diff != "" {
		t.Errorf("DecodeInputs mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInputs_MalformedJSON(t *testing.T) {
	_, err := New().DecodeInputs([]byte(`[{"grant_name": "A",`))
	if !errors.Is(err, domain.ErrUserInput) {
		t.Fatalf("expected ErrUserInput, got %v", err)
	}
	if errors.Is(err, domain.ErrValidation) {
		t.Error("malformed JSON must not be reported as a validation failure")
	}
}

func TestDecodeInputs_Failures(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantPath string
	}{
		{"empty name", `[{"grant_name":"","grant_description":"B"}]`, "[0].grant_name"},
		{"missing description", `[{"grant_name":"A"}]`, "[0].grant_description"},
		{"name not string", `[{"grant_name":1,"grant_description":"B"}]`, "[0].grant_name"},
		{"not an array", `{"grant_name":"A","grant_description":"B"}`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().DecodeInputs([]byte(tc.data))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if got := validationPath(t, err); got != tc.wantPath {
				t.Errorf("path = %q, want %q (err: %v)", got, tc.wantPath, err)
			}
		})
	}
}

func TestValidateInputs_FirstViolation(t *testing.T) {
	_, err := New().ValidateInputs([]grant.Input{
		{Name: "A", Description: "B"},
		{Name: "", Description: ""},
	})
	if got := validationPath(t, err); got != "[1].grant_name" {
		t.Errorf("path = %q, want first violated constraint [1].grant_name", got)
	}
}
