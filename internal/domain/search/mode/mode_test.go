package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{All, Any}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "ALL", "none", "hybrid"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestConstants(t *testing.T) {
	if All != "all" {
		t.Errorf("All = %q", All)
	}
	if Any != "any" {
		t.Errorf("Any = %q", Any)
	}
	if Default != All {
		t.Errorf("Default = %q, want %q", Default, All)
	}
}

func TestToggle(t *testing.T) {
	if All.Toggle() != Any {
		t.Errorf("All.Toggle() = %q", All.Toggle())
	}
	if Any.Toggle() != All {
		t.Errorf("Any.Toggle() = %q", Any.Toggle())
	}
}
