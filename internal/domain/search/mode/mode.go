package mode

// Mode controls how selected tags are combined.
type Mode string

// Match mode constants.
const (
	// All is conjunctive: every selected tag must be present.
	All Mode = "all"
	// Any is disjunctive: at least one selected tag must be present.
	Any Mode = "any"
)

// Default is the mode used when none is chosen.
const Default = All

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == All || m == Any
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Any {
		return All
	}
	return Any
}
