package shared

// DataMode is the lifecycle state of a soft-deleted record. Rows are never
// physically removed; deletion transitions the mode instead.
type DataMode string

const (
	ModeActive   DataMode = "A"
	ModeInactive DataMode = "I"
	ModeDeleted  DataMode = "D"
)

// ParseDataMode maps the stored single-character flag to a DataMode.
// Unknown values fall back to Active so a bad row never disappears silently.
func ParseDataMode(s string) DataMode {
	switch DataMode(s) {
	case ModeInactive:
		return ModeInactive
	case ModeDeleted:
		return ModeDeleted
	default:
		return ModeActive
	}
}

// String returns the single-character storage form.
func (m DataMode) String() string {
	return string(m)
}

// Valid reports whether m is one of the three known lifecycle states.
func (m DataMode) Valid() bool {
	return m == ModeActive || m == ModeInactive || m == ModeDeleted
}
