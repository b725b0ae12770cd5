package redact

import "github.com/dyluth/veil/pkg/presence"

// DefaultMinimumIdentityLength is the shortest key treated as a participant
// identity during enumeration.
const DefaultMinimumIdentityLength = 16

// Policy selects which rewrites the Interceptor applies. Toggles are
// independent; no combination is invalid.
type Policy struct {
	// Pseudonymize replaces participant keys with pseudonyms.
	Pseudonymize bool

	// Pointer, Username and Selection strip the matching field on write.
	Pointer   bool
	Username  bool
	Selection bool

	// EnumerationDebug logs each entry presented during enumeration.
	EnumerationDebug bool

	// InterceptEntries applies enumeration rewriting to Entries as well as
	// ForEach. When false, Entries is a raw passthrough.
	InterceptEntries bool

	// MinimumIdentityLength gates enumeration-time pseudonymization.
	// Zero means DefaultMinimumIdentityLength.
	MinimumIdentityLength int
}

// DefaultPolicy pseudonymizes keys and strips pointer and username, keeping selections.
func DefaultPolicy() Policy {
	return Policy{
		Pseudonymize:          true,
		Pointer:               true,
		Username:              true,
		MinimumIdentityLength: DefaultMinimumIdentityLength,
	}
}

// strippedFields returns the value fields removed on write.
func (p Policy) strippedFields() []string {
	var fields []string
	if p.Pointer {
		fields = append(fields, presence.FieldPointer)
	}
	if p.Username {
		fields = append(fields, presence.FieldUsername)
	}
	if p.Selection {
		fields = append(fields, presence.FieldSelectedElementIDs)
	}
	return fields
}

// IdentityLength returns the effective minimum identity length.
func (p Policy) IdentityLength() int {
	if p.MinimumIdentityLength <= 0 {
		return DefaultMinimumIdentityLength
	}
	return p.MinimumIdentityLength
}
