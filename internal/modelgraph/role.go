package modelgraph

// Role is the phase in which a rule's action is applied to its subject
// node. Buckets are applied in the declared order of the constants.
type Role int

const (
	// Defaults actions run first, before user mutations.
	Defaults Role = iota
	// Initialize actions run after defaults. No public rule kind maps to
	// this role; it exists for extension extractors.
	Initialize
	// Mutate actions are the ordinary configuration phase.
	Mutate
	// Finalize actions run after all mutations.
	Finalize
	// Validate actions observe the finalized value and may only reject it.
	Validate
	// Create actions run last; extension extractors use this role for
	// side registrations that must observe the fully validated value.
	Create
)

// numRoles sizes the per-node bucket arrays.
const numRoles = int(Create) + 1

// AllRoles lists every role in application order.
var AllRoles = []Role{Defaults, Initialize, Mutate, Finalize, Validate, Create}

// String returns the role name used in diagnostics.
func (r Role) String() string {
	switch r {
	case Defaults:
		return "defaults"
	case Initialize:
		return "initialize"
	case Mutate:
		return "mutate"
	case Finalize:
		return "finalize"
	case Validate:
		return "validate"
	case Create:
		return "create"
	}
	return "unknown"
}

// mutable reports whether actions in this role receive a writable subject
// view. Validation observes, never writes.
func (r Role) mutable() bool {
	return r != Validate
}
