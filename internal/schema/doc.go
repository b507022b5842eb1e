// Package schema validates the structure of the types rules operate on.
//
// Managed types are declared through an explicit builder surface and
// registered on a Store. The Store classifies any type reference as a plain
// value, a managed type, or a collection, recursively validating nested
// managed properties. Diagnostics carry the full dependency trail from the
// originating type down to the offending one, so two runs over the same
// declarations produce identical messages.
package schema
