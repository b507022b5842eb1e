// Package extract turns rule source definitions into executable model
// registrations.
//
// Extraction is a single deterministic pass: every member of a definition
// is classified as a rule or a non-rule, every classified rule is validated
// against the structural contract of its kind, and every violation found
// anywhere in the definition is collected into one aggregated error. Only a
// fully valid definition yields rules; the resulting set applies creators
// and role-bucketed actions to a model registry.
//
// Kind-specific validation and rule building live behind the KindExtractor
// interface so extension points (component, binary, and language type
// registration) plug in with the same aggregate-violations contract.
package extract
