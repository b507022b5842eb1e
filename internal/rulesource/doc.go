// Package rulesource describes plugin-authored rule sources.
//
// A Definition is a structural descriptor of a rule source: its declared
// base, fields, bean-style properties, and methods, each method tagged with
// at most one rule kind. Definitions are assembled through an explicit
// builder surface rather than discovered by runtime introspection, which
// keeps the set of recognizable rule kinds closed and the validation
// contract explicit.
//
// The Factory instantiates definitions, synthesizing trivial backing
// storage for abstract property declarations. The Handlers registry maps
// the implementation names referenced by manifests to compiled Go bodies.
package rulesource
