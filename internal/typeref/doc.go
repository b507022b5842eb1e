// Package typeref describes the types rules declare for subjects, inputs,
// and managed properties.
//
// A Ref is an explicit descriptor tree: a concrete cty primitive, a
// collection of an element Ref, a reference to a named managed type
// (optionally parameterized), or a type variable. Variables are resolved by
// explicit unification against concrete cty types; the resulting Binding is
// shared so that one substitution (e.g. t = string for a declared
// list(t)) is visible to every other reference captured by the same node.
package typeref
