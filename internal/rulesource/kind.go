package rulesource

import "strings"

// Kind is the closed enumeration of rule kinds a method can be tagged with.
type Kind int

const (
	// Model creates a new model element.
	Model Kind = iota
	// Defaults mutates a subject before ordinary mutations.
	Defaults
	// Mutate is the ordinary configuration kind.
	Mutate
	// Finalize mutates a subject after all ordinary mutations.
	Finalize
	// Validate observes the finalized subject and may reject it.
	Validate
	// Rules applies a nested rule source to the subject.
	Rules
	// ComponentType registers a component type with the build model.
	ComponentType
	// BinaryType registers a binary type with the build model.
	BinaryType
	// LanguageType registers a language type with the build model.
	LanguageType
)

// AllKinds lists every kind in the fixed documented order. Diagnostics that
// enumerate the closed set must use this order.
var AllKinds = []Kind{Model, Defaults, Mutate, Finalize, Validate, Rules, ComponentType, BinaryType, LanguageType}

var kindNames = map[Kind]string{
	Model:         "model",
	Defaults:      "defaults",
	Mutate:        "mutate",
	Finalize:      "finalize",
	Validate:      "validate",
	Rules:         "rules",
	ComponentType: "component_type",
	BinaryType:    "binary_type",
	LanguageType:  "language_type",
}

// String returns the kind's manifest name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindByName resolves a manifest kind name.
func KindByName(name string) (Kind, bool) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, true
		}
	}
	return 0, false
}

// KindNames returns every kind name in the fixed documented order.
func KindNames() []string {
	names := make([]string, len(AllKinds))
	for i, kind := range AllKinds {
		names[i] = kind.String()
	}
	return names
}

// KindSetString renders the closed set for the mutual-exclusion diagnostic.
func KindSetString() string {
	return "[" + strings.Join(KindNames(), ", ") + "]"
}
