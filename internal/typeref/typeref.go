package typeref

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind discriminates the variants of a type reference.
type Kind int

const (
	// Invalid is the zero Kind; it doubles as the "void" return type.
	Invalid Kind = iota
	// Primitive is a concrete cty type (string, number, bool, or any).
	Primitive
	// List is a cty list of an element reference.
	List
	// Set is a cty set of an element reference.
	Set
	// Map is a cty map of an element reference.
	Map
	// Named references a managed type declared in the schema store.
	Named
	// Variable is a type variable bound by unification.
	Variable
)

// Ref is one node of a type-descriptor tree.
type Ref struct {
	kind Kind
	prim cty.Type
	elem *Ref
	name string
	args []Ref
}

// Void is the return "type" of methods that return nothing.
var Void = Ref{}

// Prim wraps a concrete cty type.
func Prim(t cty.Type) Ref {
	return Ref{kind: Primitive, prim: t}
}

// Any is the dynamic pseudo-type; it unifies with everything and binds nothing.
func Any() Ref {
	return Prim(cty.DynamicPseudoType)
}

// ListOf builds a list reference.
func ListOf(elem Ref) Ref {
	return Ref{kind: List, elem: &elem}
}

// SetOf builds a set reference.
func SetOf(elem Ref) Ref {
	return Ref{kind: Set, elem: &elem}
}

// MapOf builds a map reference.
func MapOf(elem Ref) Ref {
	return Ref{kind: Map, elem: &elem}
}

// NamedType references a managed type, optionally parameterized.
func NamedType(name string, args ...Ref) Ref {
	return Ref{kind: Named, name: name, args: args}
}

// Var introduces a type variable.
func Var(name string) Ref {
	return Ref{kind: Variable, name: name}
}

// Kind returns the variant of the reference.
func (r Ref) Kind() Kind {
	return r.kind
}

// IsVoid reports whether the reference is the void return type.
func (r Ref) IsVoid() bool {
	return r.kind == Invalid
}

// Name returns the managed type or variable name, or "".
func (r Ref) Name() string {
	return r.name
}

// Args returns the type arguments of a Named reference.
func (r Ref) Args() []Ref {
	return r.args
}

// Elem returns the element reference of a collection, or Void.
func (r Ref) Elem() Ref {
	if r.elem == nil {
		return Void
	}
	return *r.elem
}

// IsParameterized reports whether the reference is a named type carrying
// type arguments.
func (r Ref) IsParameterized() bool {
	return r.kind == Named && len(r.args) > 0
}

// HasVariables reports whether any node of the tree is a type variable.
func (r Ref) HasVariables() bool {
	switch r.kind {
	case Variable:
		return true
	case List, Set, Map:
		return r.elem.HasVariables()
	case Named:
		for _, a := range r.args {
			if a.HasVariables() {
				return true
			}
		}
	}
	return false
}

// Equal checks structural equality of two references.
func (r Ref) Equal(other Ref) bool {
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case Invalid:
		return true
	case Primitive:
		return r.prim.Equals(other.prim)
	case List, Set, Map:
		return r.elem.Equal(*other.elem)
	case Variable:
		return r.name == other.name
	case Named:
		if r.name != other.name || len(r.args) != len(other.args) {
			return false
		}
		for i, a := range r.args {
			if !a.Equal(other.args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the canonical form used in diagnostics and in the string
// form of rule methods: primitives by their cty friendly name, collections
// in constructor syntax, named types with angle-bracketed arguments.
func (r Ref) String() string {
	switch r.kind {
	case Invalid:
		return "void"
	case Primitive:
		if r.prim.Equals(cty.DynamicPseudoType) {
			return "any"
		}
		return r.prim.FriendlyName()
	case List:
		return fmt.Sprintf("list(%s)", r.elem)
	case Set:
		return fmt.Sprintf("set(%s)", r.elem)
	case Map:
		return fmt.Sprintf("map(%s)", r.elem)
	case Variable:
		return r.name
	case Named:
		if len(r.args) == 0 {
			return r.name
		}
		parts := make([]string, len(r.args))
		for i, a := range r.args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s<%s>", r.name, strings.Join(parts, ", "))
	}
	return "invalid"
}
