package typeref

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Binding maps type variable names to the concrete types unification
// resolved them to. One Binding is shared per model node so a substitution
// made while projecting one view is visible to every sibling reference.
type Binding map[string]cty.Type

// Clone returns an independent copy of the binding.
func (b Binding) Clone() Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Unify matches the reference against a concrete cty type, recording any
// type variable substitutions into the binding. It fails when the shapes
// are incompatible or when a variable is already bound to a different type.
func (r Ref) Unify(actual cty.Type, binding Binding) error {
	switch r.kind {
	case Invalid:
		return fmt.Errorf("cannot unify the void type with %s", actual.FriendlyName())

	case Primitive:
		if r.prim.Equals(cty.DynamicPseudoType) || actual.Equals(cty.DynamicPseudoType) {
			return nil
		}
		if r.prim.Equals(actual) {
			return nil
		}
		if conv := convert.GetConversionUnsafe(actual, r.prim); conv != nil {
			return nil
		}
		return fmt.Errorf("type %s is not assignable to %s", actual.FriendlyName(), r.prim.FriendlyName())

	case List:
		if !actual.IsListType() && !actual.IsTupleType() {
			return fmt.Errorf("type %s is not a list", actual.FriendlyName())
		}
		return r.elem.Unify(elementType(actual), binding)

	case Set:
		if !actual.IsSetType() {
			return fmt.Errorf("type %s is not a set", actual.FriendlyName())
		}
		return r.elem.Unify(actual.ElementType(), binding)

	case Map:
		if !actual.IsMapType() && !actual.IsObjectType() {
			return fmt.Errorf("type %s is not a map", actual.FriendlyName())
		}
		return r.elem.Unify(elementType(actual), binding)

	case Variable:
		if bound, ok := binding[r.name]; ok {
			if !bound.Equals(actual) {
				return fmt.Errorf("type variable %s is already bound to %s, cannot rebind to %s",
					r.name, bound.FriendlyName(), actual.FriendlyName())
			}
			return nil
		}
		binding[r.name] = actual
		return nil

	case Named:
		// Managed values realize as cty object types; the structural match
		// against the declared schema happens in the schema store, not here.
		if actual.IsObjectType() || actual.Equals(cty.DynamicPseudoType) {
			return nil
		}
		return fmt.Errorf("type %s is not a managed %s", actual.FriendlyName(), r.name)
	}

	return fmt.Errorf("cannot unify invalid type reference")
}

// elementType returns a single element type for list, tuple, map, and
// object types, flattening heterogeneous aggregates to the dynamic type.
func elementType(t cty.Type) cty.Type {
	switch {
	case t.IsListType(), t.IsSetType(), t.IsMapType():
		return t.ElementType()
	case t.IsTupleType():
		types := t.TupleElementTypes()
		if len(types) == 0 {
			return cty.DynamicPseudoType
		}
		elem := types[0]
		for _, et := range types[1:] {
			if !et.Equals(elem) {
				return cty.DynamicPseudoType
			}
		}
		return elem
	case t.IsObjectType():
		var elem cty.Type
		first := true
		for _, at := range t.AttributeTypes() {
			if first {
				elem = at
				first = false
				continue
			}
			if !at.Equals(elem) {
				return cty.DynamicPseudoType
			}
		}
		if first {
			return cty.DynamicPseudoType
		}
		return elem
	}
	return cty.DynamicPseudoType
}

// Substitute replaces every bound variable in the tree with its primitive
// binding. Unbound variables are left in place.
func (r Ref) Substitute(binding Binding) Ref {
	switch r.kind {
	case Variable:
		if bound, ok := binding[r.name]; ok {
			return Prim(bound)
		}
		return r
	case List:
		return ListOf(r.elem.Substitute(binding))
	case Set:
		return SetOf(r.elem.Substitute(binding))
	case Map:
		return MapOf(r.elem.Substitute(binding))
	case Named:
		if len(r.args) == 0 {
			return r
		}
		args := make([]Ref, len(r.args))
		for i, a := range r.args {
			args[i] = a.Substitute(binding)
		}
		return NamedType(r.name, args...)
	}
	return r
}

// Compatible reports whether two references could describe the same type:
// variables and the dynamic type match anything, collections match
// recursively, everything else matches structurally. It is the loose check
// used for by-type candidate selection before a candidate is realized;
// projection still verifies the exact types afterwards.
func (r Ref) Compatible(other Ref) bool {
	if r.kind == Variable || other.kind == Variable {
		return true
	}
	if r.kind == Primitive && r.prim.Equals(cty.DynamicPseudoType) {
		return true
	}
	if other.kind == Primitive && other.prim.Equals(cty.DynamicPseudoType) {
		return true
	}
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case List, Set, Map:
		return r.elem.Compatible(*other.elem)
	case Named:
		return r.name == other.name
	case Primitive:
		return r.prim.Equals(other.prim)
	}
	return r.Equal(other)
}

// ConcreteType resolves the reference to a concrete cty type under the
// binding. Named types and unbound variables have no concrete cty form and
// resolve to the dynamic type with ok = false.
func (r Ref) ConcreteType(binding Binding) (cty.Type, bool) {
	switch r.kind {
	case Primitive:
		return r.prim, true
	case Variable:
		if bound, ok := binding[r.name]; ok {
			return bound, true
		}
	case List:
		if elem, ok := r.elem.ConcreteType(binding); ok {
			return cty.List(elem), true
		}
	case Set:
		if elem, ok := r.elem.ConcreteType(binding); ok {
			return cty.Set(elem), true
		}
	case Map:
		if elem, ok := r.elem.ConcreteType(binding); ok {
			return cty.Map(elem), true
		}
	}
	return cty.DynamicPseudoType, false
}

// AssignableFrom reports whether a value of the concrete type satisfies
// this reference under the given binding, without mutating the binding.
func (r Ref) AssignableFrom(actual cty.Type, binding Binding) bool {
	scratch := binding.Clone()
	return r.Unify(actual, scratch) == nil
}
