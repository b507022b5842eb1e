package modelgraph

import (
	"fmt"

	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// View is a typed projection of a realized node's backing value. An
// immutable view rejects writes; a mutable view writes back to its node.
type View struct {
	node    *node
	typ     typeref.Ref
	mutable bool
}

// Path returns the address of the viewed node.
func (v *View) Path() modelpath.Path {
	return v.node.path
}

// Type returns the requested view type, with any variables the node has
// already captured substituted in.
func (v *View) Type() typeref.Ref {
	return v.typ.Substitute(v.node.binding)
}

// Mutable reports whether Set is permitted.
func (v *View) Mutable() bool {
	return v.mutable
}

// Value returns the node's backing value, converted to the concrete form of
// the view type when one is known.
func (v *View) Value() cty.Value {
	if concrete, ok := v.typ.ConcreteType(v.node.binding); ok && !concrete.Equals(v.node.value.Type()) {
		if converted, err := convert.Convert(v.node.value, concrete); err == nil {
			return converted
		}
	}
	return v.node.value
}

// Set replaces the node's backing value. The new value must still satisfy
// the node's declared type under the captured bindings.
func (v *View) Set(value cty.Value) error {
	if !v.mutable {
		return fmt.Errorf("cannot mutate model element %q through an immutable view", v.node.path)
	}
	if err := v.node.declaredType().Unify(value.Type(), v.node.binding); err != nil {
		return &ProjectionError{
			Path:      v.node.path,
			Requested: v.node.declaredType(),
			Actual:    value.Type().FriendlyName(),
			Cause:     err,
		}
	}
	v.node.value = value
	return nil
}

// project builds a view of the node as the requested type, unifying any
// type variables against the realized value type. Substitutions land in the
// node's shared binding, so they are visible to sibling references.
func project(n *node, requested typeref.Ref, mutable bool) (*View, error) {
	if err := requested.Unify(n.value.Type(), n.binding); err != nil {
		return nil, &ProjectionError{
			Path:      n.path,
			Requested: requested.Substitute(n.binding),
			Actual:    n.value.Type().FriendlyName(),
			Cause:     err,
		}
	}
	return &View{node: n, typ: requested, mutable: mutable}, nil
}
