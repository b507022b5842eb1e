package modelgraph

import (
	"context"

	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// Reference identifies a model element a rule consumes: either an explicit
// path, or "whichever single node carries this type", resolved when the
// consuming rule applies.
type Reference struct {
	// Path addresses the element explicitly. Ignored when ByType is set.
	Path modelpath.Path
	// ByType requests resolution by unique type match among other nodes.
	ByType bool
	// Type is the requested view type for the element.
	Type typeref.Ref
}

// ByPath builds an explicit path reference.
func ByPath(path modelpath.Path, typ typeref.Ref) Reference {
	return Reference{Path: path, Type: typ}
}

// ByType builds a reference resolved by unique type match at apply time.
func ByType(typ typeref.Ref) Reference {
	return Reference{ByType: true, Type: typ}
}

// String renders the reference for diagnostics.
func (r Reference) String() string {
	if r.ByType {
		return "<by type: " + r.Type.String() + ">"
	}
	return r.Path.String() + " (" + r.Type.String() + ")"
}

// CreateFunc produces the backing value of a node. Inputs arrive in the
// order the registration declared them, already realized and projected.
type CreateFunc func(ctx context.Context, inputs []*View) (cty.Value, error)

// Registration binds a creator to a model path. It is the executable form
// of an extracted creation rule.
type Registration struct {
	// Path is the address the created node will occupy.
	Path modelpath.Path
	// Type is the declared type of the node's backing value. It may
	// contain type variables, captured on first realization.
	Type typeref.Ref
	// Descriptor is the originating rule's string form, used for
	// diagnostics and for deterministic ordering.
	Descriptor string
	// Inputs are resolved and realized before the creator runs.
	Inputs []Reference
	// Plugins lists plugin identifiers that must be applied to the
	// registry before the creator executes.
	Plugins []string
	// Create produces the node's backing value.
	Create CreateFunc
}

// DoFunc applies an action to a realized subject.
type DoFunc func(ctx context.Context, subject *View, inputs []*View) error

// Action attaches behavior to an existing or future node at a path, under a
// role. It is the executable form of an extracted non-creation rule.
type Action struct {
	// Role selects the bucket the action joins.
	Role Role
	// Subject is the path of the node the action applies to.
	Subject modelpath.Path
	// SubjectType is the requested view type for the subject.
	SubjectType typeref.Ref
	// Descriptor is the originating rule's string form; the tie-break
	// ordering within a role bucket is ascending Descriptor.
	Descriptor string
	// Inputs are resolved and realized before the action runs.
	Inputs []Reference
	// Plugins lists plugin identifiers applied before the action executes.
	Plugins []string
	// Do performs the action.
	Do DoFunc
}
