package modelgraph

import (
	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// State is the realization state of a node.
type State int

const (
	// Unknown means actions were configured but no creator is bound yet.
	Unknown State = iota
	// Registered means a creator is bound and the node can be realized.
	Registered
	// Realizing means the creator or an action bucket is currently
	// running; re-entry during this state is a cycle.
	Realizing
	// Realized means the backing value exists and all buckets applied.
	Realized
)

// String returns the state name used in diagnostics.
func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Registered:
		return "registered"
	case Realizing:
		return "realizing"
	case Realized:
		return "realized"
	}
	return "invalid"
}

// node is a single element of the model graph. It is owned exclusively by
// its Registry; the parent/child relation is structural (path prefix), so
// the tree carries no pointers between nodes.
type node struct {
	path    modelpath.Path
	state   State
	creator *Registration

	// buckets holds pending actions per role; applied marks buckets that
	// have already run and therefore reject further configuration.
	buckets [numRoles][]Action
	applied [numRoles]bool

	// value is the realized backing value.
	value cty.Value
	// binding records type variable substitutions captured when the
	// declared type was unified with the realized value. It is shared by
	// every view projected from this node.
	binding typeref.Binding
}

func newNode(path modelpath.Path) *node {
	return &node{
		path:    path,
		state:   Unknown,
		value:   cty.NilVal,
		binding: typeref.Binding{},
	}
}

// declaredType is the creator's declared type, or any for creator-less nodes.
func (n *node) declaredType() typeref.Ref {
	if n.creator == nil {
		return typeref.Any()
	}
	return n.creator.Type
}
