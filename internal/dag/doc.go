// Package dag provides the dependency graph used to validate rule bindings
// before realization.
//
// Nodes are keyed by canonical model path strings; an edge from A to B means
// the node at B consumes the node at A as an input. The graph exists to
// reject binding cycles up front with a stable, readable report; lazy
// realization itself guards against cycles independently via node state.
package dag
