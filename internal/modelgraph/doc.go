// Package modelgraph owns the path-addressed tree of model nodes and the
// role-ordered application of rule actions against them.
//
// Nodes are created lazily: registering a creator binds it to a path,
// configuring appends actions to per-role buckets, and realization runs the
// creator followed by every bucket in the fixed role order. Within a bucket,
// actions run in ascending order of their originating rule's string form, so
// the outcome is independent of declaration order.
//
// A Registry is owner-confined: one configuration pass mutates it at a
// time. Independent registries may be built on parallel workers.
package modelgraph
