package modelgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/modelkit/internal/ctxlog"
	"github.com/vk/modelkit/internal/dag"
	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// PluginApplier applies a plugin to the registry before a rule that
// declared a dependency on it executes. The registry treats plugin
// identifiers as opaque and applies each at most once.
type PluginApplier interface {
	ApplyPlugin(ctx context.Context, id string) error
}

// Registry is the path-addressed tree of model nodes. It is owner-confined:
// a single configuration pass registers, configures, and realizes; only
// separate Registry instances may be driven concurrently.
type Registry struct {
	nodes map[string]*node
	// pendingByType holds actions whose subject binds by type; they attach
	// to their node when it starts realizing.
	pendingByType  []Action
	plugins        PluginApplier
	appliedPlugins map[string]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithPluginApplier installs the collaborator that applies declared plugin
// dependencies.
func WithPluginApplier(applier PluginApplier) Option {
	return func(r *Registry) { r.plugins = applier }
}

// New creates an empty model registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		nodes:          make(map[string]*node),
		appliedPlugins: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) nodeAt(path modelpath.Path) *node {
	if n, ok := r.nodes[path.String()]; ok {
		return n
	}
	n := newNode(path)
	r.nodes[path.String()] = n
	return n
}

// Register binds a creator registration to its path. The same path cannot
// be bound twice.
func (r *Registry) Register(reg Registration) error {
	if reg.Path.IsRoot() {
		return fmt.Errorf("cannot register rule %s: the root path cannot carry a creator", reg.Descriptor)
	}
	n := r.nodeAt(reg.Path)
	if n.creator != nil {
		return &DuplicatePathError{
			Path:     reg.Path,
			Existing: n.creator.Descriptor,
			Incoming: reg.Descriptor,
		}
	}
	n.creator = &reg
	if n.state == Unknown {
		n.state = Registered
	}
	return nil
}

// Configure appends an action to the bucket for its role at the subject
// path. The node may not exist yet; configuration is legal at any time
// before that role has been applied to the node.
func (r *Registry) Configure(action Action) error {
	n := r.nodeAt(action.Subject)
	if n.applied[action.Role] {
		return &RoleClosedError{Path: action.Subject, Role: action.Role, Rule: action.Descriptor}
	}
	n.buckets[action.Role] = append(n.buckets[action.Role], action)
	return nil
}

// ConfigureByType appends an action whose subject is resolved by unique
// type match at application time: when a node starts realizing, every
// pending action whose subject type it satisfies attaches to it, provided
// the match is unambiguous then.
func (r *Registry) ConfigureByType(action Action) {
	r.pendingByType = append(r.pendingByType, action)
}

// UnboundRules returns the descriptors of by-type actions that have not
// attached to any node yet, sorted. Callers use it after a configuration
// pass to surface rules whose subject never bound.
func (r *Registry) UnboundRules() []string {
	out := make([]string, 0, len(r.pendingByType))
	for _, action := range r.pendingByType {
		out = append(out, action.Descriptor)
	}
	sort.Strings(out)
	return out
}

// attachPendingActions binds pending by-type actions whose subject type the
// realizing node satisfies. An ambiguous match is an application-time
// error naming the rule and every candidate.
func (r *Registry) attachPendingActions(n *node) error {
	if len(r.pendingByType) == 0 {
		return nil
	}
	var keep []Action
	for _, action := range r.pendingByType {
		if !r.typeMatches(action.SubjectType, n) {
			keep = append(keep, action)
			continue
		}
		var candidates []string
		for _, key := range sortedKeys(r.nodes) {
			candidate := r.nodes[key]
			if candidate.creator != nil && r.typeMatches(action.SubjectType, candidate) {
				candidates = append(candidates, candidate.path.String())
			}
		}
		if len(candidates) > 1 {
			return &BindingError{Rule: action.Descriptor, Type: action.SubjectType, Candidates: candidates}
		}
		bound := action
		bound.Subject = n.path
		n.buckets[bound.Role] = append(n.buckets[bound.Role], bound)
	}
	r.pendingByType = keep
	return nil
}

// State returns the realization state of the node at the path. Paths never
// mentioned are Unknown.
func (r *Registry) State(path modelpath.Path) State {
	if n, ok := r.nodes[path.String()]; ok {
		return n.state
	}
	return Unknown
}

// Paths returns every known node path in sorted order.
func (r *Registry) Paths() []modelpath.Path {
	keys := make([]string, 0, len(r.nodes))
	for key := range r.nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	paths := make([]modelpath.Path, len(keys))
	for i, key := range keys {
		paths[i] = r.nodes[key].path
	}
	return paths
}

// Validate builds the explicit-path binding graph and rejects cycles before
// any realization. By-type references are excluded on purpose: their
// resolution is an application-time concern.
func (r *Registry) Validate() error {
	g := dag.New()
	for key := range r.nodes {
		g.AddNode(key)
	}
	addEdges := func(consumer modelpath.Path, refs []Reference) error {
		for _, ref := range refs {
			if ref.ByType {
				continue
			}
			g.AddNode(ref.Path.String())
			if ref.Path.Equal(consumer) {
				continue
			}
			if err := g.AddEdge(ref.Path.String(), consumer.String()); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range r.nodes {
		if n.creator != nil {
			if err := addEdges(n.path, n.creator.Inputs); err != nil {
				return err
			}
		}
		for role := range n.buckets {
			for _, action := range n.buckets[role] {
				if err := addEdges(n.path, action.Inputs); err != nil {
					return err
				}
			}
		}
	}
	return g.DetectCycles()
}

// Realize returns the backing value of the node at the path, realizing it
// on demand. Realizing an already-realized node returns the cached value
// without reapplying any bucket.
func (r *Registry) Realize(ctx context.Context, path modelpath.Path) (cty.Value, error) {
	n, ok := r.nodes[path.String()]
	if !ok {
		return cty.NilVal, &NoCreatorError{Path: path}
	}
	if err := r.realize(ctx, n); err != nil {
		return cty.NilVal, err
	}
	return n.value, nil
}

// AsImmutable projects the node at the path as a read-only view of the
// requested type, realizing the node if necessary.
func (r *Registry) AsImmutable(ctx context.Context, requested typeref.Ref, path modelpath.Path) (*View, error) {
	return r.view(ctx, requested, path, false)
}

// AsMutable is the writable equivalent of AsImmutable.
func (r *Registry) AsMutable(ctx context.Context, requested typeref.Ref, path modelpath.Path) (*View, error) {
	return r.view(ctx, requested, path, true)
}

func (r *Registry) view(ctx context.Context, requested typeref.Ref, path modelpath.Path, mutable bool) (*View, error) {
	n, ok := r.nodes[path.String()]
	if !ok {
		return nil, &NoCreatorError{Path: path}
	}
	if err := r.realize(ctx, n); err != nil {
		return nil, err
	}
	return project(n, requested, mutable)
}

// realize drives a node through Realizing to Realized: creator first, then
// every role bucket in the fixed total order, each bucket sorted by rule
// descriptor. An error aborts realization of this node only; the node drops
// back to Registered so the (deterministic) failure is reproducible.
func (r *Registry) realize(ctx context.Context, n *node) (err error) {
	if n.state == Unknown {
		// A plugin dependency declared by a configured action may be the
		// party that installs this node's creator. Apply those before
		// deciding the node cannot be realized.
		for _, role := range AllRoles {
			for _, action := range n.buckets[role] {
				if err := r.applyPlugins(ctx, action.Plugins); err != nil {
					return err
				}
			}
		}
	}

	switch n.state {
	case Realized:
		return nil
	case Realizing:
		return &RealizationCycleError{Path: n.path}
	case Unknown:
		return &NoCreatorError{Path: n.path}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Realizing model element.", "path", n.path.String(), "rule", n.creator.Descriptor)

	n.state = Realizing
	defer func() {
		if err != nil {
			// A later Realize replays the whole node: creator first, then
			// every bucket. Clearing the applied flags keeps the bucket
			// state consistent with that replay.
			n.state = Registered
			n.applied = [numRoles]bool{}
		}
	}()

	if err = r.applyPlugins(ctx, n.creator.Plugins); err != nil {
		return err
	}

	inputs, err := r.resolveInputs(ctx, n, n.creator.Descriptor, n.creator.Inputs)
	if err != nil {
		return err
	}

	value, err := n.creator.Create(ctx, inputs)
	if err != nil {
		return &RuleExecutionError{Rule: n.creator.Descriptor, Path: n.path, Err: err}
	}

	// Capture type variables of the declared type against the realized
	// value; the binding is shared with every later projection.
	if err = n.creator.Type.Unify(value.Type(), n.binding); err != nil {
		return &ProjectionError{
			Path:      n.path,
			Requested: n.creator.Type,
			Actual:    value.Type().FriendlyName(),
			Cause:     err,
		}
	}
	n.value = value

	if err = r.attachPendingActions(n); err != nil {
		return err
	}

	for _, role := range AllRoles {
		if err = r.applyBucket(ctx, n, role); err != nil {
			return err
		}
	}

	n.state = Realized
	logger.Debug("Model element realized.", "path", n.path.String())
	return nil
}

// applyBucket runs one role's actions in ascending descriptor order and
// closes the bucket against further configuration.
func (r *Registry) applyBucket(ctx context.Context, n *node, role Role) error {
	sort.SliceStable(n.buckets[role], func(i, j int) bool {
		return n.buckets[role][i].Descriptor < n.buckets[role][j].Descriptor
	})

	// Iterate by index: an action may configure further actions for this
	// same role while it runs, and those must not be dropped. Late
	// arrivals run after the sorted portion, in configuration order.
	for i := 0; i < len(n.buckets[role]); i++ {
		action := n.buckets[role][i]
		if err := r.applyPlugins(ctx, action.Plugins); err != nil {
			return err
		}

		subject, err := project(n, action.SubjectType, role.mutable())
		if err != nil {
			return err
		}
		inputs, err := r.resolveInputs(ctx, n, action.Descriptor, action.Inputs)
		if err != nil {
			return err
		}
		if err := action.Do(ctx, subject, inputs); err != nil {
			return &RuleExecutionError{Rule: action.Descriptor, Path: n.path, Err: err}
		}
	}

	n.applied[role] = true
	return nil
}

// resolveInputs realizes and projects every input reference of a rule.
func (r *Registry) resolveInputs(ctx context.Context, consumer *node, rule string, refs []Reference) ([]*View, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	views := make([]*View, 0, len(refs))
	for _, ref := range refs {
		target, err := r.resolveReference(consumer, rule, ref)
		if err != nil {
			return nil, err
		}
		if err := r.realize(ctx, target); err != nil {
			return nil, err
		}
		view, err := project(target, ref.Type, false)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// resolveReference finds the node an input reference addresses. By-type
// references require exactly one matching candidate among the other
// registered nodes; zero or several is an application-time error naming the
// rule and the candidates.
func (r *Registry) resolveReference(consumer *node, rule string, ref Reference) (*node, error) {
	if !ref.ByType {
		n, ok := r.nodes[ref.Path.String()]
		if !ok || n.creator == nil {
			return nil, &NoCreatorError{Path: ref.Path}
		}
		return n, nil
	}

	var matches []*node
	for _, key := range sortedKeys(r.nodes) {
		candidate := r.nodes[key]
		if candidate == consumer || candidate.creator == nil {
			continue
		}
		if r.typeMatches(ref.Type, candidate) {
			matches = append(matches, candidate)
		}
	}

	if len(matches) == 1 {
		return matches[0], nil
	}
	candidates := make([]string, len(matches))
	for i, m := range matches {
		candidates[i] = m.path.String()
	}
	return nil, &BindingError{Rule: rule, Type: ref.Type, Candidates: candidates}
}

// typeMatches reports whether a candidate node can satisfy the requested
// type: against the realized value type once present, structurally against
// the declared type otherwise.
func (r *Registry) typeMatches(requested typeref.Ref, candidate *node) bool {
	if candidate.state == Realized {
		return requested.AssignableFrom(candidate.value.Type(), candidate.binding)
	}
	declared := candidate.declaredType().Substitute(candidate.binding)
	if concrete, ok := declared.ConcreteType(candidate.binding); ok {
		return requested.AssignableFrom(concrete, candidate.binding)
	}
	return requested.Compatible(declared)
}

// applyPlugins applies each declared plugin dependency exactly once.
func (r *Registry) applyPlugins(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if r.plugins == nil {
		return fmt.Errorf("rule declares plugin dependencies %v but no plugin applier is installed", ids)
	}
	for _, id := range ids {
		if _, done := r.appliedPlugins[id]; done {
			continue
		}
		if err := r.plugins.ApplyPlugin(ctx, id); err != nil {
			return fmt.Errorf("failed to apply plugin %q: %w", id, err)
		}
		r.appliedPlugins[id] = struct{}{}
	}
	return nil
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
