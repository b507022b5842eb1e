package modelgraph

import (
	"fmt"
	"strings"

	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/typeref"
)

// NoCreatorError reports realization of a path no creator was bound to.
type NoCreatorError struct {
	Path modelpath.Path
}

func (e *NoCreatorError) Error() string {
	return fmt.Sprintf("no creator rule is bound to model path %q", e.Path)
}

// DuplicatePathError reports a second creator registration for one path.
type DuplicatePathError struct {
	Path     modelpath.Path
	Existing string
	Incoming string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("cannot register rule %s: model path %q is already bound by rule %s",
		e.Incoming, e.Path, e.Existing)
}

// RoleClosedError reports configuration of a role bucket that has already
// been applied to its node.
type RoleClosedError struct {
	Path modelpath.Path
	Role Role
	Rule string
}

func (e *RoleClosedError) Error() string {
	return fmt.Sprintf("cannot add rule %s: the %s role has already been applied to node %q",
		e.Rule, e.Role, e.Path)
}

// RealizationCycleError reports a node that transitively consumes itself.
type RealizationCycleError struct {
	Path modelpath.Path
}

func (e *RealizationCycleError) Error() string {
	return fmt.Sprintf("model element %q is already being realized; a rule consumes its own subject transitively", e.Path)
}

// BindingError reports failed by-type input resolution: either no node
// carries the requested type, or more than one does.
type BindingError struct {
	Rule       string
	Type       typeref.Ref
	Candidates []string
}

func (e *BindingError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no model element of type %s is available to bind an input of rule %s", e.Type, e.Rule)
	}
	return fmt.Sprintf("type %s is ambiguous for an input of rule %s: candidate model elements [%s]",
		e.Type, e.Rule, strings.Join(e.Candidates, ", "))
}

// ProjectionError reports a type mismatch when projecting a node's backing
// value as a requested view type.
type ProjectionError struct {
	Path      modelpath.Path
	Requested typeref.Ref
	Actual    string
	Cause     error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("cannot project model element %q (value type %s) as %s: %v",
		e.Path, e.Actual, e.Requested, e.Cause)
}

func (e *ProjectionError) Unwrap() error {
	return e.Cause
}

// RuleExecutionError wraps a failure thrown by a rule's own body, naming
// the rule and the node being realized.
type RuleExecutionError struct {
	Rule string
	Path modelpath.Path
	Err  error
}

func (e *RuleExecutionError) Error() string {
	return fmt.Sprintf("rule %s failed for model element %q: %v", e.Rule, e.Path, e.Err)
}

func (e *RuleExecutionError) Unwrap() error {
	return e.Err
}
