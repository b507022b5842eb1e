package extract

import (
	"github.com/vk/modelkit/internal/modelgraph"
)

// ExtractedRule is the executable form of one validated rule method:
// either a registration that produces a new node, an action attached to an
// existing or future node, or (for subject-configuring creation rules)
// both.
type ExtractedRule struct {
	// Descriptor is the originating method's string form, qualified by the
	// definition name. It drives deterministic ordering and diagnostics.
	Descriptor string
	// registration creates a node; nil for pure actions.
	registration *modelgraph.Registration
	// action configures a node; nil for pure registrations.
	action *modelgraph.Action
	// subjectByType marks an action whose subject binds by type at
	// application time rather than by explicit path.
	subjectByType bool
}

// Apply registers the rule with the model registry.
func (r *ExtractedRule) Apply(reg *modelgraph.Registry) error {
	if r.registration != nil {
		if err := reg.Register(*r.registration); err != nil {
			return err
		}
	}
	if r.action != nil {
		if r.subjectByType {
			reg.ConfigureByType(*r.action)
			return nil
		}
		return reg.Configure(*r.action)
	}
	return nil
}

// RuleSet is the complete extraction result for one valid definition.
type RuleSet struct {
	// Definition names the originating rule source.
	Definition string
	// Rules holds the extracted rules ordered by descriptor.
	Rules []*ExtractedRule
}

// Apply registers every rule with the model registry, in order.
func (s *RuleSet) Apply(reg *modelgraph.Registry) error {
	for _, rule := range s.Rules {
		if err := rule.Apply(reg); err != nil {
			return err
		}
	}
	return nil
}
