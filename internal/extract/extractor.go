package extract

import (
	"fmt"
	"sort"

	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/schema"
)

// RuleContext carries one classified method through kind-specific
// validation and rule building.
type RuleContext struct {
	// Definition is the declaring rule source.
	Definition *rulesource.Definition
	// Method is the classified rule method.
	Method rulesource.Method
	// Schemas validates managed parameter types.
	Schemas *schema.Store
	// Factory instantiates the definition at apply time.
	Factory *rulesource.Factory

	violations *violationList
}

// Descriptor is the rule's identity: the definition name qualified by the
// method's canonical string form.
func (c *RuleContext) Descriptor() string {
	return c.Definition.Name() + "#" + c.Method.StringForm()
}

// Invalid appends a rule-shape violation for this method.
func (c *RuleContext) Invalid(format string, args ...any) {
	c.violations.add(classMethod, c.Method.StringForm(),
		"method %s is not a valid rule method: %s", c.Method.StringForm(), fmt.Sprintf(format, args...))
}

// InvalidManagedType appends a managed-type violation wrapped with this
// rule's identity.
func (c *RuleContext) InvalidManagedType(err *schema.InvalidManagedTypeError) {
	c.violations.add(classManagedType, c.Method.StringForm(),
		"method %s: %v", c.Method.StringForm(), err)
}

// KindExtractor owns the structural contract and the rule building for one
// rule kind. Implementations must report every violation they can detect
// rather than stopping at the first.
type KindExtractor interface {
	// Kind identifies the rule kind this extractor handles.
	Kind() rulesource.Kind
	// Validate appends every contract violation for the method.
	Validate(c *RuleContext)
	// Build turns a method that passed validation into an executable rule.
	Build(c *RuleContext) (*ExtractedRule, error)
}

// Extractor classifies and validates rule source definitions and builds
// their executable rules.
type Extractor struct {
	schemas *schema.Store
	factory *rulesource.Factory
	kinds   map[rulesource.Kind]KindExtractor
}

// New creates an extractor with every built-in kind extractor registered.
func New(schemas *schema.Store) *Extractor {
	e := &Extractor{
		schemas: schemas,
		factory: rulesource.NewFactory(),
		kinds:   make(map[rulesource.Kind]KindExtractor),
	}
	for _, ke := range builtinKindExtractors() {
		e.RegisterKindExtractor(ke)
	}
	return e
}

// RegisterKindExtractor installs an extractor for a rule kind, replacing
// any previous one. This is the extension point the type-registration
// kinds use.
func (e *Extractor) RegisterKindExtractor(ke KindExtractor) {
	e.kinds[ke.Kind()] = ke
}

// Extract classifies every member of the definition, validates each
// classified rule against its kind's contract, and either returns the
// executable rule set or a single aggregated error carrying every
// violation found in the pass.
func (e *Extractor) Extract(def *rulesource.Definition) (*RuleSet, error) {
	violations := &violationList{}

	// The marker check never short-circuits: the rest of the definition is
	// still scanned so one failed run reports everything at once.
	if def.Base() != rulesource.Marker {
		violations.add(classMarker, "", "rule source %s must directly extend %s", def.Name(), rulesource.Marker)
	}

	for _, field := range def.Fields() {
		if !field.Static || !field.Final {
			violations.add(classField, field.Name, "field %s must be static final", field.Name)
		}
	}

	methods := sortedMethods(def)
	var contexts []*RuleContext

	for _, m := range methods {
		c := &RuleContext{
			Definition: def,
			Method:     m,
			Schemas:    e.schemas,
			Factory:    e.factory,
			violations: violations,
		}

		switch len(m.Kinds) {
		case 0:
			e.classifyNonRule(c)
		case 1:
			e.validateRule(c)
			contexts = append(contexts, c)
		default:
			c.Invalid("can only be one of %s", rulesource.KindSetString())
		}
	}

	if !violations.empty() {
		return nil, &InvalidRuleSourceError{Definition: def.Name(), Problems: violations.messages()}
	}

	rules := make([]*ExtractedRule, 0, len(contexts))
	for _, c := range contexts {
		ke := e.kinds[c.Method.Kinds[0]]
		rule, err := ke.Build(c)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return &RuleSet{Definition: def.Name(), Rules: rules}, nil
}

// classifyNonRule handles methods with no rule kind: private methods are
// simply not rules; abstract methods must form bean-style accessor pairs;
// everything else must be private.
func (e *Extractor) classifyNonRule(c *RuleContext) {
	m := c.Method
	if m.Private {
		return
	}
	if m.Abstract {
		if !isAccessor(c.Definition, m) {
			c.violations.add(classMethod, m.StringForm(),
				"abstract method %s is not a valid rule method or property accessor", m.StringForm())
		}
		return
	}
	c.Invalid("a method that is not annotated as a rule must be private")
}

// validateRule applies the kind-independent checks, then delegates to the
// kind's extractor. Both run even when the other found problems, so shape
// and visibility violations co-report.
func (e *Extractor) validateRule(c *RuleContext) {
	m := c.Method

	if m.Private {
		c.Invalid("a rule method cannot be private")
	}
	if len(m.TypeParams) > 0 {
		c.Invalid("cannot declare type variables (generic methods are not supported)")
	}

	if m.HasPath {
		if _, err := modelpath.Parse(m.Path); err != nil {
			c.violations.add(classPath, m.StringForm(),
				"the model path %q declared on method %s is not valid: %s", m.Path, m.StringForm(), pathReason(err))
		}
	}
	for i, p := range m.Params {
		if !p.HasPath {
			continue
		}
		if _, err := modelpath.Parse(p.Path); err != nil {
			c.violations.add(classPath, m.StringForm(),
				"the model path %q used for parameter %d of method %s is not valid: %s", p.Path, i+1, m.StringForm(), pathReason(err))
		}
	}

	ke, ok := e.kinds[m.Kinds[0]]
	if !ok {
		c.Invalid("no extractor is registered for kind %s", m.Kinds[0])
		return
	}
	ke.Validate(c)
}

func pathReason(err error) string {
	if invalid, ok := err.(*modelpath.InvalidPathError); ok {
		return invalid.Reason
	}
	return err.Error()
}

// isAccessor reports whether an abstract method is one half of a
// bean-style accessor pair for a declared property.
func isAccessor(def *rulesource.Definition, m rulesource.Method) bool {
	for _, prop := range def.Properties() {
		getter := "get" + upperFirst(prop.Name)
		setter := "set" + upperFirst(prop.Name)
		switch m.Name {
		case getter:
			if len(m.Params) == 0 && m.Return.Equal(prop.Type) {
				return true
			}
		case setter:
			if len(m.Params) == 1 && m.Return.IsVoid() && m.Params[0].Type.Equal(prop.Type) {
				return true
			}
		}
	}
	return false
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// sortedMethods returns the definition's methods ordered by canonical
// string form; this order is also the rule-application tie-break.
func sortedMethods(def *rulesource.Definition) []rulesource.Method {
	methods := make([]rulesource.Method, len(def.Methods()))
	copy(methods, def.Methods())
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].StringForm() < methods[j].StringForm()
	})
	return methods
}

// subjectPath resolves a creation rule's subject path: the explicit
// declaration when present, the method's own name otherwise.
func subjectPath(c *RuleContext) modelpath.Path {
	if c.Method.HasPath {
		// Validation already established the path parses.
		return modelpath.MustParse(c.Method.Path)
	}
	return modelpath.MustParse(c.Method.Name)
}
