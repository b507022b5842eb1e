package extract

import (
	"context"
	"errors"

	"github.com/vk/modelkit/internal/modelgraph"
	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func builtinKindExtractors() []KindExtractor {
	return []KindExtractor{
		&modelExtractor{},
		&actionExtractor{kind: rulesource.Defaults, role: modelgraph.Defaults},
		&actionExtractor{kind: rulesource.Mutate, role: modelgraph.Mutate},
		&actionExtractor{kind: rulesource.Finalize, role: modelgraph.Finalize},
		&actionExtractor{kind: rulesource.Validate, role: modelgraph.Validate},
		&actionExtractor{kind: rulesource.Rules, role: modelgraph.Defaults},
		&typeExtractor{
			kind:        rulesource.ComponentType,
			builderName: "ComponentTypeBuilder",
			baseName:    "ComponentSpec",
			factoryPath: "componentTypes",
			plugin:      "component-model-base",
		},
		&typeExtractor{
			kind:        rulesource.BinaryType,
			builderName: "BinaryTypeBuilder",
			baseName:    "BinarySpec",
			factoryPath: "binaryTypes",
			plugin:      "binary-model-base",
		},
		&typeExtractor{
			kind:        rulesource.LanguageType,
			builderName: "LanguageTypeBuilder",
			baseName:    "LanguageSourceSet",
			factoryPath: "languageTypes",
			plugin:      "language-model-base",
		},
	}
}

// paramReference builds the input reference for one declared parameter:
// explicit path when annotated, binding by type otherwise.
func paramReference(p rulesource.Param) modelgraph.Reference {
	if p.HasPath {
		return modelgraph.ByPath(modelpath.MustParse(p.Path), p.Type)
	}
	return modelgraph.ByType(p.Type)
}

func inputReferences(params []rulesource.Param) []modelgraph.Reference {
	refs := make([]modelgraph.Reference, len(params))
	for i, p := range params {
		refs[i] = paramReference(p)
	}
	return refs
}

// modelExtractor handles creation rules. A value-returning method becomes
// a registration whose creator invokes the method; a void method takes a
// managed subject as its first parameter and becomes a registration with a
// schema-derived default value plus an initialization action running the
// body.
type modelExtractor struct{}

func (modelExtractor) Kind() rulesource.Kind { return rulesource.Model }

func (modelExtractor) Validate(c *RuleContext) {
	m := c.Method
	// Without an explicit path the subject path is inferred from the
	// method name, so the name itself must parse as a model path.
	if !m.HasPath {
		if _, err := modelpath.Parse(m.Name); err != nil {
			c.violations.add(classPath, m.StringForm(),
				"the model path %q inferred from the name of method %s is not valid: %s", m.Name, m.StringForm(), pathReason(err))
		}
	}
	if m.Return.IsVoid() {
		if len(m.Params) == 0 {
			c.Invalid("a void returning model element creation rule has to take a managed model element instance as the first argument")
			return
		}
		subjectSchema, err := c.Schemas.SchemaFor(m.Params[0].Type)
		if err != nil {
			var invalid *schema.InvalidManagedTypeError
			if errors.As(err, &invalid) {
				c.InvalidManagedType(invalid)
			} else {
				c.Invalid("%v", err)
			}
		} else if subjectSchema.Kind != schema.ManagedKind {
			c.Invalid("a void returning model element creation rule has to take a managed model element instance as the first argument")
		}
		if m.Body == nil {
			c.Invalid("must provide an implementation")
		}
		return
	}
	if m.Creator == nil {
		c.Invalid("must provide an implementation")
	}
}

func (modelExtractor) Build(c *RuleContext) (*ExtractedRule, error) {
	m := c.Method
	path := subjectPath(c)
	descriptor := c.Descriptor()

	if !m.Return.IsVoid() {
		return &ExtractedRule{
			Descriptor: descriptor,
			registration: &modelgraph.Registration{
				Path:       path,
				Type:       m.Return,
				Descriptor: descriptor,
				Inputs:     inputReferences(m.Params),
				Create:     creatorClosure(c.Definition, m, c.Factory),
			},
		}, nil
	}

	subjectType := m.Params[0].Type
	elementSchema, err := c.Schemas.SchemaFor(subjectType)
	if err != nil {
		return nil, err
	}
	defaultValue := elementSchema.DefaultValue()

	return &ExtractedRule{
		Descriptor: descriptor,
		registration: &modelgraph.Registration{
			Path:       path,
			Type:       subjectType,
			Descriptor: descriptor,
			Create: func(ctx context.Context, inputs []*modelgraph.View) (cty.Value, error) {
				return defaultValue, nil
			},
		},
		action: &modelgraph.Action{
			Role:        modelgraph.Initialize,
			Subject:     path,
			SubjectType: subjectType,
			Descriptor:  descriptor,
			Inputs:      inputReferences(m.Params[1:]),
			Do:          bodyClosure(c.Definition, m, c.Factory),
		},
	}, nil
}

// actionExtractor handles the void rule kinds that configure an existing
// subject: defaults, mutate, finalize, validate, and the rules aggregator
// (which applies its nested configuration during the defaults role so it
// runs before ordinary mutation).
type actionExtractor struct {
	kind rulesource.Kind
	role modelgraph.Role
}

func (e *actionExtractor) Kind() rulesource.Kind { return e.kind }

func (e *actionExtractor) Validate(c *RuleContext) {
	m := c.Method
	if !m.Return.IsVoid() {
		c.Invalid("a method annotated with %s must have void return type", e.kind)
	}
	if len(m.Params) == 0 {
		c.Invalid("a method annotated with %s must have at least one parameter", e.kind)
	}
	if m.Body == nil {
		c.Invalid("must provide an implementation")
	}
}

func (e *actionExtractor) Build(c *RuleContext) (*ExtractedRule, error) {
	m := c.Method
	descriptor := c.Descriptor()
	subject := m.Params[0]

	action := &modelgraph.Action{
		Role:        e.role,
		SubjectType: subject.Type,
		Descriptor:  descriptor,
		Inputs:      inputReferences(m.Params[1:]),
		Do:          bodyClosure(c.Definition, m, c.Factory),
	}

	rule := &ExtractedRule{Descriptor: descriptor, action: action}
	if subject.HasPath {
		action.Subject = modelpath.MustParse(subject.Path)
	} else {
		rule.subjectByType = true
	}
	return rule, nil
}

// creatorClosure captures only the definition, the method, and the factory;
// a fresh instance is built per invocation so rule bodies never observe
// state from a previous apply.
func creatorClosure(def *rulesource.Definition, m rulesource.Method, factory *rulesource.Factory) modelgraph.CreateFunc {
	creator := m.Creator
	return func(ctx context.Context, inputs []*modelgraph.View) (cty.Value, error) {
		self, err := factory.Instantiate(def)
		if err != nil {
			return cty.NilVal, err
		}
		return creator(ctx, self, inputs)
	}
}

func bodyClosure(def *rulesource.Definition, m rulesource.Method, factory *rulesource.Factory) modelgraph.DoFunc {
	body := m.Body
	return func(ctx context.Context, subject *modelgraph.View, inputs []*modelgraph.View) error {
		self, err := factory.Instantiate(def)
		if err != nil {
			return err
		}
		return body(ctx, self, subject, inputs)
	}
}
