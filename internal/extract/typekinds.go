package extract

import (
	"context"
	"fmt"

	"github.com/vk/modelkit/internal/modelgraph"
	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// typeExtractor handles the type-registration kinds (component, binary and
// language types). A registration rule takes a single builder parameter
// whose one type argument names the type being registered; applying the
// rule records that type in the matching factory node and pulls in the
// base plugin that creates the node.
type typeExtractor struct {
	kind        rulesource.Kind
	builderName string
	baseName    string
	factoryPath string
	plugin      string
}

func (e *typeExtractor) Kind() rulesource.Kind { return e.kind }

func (e *typeExtractor) Validate(c *RuleContext) {
	m := c.Method
	if !m.Return.IsVoid() {
		c.Invalid("a method annotated with %s must have void return type", e.kind)
	}
	if len(m.Params) != 1 {
		c.Invalid("a method annotated with %s must have a single parameter of type %s<T>", e.kind, e.builderName)
		return
	}

	registered, ok := e.registeredType(m.Params[0].Type)
	if !ok {
		c.Invalid("the first parameter of a method annotated with %s must be of type %s with exactly one type argument", e.kind, e.builderName)
		return
	}
	if registered.Kind() != typeref.Named || registered.IsParameterized() {
		c.Invalid("the type argument of %s must be a non-parameterized declared type, got %s", e.builderName, registered)
		return
	}

	decl := c.Schemas.Declaration(registered.Name())
	if decl == nil || !extendsBase(decl.Supertypes(), e.baseName) {
		c.Invalid("the type %s registered via %s must extend %s", registered, e.builderName, e.baseName)
	}
}

// registeredType unwraps Builder<T> to T.
func (e *typeExtractor) registeredType(param typeref.Ref) (typeref.Ref, bool) {
	if param.Kind() != typeref.Named || param.Name() != e.builderName || len(param.Args()) != 1 {
		return typeref.Void, false
	}
	return param.Args()[0], true
}

func extendsBase(supertypes []string, base string) bool {
	for _, s := range supertypes {
		if s == base {
			return true
		}
	}
	return false
}

func (e *typeExtractor) Build(c *RuleContext) (*ExtractedRule, error) {
	m := c.Method
	descriptor := c.Descriptor()
	registered, _ := e.registeredType(m.Params[0].Type)
	typeName := registered.Name()
	baseName := e.baseName
	body := m.Body
	def := c.Definition
	factory := c.Factory

	return &ExtractedRule{
		Descriptor: descriptor,
		action: &modelgraph.Action{
			Role:        modelgraph.Create,
			Subject:     modelpath.MustParse(e.factoryPath),
			SubjectType: typeref.MapOf(typeref.Prim(cty.String)),
			Descriptor:  descriptor,
			Plugins:     []string{e.plugin},
			Do: func(ctx context.Context, subject *modelgraph.View, inputs []*modelgraph.View) error {
				if err := recordType(subject, typeName, baseName); err != nil {
					return fmt.Errorf("cannot register type %s: %w", typeName, err)
				}
				if body == nil {
					return nil
				}
				self, err := factory.Instantiate(def)
				if err != nil {
					return err
				}
				return body(ctx, self, subject, inputs)
			},
		},
	}, nil
}

// recordType adds the registered type to the factory node's map value. A
// duplicate registration of the same type name is an error.
func recordType(subject *modelgraph.View, typeName, baseName string) error {
	current := subject.Value()

	entries := make(map[string]cty.Value)
	if !current.IsNull() && current.LengthInt() > 0 {
		for name, value := range current.AsValueMap() {
			entries[name] = value
		}
	}
	if _, dup := entries[typeName]; dup {
		return fmt.Errorf("type %s is already registered", typeName)
	}
	entries[typeName] = cty.StringVal(baseName)

	return subject.Set(cty.MapVal(entries))
}
