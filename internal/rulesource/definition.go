package rulesource

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/modelkit/internal/modelgraph"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// Marker is the designated base every rule source must directly extend.
const Marker = "RuleSource"

// BodyFunc is the compiled implementation of a void rule method. The
// subject view is the first declared parameter; inputs follow in order.
type BodyFunc func(ctx context.Context, self *Instance, subject *modelgraph.View, inputs []*modelgraph.View) error

// CreatorFunc is the compiled implementation of a value-returning creation
// method.
type CreatorFunc func(ctx context.Context, self *Instance, inputs []*modelgraph.View) (cty.Value, error)

// Param is one declared parameter of a rule method.
type Param struct {
	// Type is the declared parameter type.
	Type typeref.Ref
	// Path is the declared model path annotation; meaningful only when
	// HasPath is set (an empty declared path is a violation, not absence).
	Path string
	// HasPath marks the presence of the path annotation.
	HasPath bool
}

// Method is one member of a rule source definition.
type Method struct {
	// Name is the method name.
	Name string
	// Kinds lists the rule kind annotations present. Valid rules carry
	// exactly one; the validator reports every other cardinality.
	Kinds []Kind
	// Private marks a method not visible outside the definition.
	Private bool
	// Static marks a method not bound to an instance.
	Static bool
	// Abstract marks a method declared without an implementation.
	Abstract bool
	// TypeParams lists declared method-level type variables; rule methods
	// must not declare any.
	TypeParams []string
	// Return is the declared return type; Void for none.
	Return typeref.Ref
	// Path is the declared subject path annotation on the method itself.
	Path string
	// HasPath marks the presence of the method-level path annotation.
	HasPath bool
	// Params are the declared parameters in order.
	Params []Param
	// Body implements a void method.
	Body BodyFunc
	// Creator implements a value-returning creation method.
	Creator CreatorFunc
}

// StringForm is the canonical representation of the method: its name plus
// the declared parameter types. Classification orders descriptors by this
// form, and that order becomes the rule-application tie-break.
func (m Method) StringForm() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type.String()
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(params, ", "))
}

// Field is one declared field of a rule source definition.
type Field struct {
	Name   string
	Static bool
	Final  bool
}

// Property is a bean-style abstract property the factory synthesizes
// storage for.
type Property struct {
	Name string
	Type typeref.Ref
}

// Definition is the structural descriptor of one rule source. Definitions
// are immutable once built; their name is their cache identity.
type Definition struct {
	name               string
	base               string
	fields             []Field
	properties         []Property
	methods            []Method
	privateConstructor bool
}

// Name returns the definition's identity.
func (d *Definition) Name() string { return d.name }

// Base returns the declared direct supertype.
func (d *Definition) Base() string { return d.base }

// Fields returns the declared fields.
func (d *Definition) Fields() []Field { return d.fields }

// Properties returns the declared bean properties.
func (d *Definition) Properties() []Property { return d.properties }

// Methods returns the declared methods in declaration order.
func (d *Definition) Methods() []Method { return d.methods }

// Builder assembles a Definition.
type Builder struct {
	def  Definition
	errs []string
}

// NewDefinition starts a definition with the given name, directly extending
// the marker base. Use Base to declare a different supertype.
func NewDefinition(name string) *Builder {
	return &Builder{def: Definition{name: name, base: Marker}}
}

// Base overrides the declared direct supertype.
func (b *Builder) Base(name string) *Builder {
	b.def.base = name
	return b
}

// Field declares a field.
func (b *Builder) Field(name string, static, final bool) *Builder {
	b.def.fields = append(b.def.fields, Field{Name: name, Static: static, Final: final})
	return b
}

// Property declares a bean-style abstract property; the factory
// synthesizes its storage and accessors.
func (b *Builder) Property(name string, typ typeref.Ref) *Builder {
	b.def.properties = append(b.def.properties, Property{Name: name, Type: typ})
	return b
}

// Method declares a method.
func (b *Builder) Method(m Method) *Builder {
	b.def.methods = append(b.def.methods, m)
	return b
}

// PrivateConstructor marks the definition as having no accessible
// construction path; instantiation will fail.
func (b *Builder) PrivateConstructor() *Builder {
	b.def.privateConstructor = true
	return b
}

// Build finalizes the definition.
func (b *Builder) Build() (*Definition, error) {
	if b.def.name == "" {
		return nil, fmt.Errorf("rule source definition requires a name")
	}
	seen := make(map[string]struct{}, len(b.def.methods))
	for _, m := range b.def.methods {
		form := m.StringForm()
		if _, dup := seen[form]; dup {
			return nil, fmt.Errorf("rule source %s declares method %s more than once", b.def.name, form)
		}
		seen[form] = struct{}{}
	}
	def := b.def
	return &def, nil
}

// MustBuild is Build for definitions known to be well-formed.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
