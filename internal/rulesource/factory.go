package rulesource

import (
	"fmt"

	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// InstantiationError reports that a definition could not be instantiated.
type InstantiationError struct {
	Definition string
	Reason     string
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("cannot create an instance of rule source %s: %s", e.Definition, e.Reason)
}

// Instance is one live rule source: the definition plus synthesized storage
// for its bean properties. Rule bodies receive a fresh instance per apply.
type Instance struct {
	def   *Definition
	state map[string]cty.Value
	types map[string]typeref.Ref
}

// Definition returns the instance's definition.
func (i *Instance) Definition() *Definition {
	return i.def
}

// Get reads a property value.
func (i *Instance) Get(property string) (cty.Value, error) {
	value, ok := i.state[property]
	if !ok {
		return cty.NilVal, fmt.Errorf("rule source %s has no property %q", i.def.Name(), property)
	}
	return value, nil
}

// Set writes a property value, enforcing the declared property type.
func (i *Instance) Set(property string, value cty.Value) error {
	typ, ok := i.types[property]
	if !ok {
		return fmt.Errorf("rule source %s has no property %q", i.def.Name(), property)
	}
	if !value.IsNull() {
		if err := typ.Unify(value.Type(), typeref.Binding{}); err != nil {
			return fmt.Errorf("cannot set property %q of rule source %s: %w", property, i.def.Name(), err)
		}
	}
	i.state[property] = value
	return nil
}

// Factory builds instances of rule source definitions.
type Factory struct{}

// NewFactory creates a factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Instantiate builds a fresh instance, initializing every synthesized
// property to its type's zero value.
func (f *Factory) Instantiate(def *Definition) (*Instance, error) {
	if def.privateConstructor {
		return nil, &InstantiationError{
			Definition: def.Name(),
			Reason:     "the definition declares no accessible constructor",
		}
	}

	inst := &Instance{
		def:   def,
		state: make(map[string]cty.Value, len(def.Properties())),
		types: make(map[string]typeref.Ref, len(def.Properties())),
	}
	for _, prop := range def.Properties() {
		inst.state[prop.Name] = zeroValue(prop.Type)
		inst.types[prop.Name] = prop.Type
	}
	return inst, nil
}

// zeroValue is the null/0/false-equivalent initial value for a property.
func zeroValue(typ typeref.Ref) cty.Value {
	concrete, ok := typ.ConcreteType(nil)
	if !ok {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	switch {
	case concrete.Equals(cty.Number):
		return cty.Zero
	case concrete.Equals(cty.Bool):
		return cty.False
	default:
		return cty.NullVal(concrete)
	}
}
