package schema

import (
	"fmt"
	"strings"

	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// SchemaKind classifies what the store determined a type to be.
type SchemaKind int

const (
	// ValueKind is a plain value type (cty primitive or any).
	ValueKind SchemaKind = iota
	// ManagedKind is a schema-synthesized managed type.
	ManagedKind
	// CollectionKind is a list, set, or map of an element schema.
	CollectionKind
)

// PropertySchema is one validated property of a managed schema.
type PropertySchema struct {
	// Name is the property name.
	Name string
	// Type is the declared property type.
	Type typeref.Ref
	// Schema is the resolved schema of the property type.
	Schema *Schema
}

// Schema is the structural description of a type, produced by the store.
type Schema struct {
	// Kind classifies the type.
	Kind SchemaKind
	// Type is the reference the schema was produced for.
	Type typeref.Ref
	// Properties holds the validated properties of a managed schema, in
	// declaration order, supertype properties first.
	Properties []PropertySchema
	// Element is the element schema of a collection.
	Element *Schema
}

// Property returns the named property schema, or nil.
func (s *Schema) Property(name string) *PropertySchema {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			return &s.Properties[i]
		}
	}
	return nil
}

// ValueType returns the cty object type a managed schema realizes as, with
// one attribute per property. Non-managed schemas return the dynamic type.
func (s *Schema) ValueType() cty.Type {
	if s.Kind != ManagedKind {
		return cty.DynamicPseudoType
	}
	attrs := make(map[string]cty.Type, len(s.Properties))
	for _, p := range s.Properties {
		attrs[p.Name] = propertyValueType(p)
	}
	return cty.Object(attrs)
}

// DefaultValue synthesizes the initial backing value of a managed schema:
// an object with every property at its zero value (null, 0, or false).
// Non-managed schemas default to a null of their value type.
func (s *Schema) DefaultValue() cty.Value {
	if s.Kind != ManagedKind {
		if concrete, ok := s.Type.ConcreteType(nil); ok {
			return cty.NullVal(concrete)
		}
		return cty.NullVal(cty.DynamicPseudoType)
	}
	attrs := make(map[string]cty.Value, len(s.Properties))
	for _, p := range s.Properties {
		attrs[p.Name] = propertyZero(p)
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

func propertyZero(p PropertySchema) cty.Value {
	if p.Schema.Kind == ManagedKind {
		return p.Schema.DefaultValue()
	}
	concrete := propertyValueType(p)
	switch {
	case concrete.Equals(cty.Number):
		return cty.Zero
	case concrete.Equals(cty.Bool):
		return cty.False
	default:
		return cty.NullVal(concrete)
	}
}

func propertyValueType(p PropertySchema) cty.Type {
	if p.Schema.Kind == ManagedKind {
		return p.Schema.ValueType()
	}
	if concrete, ok := p.Type.ConcreteType(nil); ok {
		return concrete
	}
	return cty.DynamicPseudoType
}

// TrailEntry is one hop of the dependency trail leading to an invalid
// managed type: the property traversed and the type it declared.
type TrailEntry struct {
	// Property is the traversed property name; empty for the originating
	// type and for supertype hops.
	Property string
	// Supertype marks a hop into a declared supertype.
	Supertype bool
	// Type is the string form of the type at this hop.
	Type string
}

// InvalidManagedTypeError reports a type that cannot be managed, carrying
// the ordered dependency trail from the originating type to the offender.
type InvalidManagedTypeError struct {
	// Reason describes why the final type on the trail is invalid.
	Reason string
	// Trail starts at the originating managed type and ends at the
	// offending type.
	Trail []TrailEntry
}

// Error renders the trail exactly as documented:
//
//	Outer -> property 'p' (Nested) -> property 'q' (Offending<string>)
func (e *InvalidManagedTypeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "type %s is not a valid managed type: %s", e.Trail[len(e.Trail)-1].Type, e.Reason)
	if len(e.Trail) > 1 {
		sb.WriteString(". The type was analyzed due to the following dependencies: ")
		sb.WriteString(e.TrailString())
	}
	return sb.String()
}

// TrailString renders just the ordered dependency chain.
func (e *InvalidManagedTypeError) TrailString() string {
	var sb strings.Builder
	for i, entry := range e.Trail {
		if i == 0 {
			sb.WriteString(entry.Type)
			continue
		}
		switch {
		case entry.Supertype:
			fmt.Fprintf(&sb, " -> supertype (%s)", entry.Type)
		default:
			fmt.Fprintf(&sb, " -> property '%s' (%s)", entry.Property, entry.Type)
		}
	}
	return sb.String()
}
