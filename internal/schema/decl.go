package schema

import (
	"fmt"

	"github.com/vk/modelkit/internal/typeref"
)

// Property is one declared property of a managed type.
type Property struct {
	// Name is the property name, unique within its declaring type.
	Name string
	// Type is the declared property type.
	Type typeref.Ref
}

// ManagedType is the structural declaration of a managed (schema-synthesized)
// type: an ordered list of properties plus declared supertypes. Declarations
// are immutable once built.
type ManagedType struct {
	name       string
	typeParams []string
	supertypes []string
	properties []Property
}

// Name returns the declared type name.
func (m *ManagedType) Name() string { return m.name }

// TypeParams returns the declared type parameter names, if any. A managed
// type declaring type parameters is rejected by the store.
func (m *ManagedType) TypeParams() []string { return m.typeParams }

// Supertypes returns the names of the declared supertypes.
func (m *ManagedType) Supertypes() []string { return m.supertypes }

// Properties returns the declared properties in declaration order.
func (m *ManagedType) Properties() []Property { return m.properties }

// ManagedTypeBuilder assembles a ManagedType declaration.
type ManagedTypeBuilder struct {
	decl ManagedType
}

// NewManagedType starts a declaration for the named managed type.
func NewManagedType(name string) *ManagedTypeBuilder {
	return &ManagedTypeBuilder{decl: ManagedType{name: name}}
}

// Property declares a property with the given name and type.
func (b *ManagedTypeBuilder) Property(name string, typ typeref.Ref) *ManagedTypeBuilder {
	b.decl.properties = append(b.decl.properties, Property{Name: name, Type: typ})
	return b
}

// Extends declares one or more supertypes.
func (b *ManagedTypeBuilder) Extends(names ...string) *ManagedTypeBuilder {
	b.decl.supertypes = append(b.decl.supertypes, names...)
	return b
}

// TypeParam declares a type parameter. Parameterized managed types are
// always rejected at validation time; the builder records the declaration so
// the store can produce the diagnostic.
func (b *ManagedTypeBuilder) TypeParam(names ...string) *ManagedTypeBuilder {
	b.decl.typeParams = append(b.decl.typeParams, names...)
	return b
}

// Build finalizes the declaration.
func (b *ManagedTypeBuilder) Build() (*ManagedType, error) {
	if b.decl.name == "" {
		return nil, fmt.Errorf("managed type declaration requires a name")
	}
	seen := make(map[string]struct{}, len(b.decl.properties))
	for _, p := range b.decl.properties {
		if p.Name == "" {
			return nil, fmt.Errorf("managed type %s declares a property with no name", b.decl.name)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("managed type %s declares property %q more than once", b.decl.name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	decl := b.decl
	return &decl, nil
}

// MustBuild is Build for declarations known to be well-formed.
func (b *ManagedTypeBuilder) MustBuild() *ManagedType {
	decl, err := b.Build()
	if err != nil {
		panic(err)
	}
	return decl
}
