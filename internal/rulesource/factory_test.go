package rulesource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

func TestInstantiateSynthesizesProperties(t *testing.T) {
	def := NewDefinition("PersonRules").
		Property("name", typeref.Prim(cty.String)).
		Property("count", typeref.Prim(cty.Number)).
		Property("enabled", typeref.Prim(cty.Bool)).
		MustBuild()

	inst, err := NewFactory().Instantiate(def)
	require.NoError(t, err)

	name, err := inst.Get("name")
	require.NoError(t, err)
	assert.True(t, name.IsNull())

	count, err := inst.Get("count")
	require.NoError(t, err)
	assert.True(t, count.RawEquals(cty.Zero))

	enabled, err := inst.Get("enabled")
	require.NoError(t, err)
	assert.True(t, enabled.RawEquals(cty.False))
}

func TestInstanceSetEnforcesPropertyType(t *testing.T) {
	def := NewDefinition("PersonRules").
		Property("name", typeref.Prim(cty.String)).
		MustBuild()

	inst, err := NewFactory().Instantiate(def)
	require.NoError(t, err)

	require.NoError(t, inst.Set("name", cty.StringVal("alice")))
	got, err := inst.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.AsString())

	err = inst.Set("name", cty.ListValEmpty(cty.Bool))
	assert.Error(t, err)

	err = inst.Set("ghost", cty.StringVal("x"))
	assert.ErrorContains(t, err, `no property "ghost"`)
}

func TestInstantiateFreshInstances(t *testing.T) {
	def := NewDefinition("PersonRules").
		Property("name", typeref.Prim(cty.String)).
		MustBuild()

	factory := NewFactory()
	first, err := factory.Instantiate(def)
	require.NoError(t, err)
	require.NoError(t, first.Set("name", cty.StringVal("alice")))

	second, err := factory.Instantiate(def)
	require.NoError(t, err)
	name, err := second.Get("name")
	require.NoError(t, err)
	assert.True(t, name.IsNull(), "state must not leak between instances")
}

func TestInstantiateFailsWithoutConstructionPath(t *testing.T) {
	def := NewDefinition("SealedRules").PrivateConstructor().MustBuild()

	_, err := NewFactory().Instantiate(def)
	var instErr *InstantiationError
	require.ErrorAs(t, err, &instErr)
	assert.Equal(t, "SealedRules", instErr.Definition)
	assert.ErrorContains(t, err, "cannot create an instance of rule source SealedRules")
}

func TestBuilderRejectsDuplicateMethods(t *testing.T) {
	_, err := NewDefinition("Rules").
		Method(Method{Name: "configure", Params: []Param{{Type: typeref.Prim(cty.String)}}}).
		Method(Method{Name: "configure", Params: []Param{{Type: typeref.Prim(cty.String)}}}).
		Build()
	assert.ErrorContains(t, err, "more than once")
}

func TestMethodStringForm(t *testing.T) {
	m := Method{
		Name: "configure",
		Params: []Param{
			{Type: typeref.NamedType("Person")},
			{Type: typeref.ListOf(typeref.Prim(cty.String))},
		},
	}
	assert.Equal(t, "configure(Person, list(string))", m.StringForm())
	assert.Equal(t, "noop()", Method{Name: "noop"}.StringForm())
}

func TestHandlers(t *testing.T) {
	h := NewHandlers()
	h.RegisterBody("OnConfigure", nil)
	_, ok := h.Body("OnConfigure")
	assert.True(t, ok)
	_, ok = h.Body("Missing")
	assert.False(t, ok)
	assert.Panics(t, func() { h.RegisterBody("OnConfigure", nil) })

	h.RegisterCreator("CreatePerson", nil)
	_, ok = h.Creator("CreatePerson")
	assert.True(t, ok)
	assert.Panics(t, func() { h.RegisterCreator("CreatePerson", nil) })
}
