package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelkit/internal/modelgraph"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

func testHandlers() *rulesource.Handlers {
	handlers := rulesource.NewHandlers()
	handlers.RegisterCreator("make_strings", func(ctx context.Context, self *rulesource.Instance, inputs []*modelgraph.View) (cty.Value, error) {
		return cty.ListValEmpty(cty.String), nil
	})
	handlers.RegisterBody("append_one", func(ctx context.Context, self *rulesource.Instance, subject *modelgraph.View, inputs []*modelgraph.View) error {
		return subject.Set(cty.ListVal([]cty.Value{cty.StringVal("one")}))
	})
	return handlers
}

const sampleManifest = `
managed_type "BuildSettings" {
  extends = ["ModelElement"]

  property "name" {
    type = string
  }

  property "flags" {
    type = list(string)
  }
}

rule_source "StringRules" {
  property "prefix" {
    type = string
  }

  rule "strings" {
    kind   = "model"
    return = list(string)
    impl   = "make_strings"
  }

  rule "addOne" {
    kind = "mutate"
    impl = "append_one"

    param {
      type = list(string)
      path = "strings"
    }
  }
}
`

func TestDecodeSource(t *testing.T) {
	m, err := DecodeSource("sample.hcl", []byte(sampleManifest), testHandlers())
	require.NoError(t, err)

	require.Len(t, m.Types, 1)
	decl := m.Types[0]
	assert.Equal(t, "BuildSettings", decl.Name())
	assert.Equal(t, []string{"ModelElement"}, decl.Supertypes())
	require.Len(t, decl.Properties(), 2)
	assert.True(t, decl.Properties()[1].Type.Equal(typeref.ListOf(typeref.Prim(cty.String))))

	require.Len(t, m.Definitions, 1)
	def := m.Definitions[0]
	assert.Equal(t, "StringRules", def.Name())
	assert.Equal(t, rulesource.Marker, def.Base())
	require.Len(t, def.Methods(), 2)

	creation := def.Methods()[0]
	assert.Equal(t, []rulesource.Kind{rulesource.Model}, creation.Kinds)
	assert.True(t, creation.Return.Equal(typeref.ListOf(typeref.Prim(cty.String))))
	assert.NotNil(t, creation.Creator)
	assert.Nil(t, creation.Body)

	mutation := def.Methods()[1]
	assert.Equal(t, []rulesource.Kind{rulesource.Mutate}, mutation.Kinds)
	assert.True(t, mutation.Return.IsVoid())
	require.Len(t, mutation.Params, 1)
	assert.Equal(t, "strings", mutation.Params[0].Path)
	assert.NotNil(t, mutation.Body)
}

func TestDecodeSourceUnknownKindSuggestsClosest(t *testing.T) {
	src := `
rule_source "Typo" {
  rule "addOne" {
    kind = "mutat"
    impl = "append_one"
  }
}
`
	_, err := DecodeSource("typo.hcl", []byte(src), testHandlers())
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown rule kind "mutat", did you mean "mutate"?`)
}

func TestDecodeSourceUnknownKindFarFromEverything(t *testing.T) {
	src := `
rule_source "Typo" {
  rule "addOne" {
    kind = "frobnicate_extremely"
    impl = "append_one"
  }
}
`
	_, err := DecodeSource("typo.hcl", []byte(src), testHandlers())
	require.Error(t, err)
	assert.ErrorContains(t, err, "must be one of [model, defaults, mutate, finalize, validate, rules, component_type, binary_type, language_type]")
}

func TestDecodeSourceMissingImpl(t *testing.T) {
	src := `
rule_source "NoImpl" {
  rule "addOne" {
    kind = "mutate"

    param {
      type = list(string)
    }
  }
}
`
	_, err := DecodeSource("noimpl.hcl", []byte(src), testHandlers())
	require.Error(t, err)
	assert.ErrorContains(t, err, "kind mutate requires an impl")
}

func TestDecodeSourceUnregisteredImpl(t *testing.T) {
	src := `
rule_source "Missing" {
  rule "addOne" {
    kind = "mutate"
    impl = "nope"

    param {
      type = list(string)
    }
  }
}
`
	_, err := DecodeSource("missing.hcl", []byte(src), testHandlers())
	require.Error(t, err)
	assert.ErrorContains(t, err, `no rule body named "nope" is registered`)
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rules.hcl", sampleManifest)
	writeFile(t, dir, "ignored.txt", "not a manifest")

	m, err := Load(context.Background(), dir, testHandlers())
	require.NoError(t, err)
	assert.Len(t, m.Definitions, 1)
	assert.Len(t, m.Types, 1)
}
