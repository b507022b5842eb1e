package typeref

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestString(t *testing.T) {
	assert.Equal(t, "string", Prim(cty.String).String())
	assert.Equal(t, "any", Any().String())
	assert.Equal(t, "void", Void.String())
	assert.Equal(t, "list(string)", ListOf(Prim(cty.String)).String())
	assert.Equal(t, "map(number)", MapOf(Prim(cty.Number)).String())
	assert.Equal(t, "Person", NamedType("Person").String())
	assert.Equal(t, "Registry<string>", NamedType("Registry", Prim(cty.String)).String())
	assert.Equal(t, "list(t)", ListOf(Var("t")).String())
}

func TestUnify(t *testing.T) {
	t.Run("binds a variable through a list", func(t *testing.T) {
		binding := Binding{}
		err := ListOf(Var("t")).Unify(cty.List(cty.String), binding)
		require.NoError(t, err)
		assert.True(t, binding["t"].Equals(cty.String))
	})

	t.Run("binding is shared across references", func(t *testing.T) {
		binding := Binding{}
		require.NoError(t, ListOf(Var("t")).Unify(cty.List(cty.String), binding))

		// A sibling reference using the same variable sees the substitution.
		err := Var("t").Unify(cty.String, binding)
		assert.NoError(t, err)

		err = Var("t").Unify(cty.Number, binding)
		assert.ErrorContains(t, err, "already bound to string")
	})

	t.Run("rejects shape mismatches", func(t *testing.T) {
		err := ListOf(Prim(cty.String)).Unify(cty.String, Binding{})
		assert.ErrorContains(t, err, "not a list")

		err = Prim(cty.Bool).Unify(cty.List(cty.String), Binding{})
		assert.Error(t, err)
	})

	t.Run("accepts safe numeric conversions", func(t *testing.T) {
		// cty strings convert to numbers unsafely; unification allows it
		// because view projection converts on read.
		err := Prim(cty.String).Unify(cty.Number, Binding{})
		assert.NoError(t, err)
	})

	t.Run("any unifies with everything", func(t *testing.T) {
		assert.NoError(t, Any().Unify(cty.List(cty.Bool), Binding{}))
	})

	t.Run("named types match object values", func(t *testing.T) {
		obj := cty.Object(map[string]cty.Type{"name": cty.String})
		assert.NoError(t, NamedType("Person").Unify(obj, Binding{}))
		assert.Error(t, NamedType("Person").Unify(cty.String, Binding{}))
	})
}

func TestSubstitute(t *testing.T) {
	binding := Binding{"t": cty.String}
	sub := ListOf(Var("t")).Substitute(binding)
	assert.Equal(t, "list(string)", sub.String())

	// Unbound variables survive substitution.
	sub = MapOf(Var("u")).Substitute(binding)
	assert.Equal(t, "map(u)", sub.String())
}

func TestAssignableFrom(t *testing.T) {
	binding := Binding{}
	assert.True(t, ListOf(Var("t")).AssignableFrom(cty.List(cty.Number), binding))
	// AssignableFrom must not mutate the shared binding.
	assert.Empty(t, binding)
}

func TestCompatible(t *testing.T) {
	assert.True(t, ListOf(Prim(cty.String)).Compatible(ListOf(Var("t"))))
	assert.True(t, Var("t").Compatible(Prim(cty.Bool)))
	assert.True(t, Any().Compatible(NamedType("Person")))
	assert.True(t, NamedType("Person").Compatible(NamedType("Person")))
	assert.False(t, NamedType("Person").Compatible(NamedType("Task")))
	assert.False(t, ListOf(Prim(cty.String)).Compatible(Prim(cty.String)))
	assert.False(t, Prim(cty.String).Compatible(Prim(cty.Bool)))
}

func parseTypeExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestParseExpr(t *testing.T) {
	vars := map[string]struct{}{"t": {}}

	cases := []struct {
		src  string
		want string
	}{
		{"string", "string"},
		{"number", "number"},
		{"bool", "bool"},
		{"any", "any"},
		{"list(string)", "list(string)"},
		{"set(number)", "set(number)"},
		{"map(bool)", "map(bool)"},
		{"Person", "Person"},
		{"list(Person)", "list(Person)"},
		{"list(t)", "list(t)"},
		{"Registry(string)", "Registry<string>"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			ref, err := ParseExpr(parseTypeExpr(t, tc.src), vars)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ref.String())
		})
	}

	t.Run("nil expression defaults to any", func(t *testing.T) {
		ref, err := ParseExpr(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "any", ref.String())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ParseExpr(parseTypeExpr(t, "list(string, number)"), nil)
		assert.ErrorContains(t, err, "exactly one argument")

		_, err = ParseExpr(parseTypeExpr(t, "tuple(string)"), nil)
		assert.ErrorContains(t, err, "unknown type constructor")

		_, err = ParseExpr(parseTypeExpr(t, "whatever"), nil)
		assert.ErrorContains(t, err, "unknown primitive type")
	})
}
