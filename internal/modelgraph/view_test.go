package modelgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// genericListRegistration declares its node as list(t) and realizes it as a
// concrete list of strings, capturing t = string.
func genericListRegistration(path string) Registration {
	return Registration{
		Path:       modelpath.MustParse(path),
		Type:       typeref.ListOf(typeref.Var("t")),
		Descriptor: "Rules#" + path + "()",
		Create: func(ctx context.Context, inputs []*View) (cty.Value, error) {
			return cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}), nil
		},
	}
}

func TestViewCapturesTypeVariables(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(genericListRegistration("names")))

	view, err := r.AsImmutable(context.Background(), typeref.ListOf(typeref.Var("t")), modelpath.MustParse("names"))
	require.NoError(t, err)

	// t resolved to string, and the substitution is visible on the view type.
	assert.Equal(t, "list(string)", view.Type().String())

	// A sibling projection by the same variable sees the same binding and
	// cannot re-capture t as a different type.
	_, err = r.AsImmutable(context.Background(), typeref.ListOf(typeref.Prim(cty.String)), modelpath.MustParse("names"))
	assert.NoError(t, err)
}

func TestViewBindingSharedWithByTypeInputs(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(genericListRegistration("names")))

	var seen string
	require.NoError(t, r.Register(Registration{
		Path:       modelpath.MustParse("report"),
		Type:       typeref.Prim(cty.String),
		Descriptor: "Rules#report(list(string))",
		Inputs:     []Reference{ByType(typeref.ListOf(typeref.Prim(cty.String)))},
		Create: func(ctx context.Context, inputs []*View) (cty.Value, error) {
			seen = inputs[0].Type().String()
			return cty.StringVal("ok"), nil
		},
	}))

	_, err := r.Realize(context.Background(), modelpath.MustParse("report"))
	require.NoError(t, err)
	assert.Equal(t, "list(string)", seen)
}

func TestViewTypeMismatch(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(genericListRegistration("names")))

	_, err := r.AsImmutable(context.Background(), typeref.ListOf(typeref.Prim(cty.Bool)), modelpath.MustParse("names"))
	var projErr *ProjectionError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, "names", projErr.Path.String())
}

func TestImmutableViewRejectsWrites(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stringListRegistration("strings", "Rules#strings()")))

	view, err := r.AsImmutable(context.Background(), typeref.ListOf(typeref.Prim(cty.String)), modelpath.MustParse("strings"))
	require.NoError(t, err)
	assert.False(t, view.Mutable())
	err = view.Set(cty.ListValEmpty(cty.String))
	assert.ErrorContains(t, err, "immutable view")
}

func TestMutableViewWritesBack(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stringListRegistration("strings", "Rules#strings()")))

	view, err := r.AsMutable(context.Background(), typeref.ListOf(typeref.Prim(cty.String)), modelpath.MustParse("strings"))
	require.NoError(t, err)
	require.NoError(t, view.Set(cty.ListVal([]cty.Value{cty.StringVal("x")})))

	value, err := r.Realize(context.Background(), modelpath.MustParse("strings"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, listElements(t, value))
}

func TestMutableViewRejectsDeclaredTypeViolation(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stringListRegistration("strings", "Rules#strings()")))

	view, err := r.AsMutable(context.Background(), typeref.ListOf(typeref.Prim(cty.String)), modelpath.MustParse("strings"))
	require.NoError(t, err)

	err = view.Set(cty.True)
	var projErr *ProjectionError
	require.ErrorAs(t, err, &projErr)
}

func TestByTypeBindingErrors(t *testing.T) {
	t.Run("zero matches", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Register(Registration{
			Path:       modelpath.MustParse("consumer"),
			Type:       typeref.Prim(cty.String),
			Descriptor: "Rules#consumer(bool)",
			Inputs:     []Reference{ByType(typeref.Prim(cty.Bool))},
			Create: func(ctx context.Context, inputs []*View) (cty.Value, error) {
				return cty.StringVal(""), nil
			},
		}))

		_, err := r.Realize(context.Background(), modelpath.MustParse("consumer"))
		var bindErr *BindingError
		require.ErrorAs(t, err, &bindErr)
		assert.Empty(t, bindErr.Candidates)
		assert.ErrorContains(t, err, "no model element of type bool")
	})

	t.Run("multiple matches name the candidates", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Register(stringListRegistration("first", "Rules#first()")))
		require.NoError(t, r.Register(stringListRegistration("second", "Rules#second()")))
		require.NoError(t, r.Register(Registration{
			Path:       modelpath.MustParse("consumer"),
			Type:       typeref.Prim(cty.String),
			Descriptor: "Rules#consumer(list(string))",
			Inputs:     []Reference{ByType(typeref.ListOf(typeref.Prim(cty.String)))},
			Create: func(ctx context.Context, inputs []*View) (cty.Value, error) {
				return cty.StringVal(""), nil
			},
		}))

		_, err := r.Realize(context.Background(), modelpath.MustParse("consumer"))
		var bindErr *BindingError
		require.ErrorAs(t, err, &bindErr)
		assert.Equal(t, []string{"first", "second"}, bindErr.Candidates)
		assert.ErrorContains(t, err, "Rules#consumer(list(string))")
	})
}
