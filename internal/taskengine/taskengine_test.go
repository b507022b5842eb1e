package taskengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelkit/internal/modelgraph"
	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/platform"
	"github.com/vk/modelkit/internal/typeref"
	"github.com/zclconf/go-cty/cty"
)

// Rules only see the engine and resolver as opaque services; what matters
// is that their calls land during the right role bucket.
func TestRulesCallCollaboratorsInRoleOrder(t *testing.T) {
	engine := NewRecording()
	resolver := platform.NewStatic()
	resolver.Add(platform.Requirement{Name: "jvm", Version: "17"}, cty.StringVal("openjdk-17"))

	reg := modelgraph.New()
	path := modelpath.MustParse("binary")
	require.NoError(t, reg.Register(modelgraph.Registration{
		Path:       path,
		Type:       typeref.Prim(cty.String),
		Descriptor: "BinaryRules#binary()",
		Create: func(ctx context.Context, inputs []*modelgraph.View) (cty.Value, error) {
			p, err := resolver.Resolve(ctx, platform.Requirement{Name: "jvm", Version: "17"})
			if err != nil {
				return cty.NilVal, err
			}
			return p.Value, nil
		},
	}))
	require.NoError(t, reg.Configure(modelgraph.Action{
		Role:        modelgraph.Finalize,
		Subject:     path,
		SubjectType: typeref.Prim(cty.String),
		Descriptor:  "BinaryRules#tasks(string)",
		Do: func(ctx context.Context, subject *modelgraph.View, inputs []*modelgraph.View) error {
			if err := engine.CreateTask(ctx, subject.Path(), "assemble"); err != nil {
				return err
			}
			return engine.DeclareInput(ctx, "assemble", subject.Value().AsString())
		},
	}))

	_, err := reg.Realize(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, engine.Tasks(), 1)
	task := engine.Tasks()[0]
	assert.Equal(t, "assemble", task.Name)
	assert.Equal(t, "binary", task.Scope.String())
	assert.Equal(t, []string{"openjdk-17"}, task.Inputs)
	assert.Equal(t, []platform.Requirement{{Name: "jvm", Version: "17"}}, resolver.Resolved())
}

func TestEngineCallsFollowRoleOrder(t *testing.T) {
	// The finalize rule is configured first, but the engine must observe
	// the mutate rule's task before it: call order follows role order,
	// not configuration order.
	engine := NewRecording()
	reg := modelgraph.New()
	path := modelpath.MustParse("component")
	require.NoError(t, reg.Register(modelgraph.Registration{
		Path:       path,
		Type:       typeref.Prim(cty.String),
		Descriptor: "ComponentRules#component()",
		Create: func(ctx context.Context, inputs []*modelgraph.View) (cty.Value, error) {
			return cty.StringVal("lib"), nil
		},
	}))
	createTask := func(role modelgraph.Role, descriptor, name string) modelgraph.Action {
		return modelgraph.Action{
			Role:        role,
			Subject:     path,
			SubjectType: typeref.Prim(cty.String),
			Descriptor:  descriptor,
			Do: func(ctx context.Context, subject *modelgraph.View, inputs []*modelgraph.View) error {
				return engine.CreateTask(ctx, subject.Path(), name)
			},
		}
	}
	require.NoError(t, reg.Configure(createTask(modelgraph.Finalize, "ComponentRules#assemble(string)", "assemble")))
	require.NoError(t, reg.Configure(createTask(modelgraph.Mutate, "ComponentRules#compile(string)", "compile")))

	_, err := reg.Realize(context.Background(), path)
	require.NoError(t, err)

	tasks := engine.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "compile", tasks[0].Name)
	assert.Equal(t, "assemble", tasks[1].Name)
}
