package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelkit/internal/modelgraph"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/taskengine"
	"github.com/zclconf/go-cty/cty"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func appHandlers() *rulesource.Handlers {
	handlers := rulesource.NewHandlers()
	handlers.RegisterCreator("make_strings", func(ctx context.Context, self *rulesource.Instance, inputs []*modelgraph.View) (cty.Value, error) {
		return cty.ListValEmpty(cty.String), nil
	})
	handlers.RegisterBody("append_one", func(ctx context.Context, self *rulesource.Instance, subject *modelgraph.View, inputs []*modelgraph.View) error {
		return subject.Set(cty.ListVal([]cty.Value{cty.StringVal("one")}))
	})
	return handlers
}

func TestRunFullConfigurationPass(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "rules.hcl", `
rule_source "StringRules" {
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
`)

	cfg, err := NewConfig(Config{
		ManifestPath: dir,
		RealizePath:  "strings",
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	a := NewApp(&out, cfg, appHandlers())
	require.NoError(t, a.Run(context.Background()))
}

func TestRunRulesDriveTaskEngine(t *testing.T) {
	// A finalize rule wired through a manifest impl calls the opaque task
	// engine; the pipeline only guarantees the call lands in role order.
	dir := t.TempDir()
	writeManifest(t, dir, "rules.hcl", `
rule_source "TaskRules" {
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

  rule "wireTasks" {
    kind = "finalize"
    impl = "wire_tasks"

    param {
      type = list(string)
      path = "strings"
    }
  }
}
`)

	engine := taskengine.NewRecording()
	handlers := appHandlers()
	handlers.RegisterBody("wire_tasks", func(ctx context.Context, self *rulesource.Instance, subject *modelgraph.View, inputs []*modelgraph.View) error {
		if err := engine.CreateTask(ctx, subject.Path(), "assemble"); err != nil {
			return err
		}
		// The mutate rule has already run by finalize time.
		return engine.DeclareInput(ctx, "assemble", subject.Value().AsValueSlice()[0].AsString())
	})

	cfg, err := NewConfig(Config{
		ManifestPath: dir,
		RealizePath:  "strings",
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	a := NewApp(&out, cfg, handlers)
	require.NoError(t, a.Run(context.Background()))

	require.Len(t, engine.Tasks(), 1)
	task := engine.Tasks()[0]
	assert.Equal(t, "assemble", task.Name)
	assert.Equal(t, "strings", task.Scope.String())
	assert.Equal(t, []string{"one"}, task.Inputs)
}

func TestRunReportsInvalidRuleSource(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "rules.hcl", `
rule_source "Broken" {
  base = "NotTheMarker"

  rule "addOne" {
    kind = "mutate"
    impl = "append_one"

    param {
      type = list(string)
      path = "strings"
    }
  }
}
`)

	cfg, err := NewConfig(Config{ManifestPath: dir, LogFormat: "text", LogLevel: "error"})
	require.NoError(t, err)

	var out bytes.Buffer
	a := NewApp(&out, cfg, appHandlers())
	err = a.Run(context.Background())
	require.ErrorContains(t, err, "1 of 1 rule sources are invalid")
	assert.Contains(t, out.String(), "Broken is not a valid rule source:\n- rule source Broken must directly extend RuleSource")
}

func TestRunRealizeFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "rules.hcl", `
rule_source "Empty" {
}
`)

	cfg, err := NewConfig(Config{
		ManifestPath: dir,
		RealizePath:  "ghost",
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	a := NewApp(&out, cfg, appHandlers())
	err = a.Run(context.Background())
	require.ErrorContains(t, err, "ghost")
}

func TestNewConfigRequiresManifestPath(t *testing.T) {
	_, err := NewConfig(Config{})
	require.ErrorContains(t, err, "ManifestPath is a required configuration field")
}
