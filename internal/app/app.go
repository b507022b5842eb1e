package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vk/modelkit/internal/ctxlog"
	"github.com/vk/modelkit/internal/extract"
	"github.com/vk/modelkit/internal/extractcache"
	"github.com/vk/modelkit/internal/manifest"
	"github.com/vk/modelkit/internal/modelgraph"
	"github.com/vk/modelkit/internal/modelpath"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/schema"
)

// App wires the whole pipeline: manifest loading, schema registration, rule
// extraction, and model graph application.
type App struct {
	output   io.Writer
	config   *Config
	handlers *rulesource.Handlers

	// PluginApplier, when set, applies plugin dependencies declared by
	// type-registration rules.
	PluginApplier modelgraph.PluginApplier
}

// NewApp creates an App instance ready to Run.
func NewApp(outW io.Writer, cfg *Config, handlers *rulesource.Handlers) *App {
	if handlers == nil {
		handlers = rulesource.NewHandlers()
	}
	return &App{output: outW, config: cfg, handlers: handlers}
}

// Run executes one full configuration pass: load manifests, extract every
// rule source, apply the results to a fresh registry, validate the binding
// graph, and realize the requested node if any.
func (a *App) Run(ctx context.Context) error {
	logger := newLogger(a.config.LogLevel, a.config.LogFormat, a.output)
	ctx = ctxlog.WithLogger(ctx, logger)

	loaded, err := manifest.Load(ctx, a.config.ManifestPath, a.handlers)
	if err != nil {
		return err
	}
	logger.Info("Manifests loaded.",
		"rule_sources", len(loaded.Definitions),
		"managed_types", len(loaded.Types))

	store := schema.NewStore()
	for _, decl := range loaded.Types {
		if err := store.Register(decl); err != nil {
			return err
		}
	}

	cache := extractcache.New(extract.New(store))
	registry := modelgraph.New(registryOptions(a.PluginApplier)...)

	invalid := 0
	for _, def := range loaded.Definitions {
		set, err := cache.Extract(ctx, def)
		if err != nil {
			invalid++
			fmt.Fprintln(a.output, err.Error())
			var ruleErr *extract.InvalidRuleSourceError
			if errors.As(err, &ruleErr) {
				continue
			}
			return err
		}
		if err := set.Apply(registry); err != nil {
			return err
		}
		logger.Debug("Rule source applied.", "definition", def.Name(), "rules", len(set.Rules))
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d rule sources are invalid", invalid, len(loaded.Definitions))
	}

	if err := registry.Validate(); err != nil {
		return err
	}
	for _, rule := range registry.UnboundRules() {
		logger.Warn("Rule subject never bound to a model element.", "rule", rule)
	}

	if a.config.RealizePath != "" {
		path := modelpath.MustParse(a.config.RealizePath)
		value, err := registry.Realize(ctx, path)
		if err != nil {
			return err
		}
		logger.Info("Model element realized.", "path", path.String(), "value", value.GoString())
	}

	logger.Info("Configuration pass complete.", "model_elements", len(registry.Paths()))
	return nil
}

func registryOptions(applier modelgraph.PluginApplier) []modelgraph.Option {
	if applier == nil {
		return nil
	}
	return []modelgraph.Option{modelgraph.WithPluginApplier(applier)}
}
