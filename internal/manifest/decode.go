package manifest

import (
	"fmt"

	"github.com/agext/levenshtein"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/schema"
	"github.com/vk/modelkit/internal/typeref"
)

// maxSuggestionDistance bounds how far an unknown kind name may be from a
// real one before the "did you mean" hint is dropped.
const maxSuggestionDistance = 3

func newManagedTypeFromHCL(parsed *hclManagedType) (*schema.ManagedType, error) {
	builder := schema.NewManagedType(parsed.Name)
	if len(parsed.Extends) > 0 {
		builder.Extends(parsed.Extends...)
	}

	vars := make(map[string]struct{}, len(parsed.TypeParams))
	if len(parsed.TypeParams) > 0 {
		builder.TypeParam(parsed.TypeParams...)
		for _, name := range parsed.TypeParams {
			vars[name] = struct{}{}
		}
	}

	for _, prop := range parsed.Properties {
		typ, err := typeref.ParseExpr(prop.Type, vars)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.Name, err)
		}
		builder.Property(prop.Name, typ)
	}
	return builder.Build()
}

func newDefinitionFromHCL(parsed *hclRuleSource, handlers *rulesource.Handlers) (*rulesource.Definition, error) {
	builder := rulesource.NewDefinition(parsed.Name)
	if parsed.Base != nil {
		builder.Base(*parsed.Base)
	}

	for _, prop := range parsed.Properties {
		typ, err := typeref.ParseExpr(prop.Type, nil)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.Name, err)
		}
		builder.Property(prop.Name, typ)
	}

	for _, rule := range parsed.Rules {
		method, err := newMethodFromHCL(rule, handlers)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		builder.Method(method)
	}
	return builder.Build()
}

func newMethodFromHCL(parsed *hclRule, handlers *rulesource.Handlers) (rulesource.Method, error) {
	kind, ok := rulesource.KindByName(parsed.Kind)
	if !ok {
		return rulesource.Method{}, unknownKindError(parsed.Kind)
	}

	method := rulesource.Method{
		Name:  parsed.Name,
		Kinds: []rulesource.Kind{kind},
	}
	if parsed.Path != nil {
		method.Path = *parsed.Path
		method.HasPath = true
	}
	if parsed.Return != nil {
		ret, err := typeref.ParseExpr(parsed.Return, nil)
		if err != nil {
			return rulesource.Method{}, fmt.Errorf("return type: %w", err)
		}
		method.Return = ret
	}

	for i, parsedParam := range parsed.Params {
		typ, err := typeref.ParseExpr(parsedParam.Type, nil)
		if err != nil {
			return rulesource.Method{}, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		param := rulesource.Param{Type: typ}
		if parsedParam.Path != nil {
			param.Path = *parsedParam.Path
			param.HasPath = true
		}
		method.Params = append(method.Params, param)
	}

	if err := resolveImpl(&method, parsed, handlers); err != nil {
		return rulesource.Method{}, err
	}
	return method, nil
}

// resolveImpl binds the rule's declared implementation name to a compiled
// handler. Creation rules with a return type take a creator; every other
// rule takes a body. Type-registration rules work without an impl.
func resolveImpl(method *rulesource.Method, parsed *hclRule, handlers *rulesource.Handlers) error {
	kind := method.Kinds[0]
	declarative := kind == rulesource.ComponentType ||
		kind == rulesource.BinaryType ||
		kind == rulesource.LanguageType

	if parsed.Impl == nil {
		if declarative {
			return nil
		}
		return fmt.Errorf("kind %s requires an impl", kind)
	}

	name := *parsed.Impl
	if kind == rulesource.Model && !method.Return.IsVoid() {
		creator, ok := handlers.Creator(name)
		if !ok {
			return fmt.Errorf("no creator named %q is registered", name)
		}
		method.Creator = creator
		return nil
	}

	body, ok := handlers.Body(name)
	if !ok {
		return fmt.Errorf("no rule body named %q is registered", name)
	}
	method.Body = body
	return nil
}

// unknownKindError names the closest known kind when the declared one is a
// near miss, and falls back to listing the closed set.
func unknownKindError(name string) error {
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for _, candidate := range rulesource.KindNames() {
		if d := levenshtein.Distance(name, candidate, nil); d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}
	if best != "" {
		return fmt.Errorf("unknown rule kind %q, did you mean %q?", name, best)
	}
	return fmt.Errorf("unknown rule kind %q, must be one of %s", name, rulesource.KindSetString())
}
