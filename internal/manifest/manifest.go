// Package manifest loads rule-source and managed-type declarations from
// .hcl files. Manifests stay declarative: rule behavior is referenced by
// implementation name and resolved against a handler registry at load time.
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/modelkit/internal/ctxlog"
	"github.com/vk/modelkit/internal/fsutil"
	"github.com/vk/modelkit/internal/rulesource"
	"github.com/vk/modelkit/internal/schema"
)

// Manifest is the aggregated content of every manifest file under one path.
type Manifest struct {
	Definitions []*rulesource.Definition
	Types       []*schema.ManagedType
}

// hclManifestFile represents the top-level structure of a manifest file for
// decoding.
type hclManifestFile struct {
	RuleSources  []*hclRuleSource  `hcl:"rule_source,block"`
	ManagedTypes []*hclManagedType `hcl:"managed_type,block"`
}

type hclRuleSource struct {
	Name       string         `hcl:"name,label"`
	Base       *string        `hcl:"base,optional"`
	Properties []*hclProperty `hcl:"property,block"`
	Rules      []*hclRule     `hcl:"rule,block"`
}

type hclRule struct {
	Name   string         `hcl:"name,label"`
	Kind   string         `hcl:"kind"`
	Path   *string        `hcl:"path,optional"`
	Return hcl.Expression `hcl:"return,optional"`
	Impl   *string        `hcl:"impl,optional"`
	Params []*hclParam    `hcl:"param,block"`
}

type hclParam struct {
	Type hcl.Expression `hcl:"type"`
	Path *string        `hcl:"path,optional"`
}

type hclProperty struct {
	Name string         `hcl:"name,label"`
	Type hcl.Expression `hcl:"type"`
}

type hclManagedType struct {
	Name       string         `hcl:"name,label"`
	Extends    []string       `hcl:"extends,optional"`
	TypeParams []string       `hcl:"type_params,optional"`
	Properties []*hclProperty `hcl:"property,block"`
}

// Load finds and decodes every .hcl manifest file under the path.
func Load(ctx context.Context, manifestPath string, handlers *rulesource.Handlers) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading manifests from path", "path", manifestPath)

	files, err := fsutil.FindFilesByExtension(manifestPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find manifest files in %s: %w", manifestPath, err)
	}
	if len(files) == 0 {
		logger.Warn("No .hcl manifest files found in path", "path", manifestPath)
	}

	manifest := &Manifest{}
	parser := hclparse.NewParser()
	for _, file := range files {
		logger.Debug("Decoding manifest file", "path", file)
		if err := decodeFile(file, parser, handlers, manifest); err != nil {
			return nil, err
		}
	}
	return manifest, nil
}

// DecodeSource decodes a single in-memory manifest, mainly for tests.
func DecodeSource(filename string, src []byte, handlers *rulesource.Handlers) (*Manifest, error) {
	manifest := &Manifest{}
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	if err := decodeBody(filename, hclFile.Body, handlers, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func decodeFile(filePath string, parser *hclparse.Parser, handlers *rulesource.Handlers, manifest *Manifest) error {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}
	return decodeBody(filePath, hclFile.Body, handlers, manifest)
}

func decodeBody(filePath string, body hcl.Body, handlers *rulesource.Handlers, manifest *Manifest) error {
	var parsedFile hclManifestFile
	diags := gohcl.DecodeBody(body, nil, &parsedFile)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	for _, parsedType := range parsedFile.ManagedTypes {
		decl, err := newManagedTypeFromHCL(parsedType)
		if err != nil {
			return fmt.Errorf("error in managed type %q in file %s: %w", parsedType.Name, filePath, err)
		}
		manifest.Types = append(manifest.Types, decl)
	}
	for _, parsedSource := range parsedFile.RuleSources {
		def, err := newDefinitionFromHCL(parsedSource, handlers)
		if err != nil {
			return fmt.Errorf("error in rule source %q in file %s: %w", parsedSource.Name, filePath, err)
		}
		manifest.Definitions = append(manifest.Definitions, def)
	}
	return nil
}
