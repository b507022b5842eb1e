// Package app assembles the configuration pipeline behind the CLI: it
// loads manifests, registers managed types, extracts rule sources through
// the cache, applies them to a model registry, and realizes requested
// elements.
package app
