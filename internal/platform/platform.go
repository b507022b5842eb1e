// Package platform is the boundary to dependency and platform resolution.
// A rule may ask for a platform satisfying a requirement; the model core
// treats the result as an opaque value to bind into the graph.
package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Requirement names a platform a rule needs.
type Requirement struct {
	Name    string
	Version string
}

func (r Requirement) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "@" + r.Version
}

// Platform is an opaque resolved platform, ready to bind into the graph.
type Platform struct {
	Requirement Requirement
	Value       cty.Value
}

// Resolver resolves requirements to platforms.
type Resolver interface {
	Resolve(ctx context.Context, req Requirement) (Platform, error)
}

// Static is a Resolver backed by a fixed table, for tests and offline use.
// It records every requirement it was asked for.
type Static struct {
	mu       sync.Mutex
	known    map[string]Platform
	resolved []Requirement
}

// NewStatic creates a resolver with no known platforms.
func NewStatic() *Static {
	return &Static{known: make(map[string]Platform)}
}

// Add registers a resolvable platform.
func (s *Static) Add(req Requirement, value cty.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[req.String()] = Platform{Requirement: req, Value: value}
}

func (s *Static) Resolve(ctx context.Context, req Requirement) (Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = append(s.resolved, req)
	p, ok := s.known[req.String()]
	if !ok {
		return Platform{}, fmt.Errorf("no platform satisfies requirement %s", req)
	}
	return p, nil
}

// Resolved returns every requirement seen, in call order.
func (s *Static) Resolved() []Requirement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Requirement, len(s.resolved))
	copy(out, s.resolved)
	return out
}
