package rulesource

import (
	"fmt"
	"log/slog"
	"sync"
)

// Handlers maps the implementation names used in manifests to compiled Go
// rule bodies. It plays the same role for rule sources that a runner
// handler registry plays for task runners: manifests stay declarative and
// reference behavior by name.
type Handlers struct {
	mu       sync.RWMutex
	bodies   map[string]BodyFunc
	creators map[string]CreatorFunc
}

// NewHandlers creates an empty handler registry.
func NewHandlers() *Handlers {
	return &Handlers{
		bodies:   make(map[string]BodyFunc),
		creators: make(map[string]CreatorFunc),
	}
}

// RegisterBody registers the implementation of a void rule method.
func (h *Handlers) RegisterBody(name string, fn BodyFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bodies[name]; exists {
		panic(fmt.Sprintf("rule body with name '%s' already registered", name))
	}
	slog.Debug("Registering rule body.", "name", name)
	h.bodies[name] = fn
}

// RegisterCreator registers the implementation of a value-returning
// creation method.
func (h *Handlers) RegisterCreator(name string, fn CreatorFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.creators[name]; exists {
		panic(fmt.Sprintf("creator with name '%s' already registered", name))
	}
	slog.Debug("Registering creator.", "name", name)
	h.creators[name] = fn
}

// Body looks up a registered rule body.
func (h *Handlers) Body(name string) (BodyFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.bodies[name]
	return fn, ok
}

// Creator looks up a registered creator.
func (h *Handlers) Creator(name string) (CreatorFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.creators[name]
	return fn, ok
}
