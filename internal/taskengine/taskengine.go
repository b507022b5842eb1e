// Package taskengine is the boundary to the build-task execution engine.
// Rules call an opaque "create a task, declare its inputs and outputs"
// surface; the model core only guarantees those calls happen at the right
// point in role order, never what they do.
package taskengine

import (
	"context"
	"sync"

	"github.com/vk/modelkit/internal/modelpath"
)

// Engine creates tasks and records their declared inputs and outputs.
type Engine interface {
	CreateTask(ctx context.Context, scope modelpath.Path, name string) error
	DeclareInput(ctx context.Context, task string, input string) error
	DeclareOutput(ctx context.Context, task string, output string) error
}

// TaskRecord is one task a recording engine observed.
type TaskRecord struct {
	Scope   modelpath.Path
	Name    string
	Inputs  []string
	Outputs []string
}

// Recording is an Engine that remembers every call, for tests and dry runs.
type Recording struct {
	mu    sync.Mutex
	tasks []*TaskRecord
	index map[string]*TaskRecord
}

// NewRecording creates an empty recording engine.
func NewRecording() *Recording {
	return &Recording{index: make(map[string]*TaskRecord)}
}

func (r *Recording) CreateTask(ctx context.Context, scope modelpath.Path, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := &TaskRecord{Scope: scope, Name: name}
	r.tasks = append(r.tasks, record)
	r.index[name] = record
	return nil
}

func (r *Recording) DeclareInput(ctx context.Context, task string, input string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.index[task]; ok {
		record.Inputs = append(record.Inputs, input)
	}
	return nil
}

func (r *Recording) DeclareOutput(ctx context.Context, task string, output string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.index[task]; ok {
		record.Outputs = append(record.Outputs, output)
	}
	return nil
}

// Tasks returns the recorded tasks in creation order.
func (r *Recording) Tasks() []*TaskRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*TaskRecord, len(r.tasks))
	copy(out, r.tasks)
	return out
}
