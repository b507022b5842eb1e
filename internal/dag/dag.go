package dag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Graph is a collection of nodes and their binding dependencies. All
// operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by canonical model path.
	nodes map[string]*node
}

// node represents a single vertex. It is un-exported to enforce interaction
// with the graph via path strings, not by direct struct manipulation.
type node struct {
	// path is the canonical model path of the node.
	path string
	// deps holds the set of nodes this node consumes as inputs.
	deps map[string]*node
	// dependents holds the set of nodes that consume this node.
	dependents map[string]*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node for the given model path. Adding an existing path is
// a no-op.
func (g *Graph) AddNode(path string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[path]; ok {
		return
	}

	g.nodes[path] = &node{
		path:       path,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge records that the node at consumerPath consumes the node at
// inputPath. An error is returned if either node does not exist or if the
// edge would be self-referential.
func (g *Graph) AddEdge(inputPath, consumerPath string) error {
	if inputPath == consumerPath {
		return fmt.Errorf("rule at %q cannot consume its own subject as an input", inputPath)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	input, ok := g.nodes[inputPath]
	if !ok {
		return fmt.Errorf("input node not found: %s", inputPath)
	}

	consumer, ok := g.nodes[consumerPath]
	if !ok {
		return fmt.Errorf("consumer node not found: %s", consumerPath)
	}

	consumer.deps[inputPath] = input
	input.dependents[consumerPath] = consumer

	return nil
}

// Dependencies returns the sorted input paths of the given node.
func (g *Graph) Dependencies(path string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[path]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", path)
	}

	deps := make([]string, 0, len(n.deps))
	for dep := range n.deps {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps, nil
}

// Dependents returns the sorted consumer paths of the given node.
func (g *Graph) Dependents(path string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[path]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", path)
	}

	dependents := make([]string, 0, len(n.dependents))
	for dep := range n.dependents {
		dependents = append(dependents, dep)
	}
	sort.Strings(dependents)
	return dependents, nil
}

// DetectCycles checks the graph for binding cycles. It returns a non-nil
// error naming the full cycle path. Nodes are visited in sorted order so
// repeated runs over the same graph produce the identical report.
func (g *Graph) DetectCycles() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	// Classic depth-first search with three node states: permanently
	// cleared, on the current recursion stack, and unvisited.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.path] {
			return nil
		}
		if temporary[n.path] {
			return fmt.Errorf("binding cycle detected: %s -> %s", strings.Join(stack, " -> "), n.path)
		}

		temporary[n.path] = true
		stack = append(stack, n.path)

		for _, dependent := range sortedNodes(n.dependents) {
			if err := visit(dependent); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.path)
		permanent[n.path] = true

		return nil
	}

	for _, n := range sortedNodes(g.nodes) {
		if !permanent[n.path] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}

	return nil
}

// sortedNodes returns the values of a node map ordered by path.
func sortedNodes(m map[string]*node) []*node {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	nodes := make([]*node, len(paths))
	for i, path := range paths {
		nodes[i] = m[path]
	}
	return nodes
}
