package engine

import (
	"fmt"
	"sort"
	"strings"
)

// OrderBuilder computes the deterministic component resolution order for a
// synthesis run. Binding directives imply edges: a binding's target must be
// resolved (and have published its capabilities) before its source, so the
// graph is target -> source. Components at the same depth are ordered by
// name: resolution order must never depend on map iteration order, because
// stable ordering of synthesized output is itself a correctness property.
type OrderBuilder struct {
	// specs maps component names to their specs
	specs map[string]*ComponentSpec

	// adjacencyList maps component names to components that depend on them
	adjacencyList map[string][]string

	// inDegree tracks the number of incoming edges for each node
	inDegree map[string]int

	// levels maps resolution depth to component names at that depth
	levels [][]string
}

// NewOrderBuilder creates a new order builder.
func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{
		specs:         make(map[string]*ComponentSpec),
		adjacencyList: make(map[string][]string),
		inDegree:      make(map[string]int),
		levels:        make([][]string, 0),
	}
}

// Order computes the component resolution order from specs and directives.
// It validates directive endpoints and detects dependency cycles.
func (b *OrderBuilder) Order(specs []ComponentSpec, directives []BindingDirective) ([]string, error) {
	if len(specs) == 0 {
		return []string{}, nil
	}

	if err := b.initialize(specs, directives); err != nil {
		return nil, err
	}

	if err := b.detectCycles(); err != nil {
		return nil, err
	}

	if err := b.computeLevels(); err != nil {
		return nil, err
	}

	order := make([]string, 0, len(b.specs))
	for _, level := range b.levels {
		order = append(order, level...)
	}
	return order, nil
}

// initialize sets up the internal data structures.
func (b *OrderBuilder) initialize(specs []ComponentSpec, directives []BindingDirective) error {
	for i := range specs {
		spec := &specs[i]
		if spec.Name == "" {
			return NewConfigurationError("component has empty name", nil).
				WithCode(ErrCodeManifestInvalid)
		}

		if _, exists := b.specs[spec.Name]; exists {
			return NewConfigurationError(fmt.Sprintf("duplicate component name: %s", spec.Name), nil).
				WithCode(ErrCodeManifestInvalid)
		}

		b.specs[spec.Name] = spec
		b.adjacencyList[spec.Name] = make([]string, 0)
		b.inDegree[spec.Name] = 0
	}

	for _, d := range directives {
		if _, exists := b.specs[d.Source]; !exists {
			return NewConfigurationError(
				fmt.Sprintf("binding references unknown source component %q", d.Source), nil).
				WithCode(ErrCodeManifestInvalid)
		}
		if _, exists := b.specs[d.Target]; !exists {
			return NewConfigurationError(
				fmt.Sprintf("binding references unknown target component %q", d.Target), nil).
				WithCode(ErrCodeManifestInvalid)
		}
		if d.Source == d.Target {
			return NewConfigurationError(
				fmt.Sprintf("component %q cannot bind to itself", d.Source), nil).
				WithCode(ErrCodeManifestInvalid)
		}

		// Edge from target to source: the target resolves first.
		b.adjacencyList[d.Target] = append(b.adjacencyList[d.Target], d.Source)
		b.inDegree[d.Source]++
	}

	return nil
}

// detectCycles uses depth-first search to detect circular binding chains.
func (b *OrderBuilder) detectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)

	names := make([]string, 0, len(b.specs))
	for name := range b.specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] {
			if cycle, err := b.detectCyclesUtil(name, visited, recStack, path); err != nil {
				return NewConfigurationError(
					fmt.Sprintf("circular binding dependency: %s", formatCycle(cycle)), nil).
					WithCode(ErrCodeManifestInvalid)
			}
		}
	}

	return nil
}

// detectCyclesUtil performs DFS to detect cycles in the dependency graph.
func (b *OrderBuilder) detectCyclesUtil(
	node string,
	visited map[string]bool,
	recStack map[string]bool,
	path []string,
) ([]string, error) {
	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dependent := range b.adjacencyList[node] {
		if !visited[dependent] {
			if cycle, err := b.detectCyclesUtil(dependent, visited, recStack, path); err != nil {
				return cycle, err
			}
		} else if recStack[dependent] {
			cycleStart := -1
			for i, id := range path {
				if id == dependent {
					cycleStart = i
					break
				}
			}
			if cycleStart >= 0 {
				return append(path[cycleStart:], dependent), fmt.Errorf("cycle detected")
			}
		}
	}

	recStack[node] = false
	return nil, nil
}

// computeLevels assigns resolution depths using Kahn's algorithm.
// Names within a level are sorted so the overall order is deterministic.
func (b *OrderBuilder) computeLevels() error {
	inDegreeCopy := make(map[string]int)
	for name, degree := range b.inDegree {
		inDegreeCopy[name] = degree
	}

	currentLevel := make([]string, 0)
	for name, degree := range inDegreeCopy {
		if degree == 0 {
			currentLevel = append(currentLevel, name)
		}
	}
	sort.Strings(currentLevel)

	if len(currentLevel) == 0 && len(b.specs) > 0 {
		return NewConfigurationError("no root components found - all components have binding dependencies", nil).
			WithCode(ErrCodeManifestInvalid)
	}

	processedCount := 0
	for len(currentLevel) > 0 {
		b.levels = append(b.levels, currentLevel)
		processedCount += len(currentLevel)

		nextLevel := make([]string, 0)
		for _, name := range currentLevel {
			for _, dependent := range b.adjacencyList[name] {
				inDegreeCopy[dependent]--
				if inDegreeCopy[dependent] == 0 {
					nextLevel = append(nextLevel, dependent)
				}
			}
		}
		sort.Strings(nextLevel)

		currentLevel = nextLevel
	}

	// Should never happen if cycle detection worked.
	if processedCount != len(b.specs) {
		return NewConfigurationError("failed to order all components - possible cycle", nil).
			WithCode(ErrCodeInternal)
	}

	return nil
}

// Levels returns the computed resolution levels.
func (b *OrderBuilder) Levels() [][]string {
	return b.levels
}

// formatCycle formats a cycle path for error messages.
func formatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(cycle, " -> ")
}
