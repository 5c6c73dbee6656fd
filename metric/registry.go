//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Registry manages the pluggable set of metric definitions.
type Registry interface {
	// Register registers a definition. A definition with the same name is
	// overwritten.
	Register(def *Definition) error
	// Get retrieves a definition by name.
	Get(name string) (*Definition, error)
	// List returns the names of all registered definitions.
	List() []string
	// Active resolves the active definitions for one evaluation run.
	Active(sel Selection) ([]*Definition, []Exclusion)
}

// Selection narrows and tunes the active metric set for one run.
type Selection struct {
	// Reduced drops the holistic metrics, keeping only the structural
	// multi-turn set (cost saving).
	Reduced bool
	// Thresholds overrides pass thresholds per metric name.
	Thresholds map[string]float64
	// RoleResolved reports whether a chatbot role is available dataset-wide.
	// Role-sensitive metrics are excluded when it is false.
	RoleResolved bool
}

// Exclusion records a metric dropped from the active set with its reason,
// surfaced in the final report.
type Exclusion struct {
	// MetricName identifies the excluded metric.
	MetricName string `json:"metricName"`
	// Reason describes why it was excluded.
	Reason string `json:"reason"`
}

// registry is the default implementation of Registry.
type registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

// NewRegistry creates a registry pre-populated with the built-in metric set.
func NewRegistry() Registry {
	r := &registry{definitions: make(map[string]*Definition)}
	for _, def := range BuiltinDefinitions() {
		r.Register(def)
	}
	return r
}

// Register registers a definition to the registry.
func (r *registry) Register(def *Definition) error {
	if def == nil {
		return errors.New("definition is nil")
	}
	if def.Name == "" {
		return errors.New("definition name is empty")
	}
	if def.Threshold < 0 || def.Threshold > 1 {
		return fmt.Errorf("definition %s: threshold %v out of [0,1]", def.Name, def.Threshold)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Name] = def.Clone()
	return nil
}

// Get gets a definition by name.
// Returns os.ErrNotExist if the definition is not found.
func (r *registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.definitions[name]; ok {
		return def.Clone(), nil
	}
	return nil, fmt.Errorf("get metric %s: %w", name, os.ErrNotExist)
}

// List returns registered metric names sorted lexicographically.
func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active resolves the active metric definitions for a run, applying the
// reduced-set filter, role-sensitivity exclusions and threshold overrides.
// Excluded metrics are returned with their reasons rather than silently
// dropped.
func (r *registry) Active(sel Selection) ([]*Definition, []Exclusion) {
	var active []*Definition
	var excluded []Exclusion
	for _, name := range r.List() {
		def, err := r.Get(name)
		if err != nil {
			continue
		}
		if sel.Reduced && reducedExclusions[name] {
			excluded = append(excluded, Exclusion{MetricName: name, Reason: "reduced metric set"})
			continue
		}
		if def.RequiresRole && !sel.RoleResolved {
			excluded = append(excluded, Exclusion{MetricName: name, Reason: "chatbot role is unresolved"})
			continue
		}
		if override, ok := sel.Thresholds[name]; ok {
			def.Threshold = override
		}
		active = append(active, def)
	}
	return active, excluded
}
