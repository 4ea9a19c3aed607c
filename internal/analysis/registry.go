// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package analysis holds the pluggable analyzer registry and the
// three built-in plugins (cell features, anomaly detection, SOH
// proxy) that consume an Aligned tree and emit per-rack/per-module
// results (spec §4.6).
package analysis

import (
	"sync"

	"github.com/bmspipeline/core/pkg/bmserr"
	"github.com/bmspipeline/core/pkg/schema"
)

// Kind classifies what a plugin computes, mirroring the metric-data
// repository "kind" discriminator the pack's metricdata registry
// keys switch on.
type Kind int

const (
	KindCell Kind = iota
	KindAnomaly
	KindSOH
	KindGeneric
)

// Plugin is a pure function of (aligned, config, topology): it must
// not mutate aligned and must return the same result for the same
// inputs every time it is called.
type Plugin interface {
	Name() string
	Kind() Kind
	Run(aligned *schema.Aligned, cfg schema.ProgramConfig, topo *schema.Topology) (any, error)
}

// Registry holds the process-wide plugin set. Registration happens at
// startup (see the init() calls in cellfeatures.go, anomaly.go,
// soh.go) and the registry is treated as read-only afterward.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry. Production code uses the
// package-level Default registry; tests may construct their own to
// avoid cross-test interference.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds p under its own Name(), overwriting any plugin
// previously registered under that name (last-wins, spec §4.6).
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Name()] = p
}

// Names returns the currently registered plugin names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for n := range r.plugins {
		names = append(names, n)
	}
	return names
}

// RunAll executes every registered plugin against aligned and
// collects {pluginName: result}. A plugin that returns an error
// aborts the run with a KindPluginFailure error naming it; results
// already collected from other plugins are discarded, since a job
// whose ANALYZE stage fails produces no partial output (spec §4.7
// Failure).
func (r *Registry) RunAll(aligned *schema.Aligned, cfg schema.ProgramConfig, topo *schema.Topology) (map[string]any, error) {
	r.mu.RLock()
	plugins := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		plugins = append(plugins, p)
	}
	r.mu.RUnlock()

	out := make(map[string]any, len(plugins))
	for _, p := range plugins {
		result, err := p.Run(aligned, cfg, topo)
		if err != nil {
			return nil, bmserr.Wrap(bmserr.KindPluginFailure, p.Name(), err)
		}
		out[p.Name()] = result
	}
	return out, nil
}

// Default is the process-wide registry built-in plugins register
// themselves into.
var Default = NewRegistry()
