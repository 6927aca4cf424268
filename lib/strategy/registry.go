// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry maps file extensions to strategies. It is populated at
// construction and read-only afterward, so lookups need no locking.
type Registry struct {
	byExtension map[string]Strategy
	strategies  []Strategy
}

// NewRegistry builds a registry from the given strategies. It panics if
// two strategies claim the same extension or an extension is not a
// lowercase dotted suffix: both are programming errors in the
// registration list, not runtime conditions.
func NewRegistry(strategies ...Strategy) *Registry {
	registry := &Registry{byExtension: make(map[string]Strategy)}
	for _, s := range strategies {
		registry.register(s)
	}
	return registry
}

// Default returns the registry of every built-in language.
func Default() *Registry {
	return NewRegistry(
		Go{},
		Python{},
		JavaScript{},
		TypeScript{},
		Rust{},
		Java{},
		Ruby{},
		PHP{},
	)
}

func (r *Registry) register(s Strategy) {
	for _, extension := range s.Extensions() {
		if !strings.HasPrefix(extension, ".") || extension != strings.ToLower(extension) {
			panic(fmt.Sprintf("strategy %s: extension %q must be lowercase with a leading dot", s.Language(), extension))
		}
		if existing, exists := r.byExtension[extension]; exists {
			panic(fmt.Sprintf("strategy %s: extension %q already registered by %s", s.Language(), extension, existing.Language()))
		}
		r.byExtension[extension] = s
	}
	r.strategies = append(r.strategies, s)
}

// Lookup returns the strategy owning path's extension. The second
// result is false for paths with no extension or an unregistered one.
func (r *Registry) Lookup(path string) (Strategy, bool) {
	extension := strings.ToLower(filepath.Ext(path))
	if extension == "" {
		return nil, false
	}
	s, ok := r.byExtension[extension]
	return s, ok
}

// Languages returns the registered language names in registration
// order.
func (r *Registry) Languages() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Language()
	}
	return names
}
