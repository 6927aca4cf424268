// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/dispatch"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/identity"
	"github.com/bureau-foundation/hookd/lib/strategy"
)

// BuildContext carries the process-wide values handlers may need.
type BuildContext struct {
	Identity   identity.Identity
	Strategies *strategy.Registry
	Logger     *slog.Logger
}

func (b BuildContext) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Constructor builds a handler from its identity fields and raw
// options.
type Constructor func(base hook.Base, options config.Options, build BuildContext) (hook.Handler, error)

// Factory describes a handler type.
type Factory struct {
	ID       string
	Events   []hook.EventType
	Priority int
	Terminal bool
	Tags     []string
	New      Constructor
}

// Supports reports whether the handler may be attached to event.
func (f Factory) Supports(event hook.EventType) bool {
	return slices.Contains(f.Events, event)
}

// Registry maps handler IDs to factories. It is filled at startup and
// read-only afterward.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Panics on a duplicate or empty ID, or a
// factory with no events or constructor.
func (r *Registry) Register(factory Factory) {
	if factory.ID == "" || factory.New == nil || len(factory.Events) == 0 {
		panic(fmt.Sprintf("handlers.Registry: incomplete factory %q", factory.ID))
	}
	if _, exists := r.factories[factory.ID]; exists {
		panic(fmt.Sprintf("handlers.Registry: duplicate factory %q", factory.ID))
	}
	r.factories[factory.ID] = factory
	r.order = append(r.order, factory.ID)
}

// Lookup returns the factory for id.
func (r *Registry) Lookup(id string) (Factory, bool) {
	factory, ok := r.factories[id]
	return factory, ok
}

// Factories returns every factory in registration order.
func (r *Registry) Factories() []Factory {
	factories := make([]Factory, len(r.order))
	for i, id := range r.order {
		factories[i] = r.factories[id]
	}
	return factories
}

// Build constructs the enabled handlers named in cfg, keyed by event
// type, each list in configuration order. Every problem is reported.
func (r *Registry) Build(cfg *config.Config, build BuildContext) (map[hook.EventType][]hook.Handler, error) {
	chains := make(map[hook.EventType][]hook.Handler)
	var errs []error

	// Sorted for deterministic error ordering.
	events := make([]string, 0, len(cfg.Handlers))
	for event := range cfg.Handlers {
		events = append(events, event)
	}
	sort.Strings(events)

	for _, name := range events {
		event, err := hook.ParseEventType(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("handlers: %w", err))
			continue
		}
		for _, entry := range cfg.Handlers[name] {
			if !entry.IsEnabled() {
				continue
			}
			handler, err := r.buildOne(event, entry, build)
			if err != nil {
				errs = append(errs, fmt.Errorf("handlers.%s.%s: %w", event, entry.ID, err))
				continue
			}
			chains[event] = append(chains[event], handler)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return chains, nil
}

func (r *Registry) buildOne(event hook.EventType, entry config.HandlerEntry, build BuildContext) (hook.Handler, error) {
	factory, ok := r.factories[entry.ID]
	if !ok {
		return nil, fmt.Errorf("unknown handler (known: %v)", r.order)
	}
	if !factory.Supports(event) {
		return nil, fmt.Errorf("handler does not support %s (supported: %v)", event, factory.Events)
	}

	priority := factory.Priority
	if entry.Priority != nil {
		priority = *entry.Priority
	}
	tags := factory.Tags
	if entry.Tags != nil {
		tags = entry.Tags
	}

	build.Logger = build.logger().With("handler", entry.ID)
	return factory.New(hook.NewBase(entry.ID, priority, factory.Terminal, tags), entry.Options, build)
}

// BuildEngine builds every configured handler and assembles the
// dispatch engine, applying the daemon's strict mode and the global tag
// filter.
func BuildEngine(cfg *config.Config, registry *Registry, build BuildContext) (*dispatch.Engine, error) {
	chains, err := registry.Build(cfg, build)
	if err != nil {
		return nil, err
	}
	return dispatch.NewEngine(chains, dispatch.Options{
		StrictMode:  cfg.Daemon.StrictMode,
		EnableTags:  cfg.Tags.Enable,
		DisableTags: cfg.Tags.Disable,
		Logger:      build.logger(),
	})
}

// Builtin returns a registry holding every built-in handler.
func Builtin() *Registry {
	registry := NewRegistry()
	registry.Register(destructiveGitFactory())
	registry.Register(dangerousRmFactory())
	registry.Register(tddEnforcementFactory())
	registry.Register(testReminderFactory())
	registry.Register(sessionContextFactory())
	registry.Register(promptGuardFactory())
	registry.Register(notificationLogFactory())
	registry.Register(stopGuardFactory())
	return registry
}
