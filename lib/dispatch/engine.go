// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// Engine holds one Controller per event type.
type Engine struct {
	controllers map[hook.EventType]*Controller
}

// NewEngine builds a controller for every event type in
// [hook.EventTypes]. Event types missing from chains get an empty
// controller that always allows. A key that is not a known event type
// is an error.
func NewEngine(chains map[hook.EventType][]hook.Handler, options Options) (*Engine, error) {
	for event := range chains {
		if !event.Valid() {
			return nil, fmt.Errorf("handler chain for unknown event type %q", event)
		}
	}

	engine := &Engine{controllers: make(map[hook.EventType]*Controller, len(hook.EventTypes))}
	for _, event := range hook.EventTypes {
		engine.controllers[event] = NewController(event, chains[event], options)
	}
	return engine, nil
}

// Controller returns the controller for event, or nil for an unknown
// event type.
func (e *Engine) Controller(event hook.EventType) *Controller {
	return e.controllers[event]
}

// Dispatch routes event to its controller.
func (e *Engine) Dispatch(event hook.Event) (hook.Result, error) {
	controller := e.controllers[event.Type]
	if controller == nil {
		return hook.Result{}, fmt.Errorf("no controller for event type %q", event.Type)
	}
	return controller.Dispatch(event)
}
