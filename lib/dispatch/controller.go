// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// Options configures controller construction.
type Options struct {
	// StrictMode turns handler failures into chain aborts instead of
	// logged non-matches.
	StrictMode bool

	// EnableTags and DisableTags are the global tag filter lists
	// applied through [FilterByTags].
	EnableTags  []string
	DisableTags []string

	// Logger receives construction warnings and handler failures.
	// Nil discards.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Controller runs the handler chain for one event type.
type Controller struct {
	event    hook.EventType
	handlers []hook.Handler
	strict   bool
	logger   *slog.Logger
}

// NewController filters handlers by tag, sorts the survivors by
// ascending priority (stable, so equal priorities keep the order they
// were passed in), and logs a warning for each duplicate priority.
func NewController(event hook.EventType, handlers []hook.Handler, options Options) *Controller {
	logger := options.logger().With("event", string(event))

	kept := make([]hook.Handler, 0, len(handlers))
	for _, handler := range handlers {
		if !FilterByTags(handler.Tags(), options.EnableTags, options.DisableTags) {
			logger.Debug("handler excluded by tag filter",
				"handler", handler.ID(),
				"tags", handler.Tags(),
			)
			continue
		}
		kept = append(kept, handler)
	}

	slices.SortStableFunc(kept, func(a, b hook.Handler) int {
		return a.Priority() - b.Priority()
	})

	for i := 1; i < len(kept); i++ {
		if kept[i].Priority() == kept[i-1].Priority() {
			logger.Warn("handlers share a priority, running in configuration order",
				"priority", kept[i].Priority(),
				"first", kept[i-1].ID(),
				"second", kept[i].ID(),
			)
		}
	}

	return &Controller{
		event:    event,
		handlers: kept,
		strict:   options.StrictMode,
		logger:   logger,
	}
}

// Event returns the event type this controller serves.
func (c *Controller) Event() hook.EventType { return c.event }

// Handlers returns the chain in execution order.
func (c *Controller) Handlers() []hook.Handler { return slices.Clone(c.handlers) }

// Dispatch runs the chain against event. The error is non-nil only in
// strict mode, and is then always a *HandlerError.
func (c *Controller) Dispatch(event hook.Event) (hook.Result, error) {
	var accumulated []string

	for _, handler := range c.handlers {
		matched, err := c.matches(handler, event)
		if err != nil {
			if c.strict {
				return hook.Result{}, err
			}
			continue
		}
		if !matched {
			continue
		}

		partial, err := c.handle(handler, event)
		if err != nil {
			if c.strict {
				return hook.Result{}, err
			}
			continue
		}

		accumulated = append(accumulated, partial.Context...)

		if handler.Terminal() {
			return hook.Result{
				Decision:  partial.Decision,
				Reason:    partial.Reason,
				Context:   accumulated,
				HandlerID: handler.ID(),
			}, nil
		}
	}

	return hook.Result{Decision: hook.Allow, Context: accumulated}, nil
}

func (c *Controller) matches(handler hook.Handler, event hook.Event) (matched bool, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = c.failure(handler, "matches", true, fmt.Errorf("%v", recovered))
		}
	}()
	return handler.Matches(event), nil
}

func (c *Controller) handle(handler hook.Handler, event hook.Event) (partial hook.PartialResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = c.failure(handler, "handle", true, fmt.Errorf("%v", recovered))
		}
	}()
	partial, handleErr := handler.Handle(event)
	if handleErr != nil {
		return hook.PartialResult{}, c.failure(handler, "handle", false, handleErr)
	}
	return partial, nil
}

// failure logs a handler failure and wraps it.
func (c *Controller) failure(handler hook.Handler, phase string, panicked bool, cause error) *HandlerError {
	handlerErr := &HandlerError{
		Event:     c.event,
		HandlerID: handler.ID(),
		Phase:     phase,
		Panicked:  panicked,
		Err:       cause,
	}
	if c.strict {
		c.logger.Error("handler failed, aborting chain", "handler", handler.ID(), "phase", phase, "error", cause)
	} else {
		c.logger.Error("handler failed, treating as non-match", "handler", handler.ID(), "phase", phase, "error", cause)
	}
	return handlerErr
}
