// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import "slices"

// Handler is a policy unit evaluated against events of one type.
//
// Matches must be side-effect free. Handle runs only when Matches
// returned true and must be fast and non-blocking. An error from
// Handle (or a panic in either method) is a handler failure; the
// dispatch engine decides whether that fails open or aborts the chain.
type Handler interface {
	ID() string
	Priority() int
	Terminal() bool
	Tags() []string
	Matches(event Event) bool
	Handle(event Event) (PartialResult, error)
}

// Base holds the configuration-derived identity of a handler. Embed it
// and implement Matches and Handle to satisfy [Handler].
type Base struct {
	id       string
	priority int
	terminal bool
	tags     []string
}

// NewBase returns a Base. Tags are copied.
func NewBase(id string, priority int, terminal bool, tags []string) Base {
	return Base{
		id:       id,
		priority: priority,
		terminal: terminal,
		tags:     slices.Clone(tags),
	}
}

func (b Base) ID() string { return b.id }

func (b Base) Priority() int { return b.priority }

func (b Base) Terminal() bool { return b.terminal }

// Tags returns a copy of the handler's tags.
func (b Base) Tags() []string { return slices.Clone(b.tags) }
