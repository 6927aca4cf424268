// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// HandlerError reports a handler failure that aborted a chain in
// strict mode.
type HandlerError struct {
	Event     hook.EventType
	HandlerID string
	// Phase is "matches" or "handle".
	Phase string
	// Panicked is true when the failure was a recovered panic rather
	// than a returned error.
	Panicked bool
	Err      error
}

func (e *HandlerError) Error() string {
	kind := "failed"
	if e.Panicked {
		kind = "panicked"
	}
	return fmt.Sprintf("handler %q %s in %s for %s: %v", e.HandlerID, kind, e.Phase, e.Event, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
