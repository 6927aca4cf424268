// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// EventType names a lifecycle event emitted by the coding agent.
type EventType string

const (
	PreToolUse        EventType = "PreToolUse"
	PostToolUse       EventType = "PostToolUse"
	SessionStart      EventType = "SessionStart"
	SessionEnd        EventType = "SessionEnd"
	PreCompact        EventType = "PreCompact"
	SubagentStop      EventType = "SubagentStop"
	UserPromptSubmit  EventType = "UserPromptSubmit"
	Notification      EventType = "Notification"
	PermissionRequest EventType = "PermissionRequest"
	Stop              EventType = "Stop"
)

// EventTypes lists every event type hookd accepts. The set is closed:
// requests naming anything else are transport errors.
var EventTypes = []EventType{
	PreToolUse,
	PostToolUse,
	SessionStart,
	SessionEnd,
	PreCompact,
	SubagentStop,
	UserPromptSubmit,
	Notification,
	PermissionRequest,
	Stop,
}

// ParseEventType returns the EventType named by s, or an error if s
// is not one of [EventTypes]. Matching is exact (case-sensitive),
// because the agent sends these names verbatim.
func ParseEventType(s string) (EventType, error) {
	candidate := EventType(s)
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Valid reports whether e is one of the ten known event types.
func (e EventType) Valid() bool {
	for _, known := range EventTypes {
		if e == known {
			return true
		}
	}
	return false
}

// StopClass reports whether e uses the flat decision/reason response
// shape instead of hookSpecificOutput.
func (e EventType) StopClass() bool {
	return e == Stop || e == SubagentStop
}

// Event is one lifecycle event as received from the agent. The payload
// is opaque JSON; handlers read fields from it with [Event.Get].
// Events are constructed once per request and never modified.
type Event struct {
	Type    EventType
	payload json.RawMessage
}

// NewEvent builds an Event. The payload is copied so the caller's
// buffer can be reused. An empty payload is treated as "{}".
func NewEvent(eventType EventType, payload json.RawMessage) Event {
	if len(payload) == 0 {
		return Event{Type: eventType, payload: json.RawMessage("{}")}
	}
	owned := make(json.RawMessage, len(payload))
	copy(owned, payload)
	return Event{Type: eventType, payload: owned}
}

// Payload returns a copy of the raw hook input.
func (e Event) Payload() json.RawMessage {
	owned := make(json.RawMessage, len(e.payload))
	copy(owned, e.payload)
	return owned
}

// Get looks up a gjson path ("tool_input.command",
// "tool_input.file_path") in the payload. Missing paths return a
// Result whose Exists() is false and whose String() is empty.
func (e Event) Get(path string) gjson.Result {
	return gjson.GetBytes(e.payload, path)
}

// ToolName returns the payload's tool_name, or "" for events that do
// not carry one.
func (e Event) ToolName() string {
	return e.Get("tool_name").String()
}
