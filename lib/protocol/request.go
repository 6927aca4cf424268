// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// Request is the wire form of a hook invocation.
type Request struct {
	Event     string          `json:"event"`
	HookInput json.RawMessage `json:"hook_input,omitempty"`
}

// EncodeRequest builds the newline-terminated request line for event.
// An empty hookInput is sent as an empty object.
func EncodeRequest(event string, hookInput json.RawMessage) ([]byte, error) {
	if len(bytes.TrimSpace(hookInput)) == 0 {
		hookInput = json.RawMessage("{}")
	}
	if !json.Valid(hookInput) {
		return nil, fmt.Errorf("hook input for %s is not valid JSON", event)
	}
	data, err := json.Marshal(Request{Event: event, HookInput: hookInput})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses one request document into an Event. The event
// name must be one of the known types and hook_input, when present and
// not null, must be a JSON object.
func DecodeRequest(data []byte) (hook.Event, error) {
	var request Request
	if err := json.Unmarshal(data, &request); err != nil {
		return hook.Event{}, fmt.Errorf("decoding request: %w", err)
	}

	eventType, err := hook.ParseEventType(request.Event)
	if err != nil {
		return hook.Event{}, err
	}

	input := bytes.TrimSpace(request.HookInput)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		return hook.NewEvent(eventType, nil), nil
	}
	if !gjson.ParseBytes(input).IsObject() {
		return hook.Event{}, fmt.Errorf("hook_input for %s must be a JSON object", eventType)
	}
	return hook.NewEvent(eventType, input), nil
}

// SalvageEventName recovers the "event" field from a request that
// failed to decode, so the error response can use the right shape.
// gjson tolerates truncated and malformed documents as long as the
// key appears before the damage. Returns "" when nothing usable is
// found.
func SalvageEventName(data []byte) string {
	value := gjson.GetBytes(data, "event")
	if value.Type != gjson.String {
		return ""
	}
	return value.String()
}
