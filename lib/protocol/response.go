// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// StopResponse is the flat response for Stop and SubagentStop.
type StopResponse struct {
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// HookSpecificOutput is the nested payload for every non-Stop event.
type HookSpecificOutput struct {
	HookEventName      string `json:"hookEventName"`
	PermissionDecision string `json:"permissionDecision,omitempty"`
	AdditionalContext  string `json:"additionalContext,omitempty"`
}

// Response is the envelope for every non-Stop event.
type Response struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

const (
	decisionBlock = "block"
	decisionDeny  = "deny"
)

// Encode serializes a chain result in the shape event requires. The
// returned bytes have no trailing newline.
func Encode(event hook.EventType, result hook.Result) ([]byte, error) {
	if event.StopClass() {
		response := StopResponse{}
		if result.Denied() {
			response.Decision = decisionBlock
			response.Reason = joinLines(result.Reason, result.Context)
		}
		return marshal(response)
	}

	output := HookSpecificOutput{HookEventName: string(event)}
	if result.Denied() {
		output.PermissionDecision = decisionDeny
	}
	output.AdditionalContext = joinLines(result.Reason, result.Context)
	return marshal(Response{HookSpecificOutput: output})
}

// TransportError builds the response for a request that could not be
// read or parsed. eventName may be anything the caller recovered from
// the raw bytes, including "". Stop-class events block so the agent
// does not stop on a policy it never evaluated; everything else is
// allowed with a warning.
func TransportError(eventName string, cause error) []byte {
	message := fmt.Sprintf("hookd could not process the request: %v", cause)
	if hook.EventType(eventName).StopClass() {
		return mustMarshal(StopResponse{Decision: decisionBlock, Reason: message})
	}
	return mustMarshal(Response{HookSpecificOutput: HookSpecificOutput{
		HookEventName:     eventName,
		AdditionalContext: message,
	}})
}

// InternalError builds the response for a chain aborted by a handler
// failure in strict mode. Stop-class events block; everything else is
// denied.
func InternalError(event hook.EventType, cause error) []byte {
	message := fmt.Sprintf("hookd internal error: %v", cause)
	if event.StopClass() {
		return mustMarshal(StopResponse{Decision: decisionBlock, Reason: message})
	}
	return mustMarshal(Response{HookSpecificOutput: HookSpecificOutput{
		HookEventName:      string(event),
		PermissionDecision: decisionDeny,
		AdditionalContext:  message,
	}})
}

func joinLines(reason string, context []string) string {
	lines := make([]string, 0, len(context)+1)
	if reason != "" {
		lines = append(lines, reason)
	}
	for _, line := range context {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return data, nil
}

// mustMarshal is for the fixed-shape error responses, which contain
// only strings and cannot fail to encode.
func mustMarshal(value any) []byte {
	data, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("protocol: encoding fixed response: %v", err))
	}
	return data
}
