// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// decodeKeys unmarshals data into a generic map for shape assertions.
func decodeKeys(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("response is not a JSON object: %v\n%s", err, data)
	}
	return decoded
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func TestDecodeRequest(t *testing.T) {
	event, err := DecodeRequest([]byte(`{"event":"PreToolUse","hook_input":{"tool_name":"Bash","tool_input":{"command":"ls"}}}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if event.Type != hook.PreToolUse {
		t.Errorf("Type = %s", event.Type)
	}
	if got := event.Get("tool_input.command").String(); got != "ls" {
		t.Errorf("command = %q", got)
	}
}

func TestDecodeRequestMissingInput(t *testing.T) {
	for _, line := range []string{`{"event":"SessionEnd"}`, `{"event":"SessionEnd","hook_input":null}`} {
		event, err := DecodeRequest([]byte(line))
		if err != nil {
			t.Fatalf("DecodeRequest(%s): %v", line, err)
		}
		if string(event.Payload()) != "{}" {
			t.Errorf("payload = %s, want {}", event.Payload())
		}
	}
}

func TestDecodeRequestErrors(t *testing.T) {
	for _, line := range []string{
		``,
		`not json`,
		`{"event":"PreToolUse","hook_input":{"tool_name":`,
		`{"event":"Unknown","hook_input":{}}`,
		`{"event":"PreToolUse","hook_input":"string"}`,
		`{"event":"PreToolUse","hook_input":[1,2]}`,
		`{"hook_input":{}}`,
	} {
		if _, err := DecodeRequest([]byte(line)); err == nil {
			t.Errorf("DecodeRequest(%q) succeeded, want error", line)
		}
	}
}

func TestEncodeRequestRoundTrip(t *testing.T) {
	line, err := EncodeRequest("PostToolUse", json.RawMessage(`{"tool_name":"Write"}`))
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if !bytes.HasSuffix(line, []byte("\n")) {
		t.Error("request line not newline-terminated")
	}
	event, err := DecodeRequest(bytes.TrimSpace(line))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if event.Type != hook.PostToolUse || event.ToolName() != "Write" {
		t.Errorf("decoded %s / %s", event.Type, event.ToolName())
	}

	if _, err := EncodeRequest("PostToolUse", json.RawMessage(`{broken`)); err == nil {
		t.Error("EncodeRequest accepted invalid JSON input")
	}
}

func TestSalvageEventName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"event":"Stop","hook_input":{"broken`, "Stop"},
		{`{"event":"PreToolUse","hook_input":`, "PreToolUse"},
		{`{"event":42}`, ""},
		{`garbage`, ""},
		{``, ""},
	}
	for _, test := range tests {
		if got := SalvageEventName([]byte(test.input)); got != test.want {
			t.Errorf("SalvageEventName(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestEncodeStopAllow(t *testing.T) {
	data, err := Encode(hook.Stop, hook.Result{Decision: hook.Allow, Context: []string{"ignored"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Stop allow = %s, want {}", data)
	}
}

func TestEncodeStopBlock(t *testing.T) {
	data, err := Encode(hook.SubagentStop, hook.Result{Decision: hook.Deny, Reason: "tests are failing"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded := decodeKeys(t, data)
	if keys := sortedKeys(decoded); !slices.Equal(keys, []string{"decision", "reason"}) {
		t.Errorf("keys = %v", keys)
	}
	if decoded["decision"] != "block" || decoded["reason"] != "tests are failing" {
		t.Errorf("response = %s", data)
	}
}

func TestEncodeHookSpecificAllow(t *testing.T) {
	data, err := Encode(hook.PreToolUse, hook.Result{Decision: hook.Allow})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if response.HookSpecificOutput.HookEventName != "PreToolUse" {
		t.Errorf("hookEventName = %q", response.HookSpecificOutput.HookEventName)
	}
	output := decodeKeys(t, data)["hookSpecificOutput"].(map[string]any)
	if _, present := output["permissionDecision"]; present {
		t.Errorf("permissionDecision present on allow: %s", data)
	}
	if _, present := output["additionalContext"]; present {
		t.Errorf("additionalContext present with no context: %s", data)
	}
}

func TestEncodeHookSpecificDeny(t *testing.T) {
	data, err := Encode(hook.PreToolUse, hook.Result{
		Decision: hook.Deny,
		Reason:   "destructive git command",
		Context:  []string{"use git stash instead"},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	output := response.HookSpecificOutput
	if output.PermissionDecision != "deny" {
		t.Errorf("permissionDecision = %q", output.PermissionDecision)
	}
	if output.AdditionalContext != "destructive git command\nuse git stash instead" {
		t.Errorf("additionalContext = %q", output.AdditionalContext)
	}
}

func TestTransportErrorStopShape(t *testing.T) {
	for _, event := range []string{"Stop", "SubagentStop"} {
		decoded := decodeKeys(t, TransportError(event, errors.New("unexpected EOF")))
		if keys := sortedKeys(decoded); !slices.Equal(keys, []string{"decision", "reason"}) {
			t.Errorf("%s transport error keys = %v", event, keys)
		}
		if decoded["decision"] != "block" {
			t.Errorf("%s decision = %v", event, decoded["decision"])
		}
		if reason, _ := decoded["reason"].(string); reason == "" {
			t.Errorf("%s reason empty", event)
		}
	}
}

func TestTransportErrorHookSpecificShape(t *testing.T) {
	var response Response
	if err := json.Unmarshal(TransportError("PreToolUse", errors.New("bad json")), &response); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if response.HookSpecificOutput.HookEventName != "PreToolUse" {
		t.Errorf("hookEventName = %q", response.HookSpecificOutput.HookEventName)
	}
	if response.HookSpecificOutput.PermissionDecision != "" {
		t.Error("transport error denied a non-Stop event")
	}
	if response.HookSpecificOutput.AdditionalContext == "" {
		t.Error("transport error carried no warning")
	}
}

func TestTransportErrorUnknownEvent(t *testing.T) {
	decoded := decodeKeys(t, TransportError("", errors.New("empty request")))
	output, ok := decoded["hookSpecificOutput"].(map[string]any)
	if !ok {
		t.Fatalf("unrecoverable event did not use hookSpecificOutput shape: %v", decoded)
	}
	if output["hookEventName"] != "" {
		t.Errorf("hookEventName = %v, want empty", output["hookEventName"])
	}
}

func TestInternalError(t *testing.T) {
	decoded := decodeKeys(t, InternalError(hook.Stop, errors.New("handler panicked")))
	if decoded["decision"] != "block" {
		t.Errorf("Stop internal error = %v", decoded)
	}

	var response Response
	if err := json.Unmarshal(InternalError(hook.PreToolUse, errors.New("handler panicked")), &response); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if response.HookSpecificOutput.PermissionDecision != "deny" {
		t.Errorf("PreToolUse internal error permissionDecision = %q", response.HookSpecificOutput.PermissionDecision)
	}
}
