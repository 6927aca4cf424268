// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bureau-foundation/hookd/lib/hook"
)

// stubHandler is a configurable handler that counts Handle calls.
type stubHandler struct {
	hook.Base
	match       func(hook.Event) bool
	result      hook.PartialResult
	err         error
	panicOn     string
	handleCalls atomic.Int32
}

func newStub(id string, priority int, terminal bool, result hook.PartialResult) *stubHandler {
	return &stubHandler{
		Base:   hook.NewBase(id, priority, terminal, nil),
		result: result,
	}
}

func (s *stubHandler) Matches(event hook.Event) bool {
	if s.panicOn == "matches" {
		panic("matches exploded")
	}
	if s.match == nil {
		return true
	}
	return s.match(event)
}

func (s *stubHandler) Handle(event hook.Event) (hook.PartialResult, error) {
	s.handleCalls.Add(1)
	if s.panicOn == "handle" {
		panic("handle exploded")
	}
	return s.result, s.err
}

func bashEvent(command string) hook.Event {
	payload, _ := json.Marshal(map[string]any{
		"tool_name":  "Bash",
		"tool_input": map[string]any{"command": command},
	})
	return hook.NewEvent(hook.PreToolUse, payload)
}

func TestDispatchNoHandlersAllows(t *testing.T) {
	controller := NewController(hook.PreToolUse, nil, Options{})
	result, err := controller.Dispatch(bashEvent("ls"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Denied() || result.Reason != "" || len(result.Context) != 0 {
		t.Errorf("result = %+v, want bare allow", result)
	}
}

func TestDispatchContextFollowsPriority(t *testing.T) {
	// Registered out of priority order on purpose.
	late := newStub("late", 30, false, hook.Allowed("c"))
	early := newStub("early", 10, false, hook.Allowed("a"))
	middle := newStub("middle", 20, false, hook.Allowed("b"))

	controller := NewController(hook.PostToolUse, []hook.Handler{late, early, middle}, Options{})
	result, err := controller.Dispatch(hook.NewEvent(hook.PostToolUse, nil))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Denied() {
		t.Error("non-terminal handlers produced a denial")
	}
	if got := strings.Join(result.Context, ","); got != "a,b,c" {
		t.Errorf("context = %s, want a,b,c", got)
	}
}

func TestNonTerminalDenyDoesNotBlock(t *testing.T) {
	advisory := newStub("advisory", 10, false, hook.Denied("looks risky", "advice"))

	controller := NewController(hook.PreToolUse, []hook.Handler{advisory}, Options{})
	result, err := controller.Dispatch(bashEvent("ls"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Denied() {
		t.Error("non-terminal deny blocked the chain")
	}
	if result.Reason != "" {
		t.Errorf("reason = %q, want empty", result.Reason)
	}
	if !slices.Equal(result.Context, []string{"advice"}) {
		t.Errorf("context = %v, want [advice]", result.Context)
	}
}

func TestTerminalDenyStopsChain(t *testing.T) {
	annotator := newStub("annotator", 5, false, hook.Allowed("seen"))
	blocker := newStub("blocker", 10, true, hook.Denied("blocked", "blocker context"))
	after := newStub("after", 20, true, hook.Allowed("never"))

	controller := NewController(hook.PreToolUse, []hook.Handler{after, blocker, annotator}, Options{})
	result, err := controller.Dispatch(bashEvent("git reset --hard"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !result.Denied() {
		t.Fatal("expected denial")
	}
	if result.Reason != "blocked" {
		t.Errorf("reason = %q, want blocked", result.Reason)
	}
	if result.HandlerID != "blocker" {
		t.Errorf("HandlerID = %q, want blocker", result.HandlerID)
	}
	if !slices.Equal(result.Context, []string{"seen", "blocker context"}) {
		t.Errorf("context = %v", result.Context)
	}
	if calls := after.handleCalls.Load(); calls != 0 {
		t.Errorf("priority-20 handler Handle called %d times after terminal deny", calls)
	}
}

func TestTerminalAllowEndsChain(t *testing.T) {
	permit := newStub("permit", 10, true, hook.Allowed("permitted"))
	blocker := newStub("blocker", 20, true, hook.Denied("blocked"))

	controller := NewController(hook.PreToolUse, []hook.Handler{permit, blocker}, Options{})
	result, err := controller.Dispatch(bashEvent("ls"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Denied() {
		t.Error("terminal allow did not end the chain")
	}
	if result.HandlerID != "permit" {
		t.Errorf("HandlerID = %q, want permit", result.HandlerID)
	}
	if blocker.handleCalls.Load() != 0 {
		t.Error("handler after terminal allow was invoked")
	}
}

func TestNonMatchingTerminalIsSkipped(t *testing.T) {
	blocker := newStub("blocker", 10, true, hook.Denied("blocked"))
	blocker.match = func(event hook.Event) bool {
		return strings.Contains(event.Get("tool_input.command").String(), "reset")
	}
	annotator := newStub("annotator", 20, false, hook.Allowed("note"))

	controller := NewController(hook.PreToolUse, []hook.Handler{blocker, annotator}, Options{})
	result, err := controller.Dispatch(bashEvent("echo hello"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Denied() {
		t.Error("non-matching terminal handler denied")
	}
	if blocker.handleCalls.Load() != 0 {
		t.Error("Handle called on non-matching handler")
	}
	if !slices.Equal(result.Context, []string{"note"}) {
		t.Errorf("context = %v, want [note]", result.Context)
	}
}

func TestEqualPrioritiesKeepConfigurationOrder(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))

	first := newStub("first", 10, false, hook.Allowed("1"))
	second := newStub("second", 10, false, hook.Allowed("2"))
	third := newStub("third", 10, false, hook.Allowed("3"))

	controller := NewController(hook.SessionStart, []hook.Handler{first, second, third}, Options{Logger: logger})
	result, _ := controller.Dispatch(hook.NewEvent(hook.SessionStart, nil))
	if got := strings.Join(result.Context, ""); got != "123" {
		t.Errorf("context = %s, want 123", got)
	}
	if count := strings.Count(buffer.String(), "share a priority"); count != 2 {
		t.Errorf("duplicate-priority warnings = %d, want 2\n%s", count, buffer.String())
	}
}

func TestHandlerFailureFailsOpen(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*stubHandler)
	}{
		{"error", func(s *stubHandler) { s.err = errors.New("boom") }},
		{"panic in handle", func(s *stubHandler) { s.panicOn = "handle" }},
		{"panic in matches", func(s *stubHandler) { s.panicOn = "matches" }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			broken := newStub("broken", 10, true, hook.Denied("should not apply"))
			test.prepare(broken)
			annotator := newStub("annotator", 20, false, hook.Allowed("still ran"))

			controller := NewController(hook.PreToolUse, []hook.Handler{broken, annotator}, Options{})
			result, err := controller.Dispatch(bashEvent("ls"))
			if err != nil {
				t.Fatalf("Dispatch returned error in fail-open mode: %v", err)
			}
			if result.Denied() {
				t.Error("failed handler's denial applied")
			}
			if !slices.Equal(result.Context, []string{"still ran"}) {
				t.Errorf("context = %v, want [still ran]", result.Context)
			}
		})
	}
}

func TestHandlerFailureStrictMode(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(*stubHandler)
		phase    string
		panicked bool
	}{
		{"error", func(s *stubHandler) { s.err = errors.New("boom") }, "handle", false},
		{"panic in handle", func(s *stubHandler) { s.panicOn = "handle" }, "handle", true},
		{"panic in matches", func(s *stubHandler) { s.panicOn = "matches" }, "matches", true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			broken := newStub("broken", 10, false, hook.Allowed())
			test.prepare(broken)
			after := newStub("after", 20, false, hook.Allowed("unreached"))

			controller := NewController(hook.PreToolUse, []hook.Handler{broken, after}, Options{StrictMode: true})
			_, err := controller.Dispatch(bashEvent("ls"))

			var handlerErr *HandlerError
			if !errors.As(err, &handlerErr) {
				t.Fatalf("error = %v, want *HandlerError", err)
			}
			if handlerErr.HandlerID != "broken" || handlerErr.Phase != test.phase || handlerErr.Panicked != test.panicked {
				t.Errorf("HandlerError = %+v", handlerErr)
			}
			if handlerErr.Event != hook.PreToolUse {
				t.Errorf("Event = %s", handlerErr.Event)
			}
			if after.handleCalls.Load() != 0 {
				t.Error("chain continued after strict-mode failure")
			}
		})
	}
}

func TestControllerAppliesTagFilter(t *testing.T) {
	safety := &stubHandler{Base: hook.NewBase("safety", 10, false, []string{"safety"}), result: hook.Allowed("safety")}
	advisory := &stubHandler{Base: hook.NewBase("advisory", 20, false, []string{"advisory"}), result: hook.Allowed("advisory")}

	controller := NewController(hook.PostToolUse, []hook.Handler{safety, advisory}, Options{DisableTags: []string{"advisory"}})
	handlers := controller.Handlers()
	if len(handlers) != 1 || handlers[0].ID() != "safety" {
		t.Errorf("handlers after filter = %v", handlerIDs(handlers))
	}
}

func handlerIDs(handlers []hook.Handler) []string {
	ids := make([]string, len(handlers))
	for i, handler := range handlers {
		ids[i] = handler.ID()
	}
	return ids
}
