// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/dispatch"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/identity"
	"github.com/bureau-foundation/hookd/lib/strategy"
)

// buildEngine parses a YAML configuration and builds an engine from
// the built-in registry.
func buildEngine(t *testing.T, source string, id identity.Identity, logger *slog.Logger) *dispatch.Engine {
	t.Helper()
	cfg, err := config.Parse([]byte(source), ".yaml")
	if err != nil {
		t.Fatalf("parsing config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validating config: %v", err)
	}
	engine, err := BuildEngine(cfg, Builtin(), BuildContext{
		Identity:   id,
		Strategies: strategy.Default(),
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("BuildEngine: %v", err)
	}
	return engine
}

// buildError returns the error from building source, failing if the
// build succeeds.
func buildError(t *testing.T, source string) error {
	t.Helper()
	cfg, err := config.Parse([]byte(source), ".yaml")
	if err != nil {
		return err
	}
	_, err = BuildEngine(cfg, Builtin(), BuildContext{Strategies: strategy.Default()})
	if err == nil {
		t.Fatalf("build succeeded for:\n%s", source)
	}
	return err
}

func newEvent(eventType hook.EventType, payload map[string]any) hook.Event {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return hook.NewEvent(eventType, data)
}

func bash(command string) hook.Event {
	return newEvent(hook.PreToolUse, map[string]any{
		"tool_name":  "Bash",
		"tool_input": map[string]any{"command": command},
	})
}

func dispatchOK(t *testing.T, engine *dispatch.Engine, event hook.Event) hook.Result {
	t.Helper()
	result, err := engine.Dispatch(event)
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", event.Type, err)
	}
	return result
}
