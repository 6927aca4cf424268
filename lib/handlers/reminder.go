// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/strategy"
)

type testReminderOptions struct {
	Tools []string `yaml:"tools"`
}

// testReminder reminds the agent which test covers a source file it
// just changed. It never blocks.
type testReminder struct {
	hook.Base
	projectRoot string
	strategies  *strategy.Registry
	tools       []string
}

func testReminderFactory() Factory {
	return Factory{
		ID:       "test-reminder",
		Events:   []hook.EventType{hook.PostToolUse},
		Priority: 50,
		Tags:     []string{"tdd", "advisory"},
		New: func(base hook.Base, options config.Options, build BuildContext) (hook.Handler, error) {
			decoded := testReminderOptions{Tools: []string{"Write", "Edit", "MultiEdit"}}
			if err := options.Decode(&decoded); err != nil {
				return nil, err
			}
			if build.Strategies == nil {
				return nil, errors.New("no strategy registry")
			}
			return &testReminder{
				Base:        base,
				projectRoot: build.Identity.ProjectRoot,
				strategies:  build.Strategies,
				tools:       decoded.Tools,
			}, nil
		},
	}
}

func (h *testReminder) Matches(event hook.Event) bool {
	_, _, ok := h.source(event)
	return ok
}

func (h *testReminder) Handle(event hook.Event) (hook.PartialResult, error) {
	target, language, ok := h.source(event)
	if !ok {
		return hook.Allowed(), nil
	}
	return hook.Allowed(fmt.Sprintf("%s changed. Run its %s tests (%s) before moving on.",
		relativeTo(h.projectRoot, target), language.Language(), language.TestFilename(filepath.Base(target)))), nil
}

func (h *testReminder) source(event hook.Event) (string, strategy.Strategy, bool) {
	if !slices.Contains(h.tools, event.ToolName()) {
		return "", nil, false
	}
	target := resolvePath(h.projectRoot, event.Get("tool_input.file_path").String())
	if target == "" {
		return "", nil, false
	}
	language, ok := h.strategies.Lookup(relativeTo(h.projectRoot, target))
	if !ok || !language.IsProductionSource(relativeTo(h.projectRoot, target)) {
		return "", nil, false
	}
	return target, language, true
}
