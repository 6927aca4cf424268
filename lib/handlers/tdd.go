// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
	"github.com/bureau-foundation/hookd/lib/strategy"
)

var defaultTestDirectories = []string{"tests", "test", "__tests__"}

type tddEnforcementOptions struct {
	// TestDirs are directories under the project root searched for
	// test files, in addition to the source file's own directory.
	TestDirs []string `yaml:"test_dirs"`

	// Tools are the tool names whose writes are checked.
	Tools []string `yaml:"tools"`
}

// tddEnforcement denies writing production source that has no test.
// All language decisions go through the strategy registry; files no
// strategy claims are never checked.
type tddEnforcement struct {
	hook.Base
	projectRoot string
	strategies  *strategy.Registry
	testDirs    []string
	tools       []string
}

func tddEnforcementFactory() Factory {
	return Factory{
		ID:       "tdd-enforcement",
		Events:   []hook.EventType{hook.PreToolUse},
		Priority: 30,
		Terminal: true,
		Tags:     []string{"tdd", "workflow"},
		New: func(base hook.Base, options config.Options, build BuildContext) (hook.Handler, error) {
			decoded := tddEnforcementOptions{
				TestDirs: slices.Clone(defaultTestDirectories),
				Tools:    []string{"Write"},
			}
			if err := options.Decode(&decoded); err != nil {
				return nil, err
			}
			if err := validateRelativeDirs(decoded.TestDirs); err != nil {
				return nil, err
			}
			if build.Strategies == nil {
				return nil, errors.New("no strategy registry")
			}
			return &tddEnforcement{
				Base:        base,
				projectRoot: build.Identity.ProjectRoot,
				strategies:  build.Strategies,
				testDirs:    decoded.TestDirs,
				tools:       decoded.Tools,
			}, nil
		},
	}
}

func (h *tddEnforcement) Matches(event hook.Event) bool {
	_, _, missing := h.check(event)
	return missing
}

func (h *tddEnforcement) Handle(event hook.Event) (hook.PartialResult, error) {
	target, testName, missing := h.check(event)
	if !missing {
		return hook.Allowed(), nil
	}
	relative := relativeTo(h.projectRoot, target)
	return hook.Denied(
		fmt.Sprintf("Write a failing test before %s: no %s found.", relative, testName),
		fmt.Sprintf("Create %s next to the source or under one of %v, then retry.", testName, h.testDirs),
	), nil
}

// check resolves the written file and reports whether it is production
// source with no test file.
func (h *tddEnforcement) check(event hook.Event) (target, testName string, missing bool) {
	if !slices.Contains(h.tools, event.ToolName()) {
		return "", "", false
	}
	target = resolvePath(h.projectRoot, event.Get("tool_input.file_path").String())
	if target == "" {
		return "", "", false
	}
	// Directory rules apply inside the project only: a checkout under
	// ~/tests is not a test tree.
	classified := relativeTo(h.projectRoot, target)
	language, ok := h.strategies.Lookup(classified)
	if !ok || language.ShouldSkip(classified) || !language.IsProductionSource(classified) {
		return "", "", false
	}
	testName = language.TestFilename(filepath.Base(target))
	for _, candidate := range testCandidates(h.projectRoot, target, testName, h.testDirs) {
		if _, err := os.Stat(candidate); err == nil {
			return "", "", false
		}
	}
	return target, testName, true
}

// testCandidates lists where a test for source may live: beside it,
// in each test directory at the top level and mirroring the source's
// relative directory, and the src/main -> src/test mirror.
func testCandidates(projectRoot, source, testName string, testDirs []string) []string {
	directory := filepath.Dir(source)
	candidates := []string{filepath.Join(directory, testName)}

	relativeDir := ""
	if projectRoot != "" {
		if relative, err := filepath.Rel(projectRoot, directory); err == nil && !strings.HasPrefix(relative, "..") {
			relativeDir = relative
		}
	}
	for _, testDir := range testDirs {
		base := filepath.Join(projectRoot, testDir)
		candidates = append(candidates, filepath.Join(base, testName))
		if relativeDir != "" && relativeDir != "." {
			candidates = append(candidates, filepath.Join(base, relativeDir, testName))
			// Drop a leading src/ or lib/ so tests/foo mirrors src/foo.
			if first, rest, found := strings.Cut(filepath.ToSlash(relativeDir), "/"); found && (first == "src" || first == "lib") {
				candidates = append(candidates, filepath.Join(base, filepath.FromSlash(rest), testName))
			}
		}
	}

	slashed := filepath.ToSlash(directory)
	if strings.Contains(slashed, "/src/main/") {
		mirrored := strings.Replace(slashed, "/src/main/", "/src/test/", 1)
		candidates = append(candidates, filepath.Join(filepath.FromSlash(mirrored), testName))
	}
	return candidates
}

// resolvePath makes a tool's file_path absolute against the project
// root. Returns "" for an empty path.
func resolvePath(projectRoot, filePath string) string {
	if filePath == "" {
		return ""
	}
	if filepath.IsAbs(filePath) || projectRoot == "" {
		return filepath.Clean(filePath)
	}
	return filepath.Join(projectRoot, filePath)
}

func relativeTo(projectRoot, target string) string {
	if relative, err := filepath.Rel(projectRoot, target); err == nil && !strings.HasPrefix(relative, "..") {
		return relative
	}
	return target
}

func validateRelativeDirs(directories []string) error {
	for i, directory := range directories {
		if directory == "" || filepath.IsAbs(directory) || strings.HasPrefix(filepath.Clean(directory), "..") {
			return fmt.Errorf("options.test_dirs[%d] %q must be a relative path inside the project", i, directory)
		}
	}
	return nil
}
