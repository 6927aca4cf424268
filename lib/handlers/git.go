// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
)

type destructiveGitOptions struct {
	// Allow lists substrings; a command segment containing any of them
	// is never denied.
	Allow []string `yaml:"allow"`
}

// destructiveGit denies git commands that discard uncommitted work or
// rewrite shared history.
type destructiveGit struct {
	hook.Base
	allow []string
}

func destructiveGitFactory() Factory {
	return Factory{
		ID:       "destructive-git",
		Events:   []hook.EventType{hook.PreToolUse},
		Priority: 10,
		Terminal: true,
		Tags:     []string{"safety", "git"},
		New: func(base hook.Base, options config.Options, _ BuildContext) (hook.Handler, error) {
			var decoded destructiveGitOptions
			if err := options.Decode(&decoded); err != nil {
				return nil, err
			}
			for i, pattern := range decoded.Allow {
				if pattern == "" {
					return nil, fmt.Errorf("options.allow[%d] must not be empty", i)
				}
			}
			return &destructiveGit{Base: base, allow: decoded.Allow}, nil
		},
	}
}

func (h *destructiveGit) Matches(event hook.Event) bool {
	_, found := h.find(event)
	return found
}

func (h *destructiveGit) Handle(event hook.Event) (hook.PartialResult, error) {
	finding, found := h.find(event)
	if !found {
		return hook.Allowed(), nil
	}
	return hook.Denied(
		fmt.Sprintf("Blocked destructive git command %q: %s.", finding.segment, finding.problem),
		finding.advice,
	), nil
}

type gitFinding struct {
	segment string
	problem string
	advice  string
}

func (h *destructiveGit) find(event hook.Event) (gitFinding, bool) {
	if event.ToolName() != "Bash" {
		return gitFinding{}, false
	}
	for _, segment := range splitCommand(event.Get("tool_input.command").String()) {
		if h.allowed(segment) {
			continue
		}
		program, args := commandWords(segment)
		if program != "git" {
			continue
		}
		if problem, advice, bad := classifyGit(gitSubcommand(args)); bad {
			return gitFinding{segment: segment, problem: problem, advice: advice}, true
		}
	}
	return gitFinding{}, false
}

func (h *destructiveGit) allowed(segment string) bool {
	for _, pattern := range h.allow {
		if strings.Contains(segment, pattern) {
			return true
		}
	}
	return false
}

// gitGlobalValueOptions take a value as the next word.
var gitGlobalValueOptions = map[string]bool{
	"-C":             true,
	"-c":             true,
	"--git-dir":      true,
	"--work-tree":    true,
	"--namespace":    true,
	"--super-prefix": true,
	"--config-env":   true,
}

// gitSubcommand strips git's global options, returning the subcommand
// and its arguments.
func gitSubcommand(args []string) []string {
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		if gitGlobalValueOptions[args[0]] && len(args) > 1 {
			args = args[1:]
		}
		args = args[1:]
	}
	return args
}

// classifyGit inspects a subcommand and its arguments.
func classifyGit(args []string) (problem, advice string, bad bool) {
	if len(args) == 0 {
		return "", "", false
	}
	subcommand, rest := args[0], args[1:]

	switch subcommand {
	case "reset":
		if slices.Contains(rest, "--hard") {
			return "reset --hard discards uncommitted changes",
				"Commit or stash your changes first, or use git reset --soft / --mixed.", true
		}
	case "clean":
		for _, arg := range rest {
			if arg == "--force" || shortFlagCluster(arg, "f") {
				return "clean -f deletes untracked files permanently",
					"Run git clean -n to preview what would be removed.", true
			}
		}
	case "push":
		for _, arg := range rest {
			if arg == "--force" || shortFlagCluster(arg, "f") {
				return "force push overwrites remote history",
					"Use git push --force-with-lease if a rewrite is intended.", true
			}
		}
	case "checkout":
		for i, arg := range rest {
			if arg == "--" && i+1 < len(rest) {
				return "checkout -- <path> discards working tree changes",
					"Stash the changes first with git stash.", true
			}
			if arg == "." {
				return "checkout . discards all working tree changes",
					"Stash the changes first with git stash.", true
			}
			if arg == "--force" || arg == "-f" {
				return "checkout --force discards local changes",
					"Commit or stash your changes before switching.", true
			}
		}
	case "restore":
		staged := slices.Contains(rest, "--staged") || slices.Contains(rest, "-S")
		worktree := slices.Contains(rest, "--worktree") || slices.Contains(rest, "-W")
		if !staged || worktree {
			return "restore overwrites working tree files",
				"Use git restore --staged to unstage without touching the working tree.", true
		}
	case "stash":
		if len(rest) > 0 && (rest[0] == "drop" || rest[0] == "clear") {
			return "stash " + rest[0] + " permanently deletes stashed work",
				"Use git stash list and git stash show to inspect stashes first.", true
		}
	case "branch":
		deleteFlag := slices.Contains(rest, "--delete") || slices.Contains(rest, "-d")
		forceFlag := slices.Contains(rest, "--force") || slices.Contains(rest, "-f")
		if slices.Contains(rest, "-D") || (deleteFlag && forceFlag) {
			return "branch -D deletes a branch even if it is not merged",
				"Use git branch -d, which refuses to delete unmerged work.", true
		}
	}
	return "", "", false
}
