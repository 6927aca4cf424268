// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"path/filepath"
	"strings"
)

// splitCommand splits a shell command line into simple commands on
// &&, ||, ;, |, |&, the background operator &, and newlines.
// Redirections such as 2>&1 and &>file stay in place. Separators inside single or double quotes
// do not split. Empty segments are dropped.
func splitCommand(command string) []string {
	var segments []string
	var current strings.Builder
	inSingle, inDouble, escaped := false, false, false

	flush := func() {
		if segment := strings.TrimSpace(current.String()); segment != "" {
			segments = append(segments, segment)
		}
		current.Reset()
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && !inSingle:
			escaped = true
			current.WriteRune(r)
			continue
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		}
		if inSingle || inDouble {
			current.WriteRune(r)
			continue
		}

		switch r {
		case ';', '\n':
			flush()
			continue
		case '&':
			if i+1 < len(runes) && runes[i+1] == '&' {
				flush()
				i++
				continue
			}
			// 2>&1, >&2, &>file are redirections.
			if (i > 0 && (runes[i-1] == '>' || runes[i-1] == '<')) || (i+1 < len(runes) && runes[i+1] == '>') {
				break
			}
			flush()
			continue
		case '|':
			if i+1 < len(runes) && (runes[i+1] == '|' || runes[i+1] == '&') {
				i++
			}
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return segments
}

// shellFields splits one simple command into words, removing quotes
// and backslash escapes the way the shell would. Variables are not
// expanded: "$HOME" stays "$HOME".
func shellFields(segment string) []string {
	var words []string
	var current strings.Builder
	inWord, inSingle, inDouble, escaped := false, false, false, false

	for _, r := range segment {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
			inWord = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			inWord = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			inWord = true
		case (r == ' ' || r == '\t') && !inSingle && !inDouble:
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		words = append(words, current.String())
	}
	return words
}

// wrapperCommands run their arguments as a command.
var wrapperCommands = map[string]bool{
	"sudo":    true,
	"env":     true,
	"command": true,
	"exec":    true,
	"nohup":   true,
	"time":    true,
}

// wrapperValueFlags are wrapper options that consume the next word
// (sudo -u root).
var wrapperValueFlags = map[string]bool{
	"-u": true,
	"-g": true,
	"-C": true,
	"-h": true,
	"-p": true,
	"-U": true,
}

// commandWords returns the program name (base name, so /usr/bin/git
// becomes git) and its arguments, skipping leading VAR=value
// assignments and wrapper commands like sudo and env. Wrapper flags
// (sudo -u root) are skipped too.
func commandWords(segment string) (string, []string) {
	words := shellFields(segment)
	for len(words) > 0 {
		word := words[0]
		switch {
		case isAssignment(word):
			words = words[1:]
		case wrapperCommands[filepath.Base(word)]:
			words = words[1:]
			for len(words) > 0 && (strings.HasPrefix(words[0], "-") || isAssignment(words[0])) {
				if wrapperValueFlags[words[0]] && len(words) > 1 {
					words = words[1:]
				}
				words = words[1:]
			}
		default:
			return filepath.Base(word), words[1:]
		}
	}
	return "", nil
}

func isAssignment(word string) bool {
	name, _, found := strings.Cut(word, "=")
	if !found || name == "" {
		return false
	}
	for i, r := range name {
		isLetter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !(isDigit && i > 0) {
			return false
		}
	}
	return true
}

// shortFlagCluster reports whether arg is a single-dash flag cluster
// (-rf) containing any of the given letters.
func shortFlagCluster(arg string, letters string) bool {
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return false
	}
	return strings.ContainsAny(arg[1:], letters)
}
