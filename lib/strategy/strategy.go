// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// Strategy classifies files for one language. Implementations are
// stateless and safe for concurrent use.
type Strategy interface {
	// Language is a human-readable name ("Go", "TypeScript").
	Language() string

	// Extensions lists the lowercase dotted extensions this strategy
	// owns.
	Extensions() []string

	// IsTestFile reports whether path is a test file by this
	// language's conventions.
	IsTestFile(path string) bool

	// IsProductionSource reports whether path is source code that
	// policy should hold to test discipline: owned extension, not a
	// test, not skipped.
	IsProductionSource(path string) bool

	// ShouldSkip reports whether policy should ignore path entirely
	// (vendored, generated, build output, declaration files).
	ShouldSkip(path string) bool

	// TestFilename returns the conventional test filename for the base
	// filename name ("handler.go" -> "handler_test.go").
	TestFilename(name string) string
}

// productionSource is the shared IsProductionSource rule.
func productionSource(s Strategy, path string) bool {
	if !ownsExtension(s, path) {
		return false
	}
	return !s.IsTestFile(path) && !s.ShouldSkip(path)
}

func ownsExtension(s Strategy, path string) bool {
	extension := strings.ToLower(filepath.Ext(path))
	for _, owned := range s.Extensions() {
		if extension == owned {
			return true
		}
	}
	return false
}

// hasDirectory reports whether any directory component of path equals
// one of names. The final component (the file itself) is not checked.
func hasDirectory(path string, names ...string) bool {
	directory := filepath.ToSlash(filepath.Dir(path))
	for _, segment := range strings.Split(directory, "/") {
		for _, name := range names {
			if segment == name {
				return true
			}
		}
	}
	return false
}

// splitName splits a base filename into stem and extension, keeping
// the extension's original case.
func splitName(name string) (stem, extension string) {
	name = filepath.Base(name)
	extension = filepath.Ext(name)
	return strings.TrimSuffix(name, extension), extension
}
