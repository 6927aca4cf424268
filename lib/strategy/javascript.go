// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// JavaScript uses the Jest/Vitest naming convention: foo.test.js or
// foo.spec.js, or anything under __tests__.
type JavaScript struct{}

func (JavaScript) Language() string { return "JavaScript" }

func (JavaScript) Extensions() []string { return []string{".js", ".jsx", ".mjs", ".cjs"} }

func (JavaScript) IsTestFile(path string) bool { return scriptTestFile(path) }

func (j JavaScript) IsProductionSource(path string) bool { return productionSource(j, path) }

func (JavaScript) ShouldSkip(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".min.js") || strings.Contains(base, ".config.") {
		return true
	}
	return hasDirectory(path, scriptSkipDirectories...)
}

func (JavaScript) TestFilename(name string) string {
	stem, extension := splitName(name)
	return stem + ".test" + extension
}

var scriptSkipDirectories = []string{"node_modules", "dist", "build", "coverage", ".next", "out"}

// scriptTestFile is shared by JavaScript and TypeScript.
func scriptTestFile(path string) bool {
	base := filepath.Base(path)
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	return hasDirectory(path, "__tests__")
}
