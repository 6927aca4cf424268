// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// Java follows the Maven/Gradle layout: FooTest.java, usually under
// src/test.
type Java struct{}

func (Java) Language() string { return "Java" }

func (Java) Extensions() []string { return []string{".java"} }

func (Java) IsTestFile(path string) bool {
	stem, _ := splitName(path)
	if strings.HasSuffix(stem, "Test") || strings.HasSuffix(stem, "Tests") || strings.HasSuffix(stem, "IT") {
		return true
	}
	return strings.Contains(filepath.ToSlash(path), "src/test/")
}

func (j Java) IsProductionSource(path string) bool { return productionSource(j, path) }

func (Java) ShouldSkip(path string) bool {
	switch filepath.Base(path) {
	case "package-info.java", "module-info.java":
		return true
	}
	return hasDirectory(path, "target", "build", "generated", ".gradle")
}

func (Java) TestFilename(name string) string {
	stem, _ := splitName(name)
	return stem + "Test.java"
}
