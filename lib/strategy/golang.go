// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// Go classifies Go source. Tests live beside the code as *_test.go.
type Go struct{}

func (Go) Language() string { return "Go" }

func (Go) Extensions() []string { return []string{".go"} }

func (Go) IsTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_test.go")
}

func (g Go) IsProductionSource(path string) bool { return productionSource(g, path) }

func (Go) ShouldSkip(path string) bool {
	base := filepath.Base(path)
	if base == "doc.go" || strings.HasSuffix(base, ".pb.go") || strings.HasSuffix(base, "_gen.go") {
		return true
	}
	return hasDirectory(path, "vendor", "testdata")
}

func (Go) TestFilename(name string) string {
	stem, _ := splitName(name)
	return stem + "_test.go"
}
