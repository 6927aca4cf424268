// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// Rust treats files under a tests/ directory, or named *_test.rs, as
// tests. Crate roots and build scripts are skipped.
type Rust struct{}

func (Rust) Language() string { return "Rust" }

func (Rust) Extensions() []string { return []string{".rs"} }

func (Rust) IsTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_test.rs") || hasDirectory(path, "tests", "benches")
}

func (r Rust) IsProductionSource(path string) bool { return productionSource(r, path) }

func (Rust) ShouldSkip(path string) bool {
	switch filepath.Base(path) {
	case "build.rs", "main.rs", "lib.rs", "mod.rs":
		return true
	}
	return hasDirectory(path, "target", "examples")
}

func (Rust) TestFilename(name string) string {
	stem, _ := splitName(name)
	return stem + "_test.rs"
}
