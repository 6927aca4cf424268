// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// Ruby recognizes both RSpec (_spec.rb) and Minitest (_test.rb,
// test_*.rb) naming, and proposes RSpec names for new tests.
type Ruby struct{}

func (Ruby) Language() string { return "Ruby" }

func (Ruby) Extensions() []string { return []string{".rb"} }

func (Ruby) IsTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "_spec.rb") ||
		strings.HasSuffix(base, "_test.rb") ||
		strings.HasPrefix(base, "test_") ||
		hasDirectory(path, "spec")
}

func (r Ruby) IsProductionSource(path string) bool { return productionSource(r, path) }

func (Ruby) ShouldSkip(path string) bool {
	if strings.Contains(filepath.ToSlash(path), "db/migrate/") {
		return true
	}
	return hasDirectory(path, "vendor", "bin", "tmp", "log")
}

func (Ruby) TestFilename(name string) string {
	stem, _ := splitName(name)
	return stem + "_spec.rb"
}
