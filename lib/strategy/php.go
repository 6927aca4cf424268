// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// PHP follows PHPUnit: FooTest.php.
type PHP struct{}

func (PHP) Language() string { return "PHP" }

func (PHP) Extensions() []string { return []string{".php"} }

func (PHP) IsTestFile(path string) bool {
	stem, _ := splitName(path)
	return strings.HasSuffix(stem, "Test")
}

func (p PHP) IsProductionSource(path string) bool { return productionSource(p, path) }

func (PHP) ShouldSkip(path string) bool {
	if strings.HasSuffix(filepath.Base(path), ".blade.php") {
		return true
	}
	return hasDirectory(path, "vendor", "cache", "storage", "bootstrap")
}

func (PHP) TestFilename(name string) string {
	stem, _ := splitName(name)
	return stem + "Test.php"
}
