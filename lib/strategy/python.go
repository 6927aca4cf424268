// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// Python follows pytest discovery: test_*.py or *_test.py. Anything
// under a tests/ or test/ directory (fixtures, helpers) is test code.
type Python struct{}

func (Python) Language() string { return "Python" }

func (Python) Extensions() []string { return []string{".py"} }

func (Python) IsTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, "_test.py") ||
		base == "conftest.py" ||
		hasDirectory(path, "tests", "test")
}

func (p Python) IsProductionSource(path string) bool { return productionSource(p, path) }

func (Python) ShouldSkip(path string) bool {
	switch filepath.Base(path) {
	case "__init__.py", "setup.py", "manage.py":
		return true
	}
	return hasDirectory(path, "__pycache__", ".venv", "venv", "site-packages", "migrations", ".tox")
}

func (Python) TestFilename(name string) string {
	stem, _ := splitName(name)
	return "test_" + stem + ".py"
}
