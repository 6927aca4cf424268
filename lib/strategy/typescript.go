// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package strategy

import (
	"path/filepath"
	"strings"
)

// TypeScript shares the JavaScript test conventions. Declaration files
// (.d.ts) carry no behavior and are skipped.
type TypeScript struct{}

func (TypeScript) Language() string { return "TypeScript" }

func (TypeScript) Extensions() []string { return []string{".ts", ".tsx", ".mts", ".cts"} }

func (TypeScript) IsTestFile(path string) bool { return scriptTestFile(path) }

func (t TypeScript) IsProductionSource(path string) bool { return productionSource(t, path) }

func (TypeScript) ShouldSkip(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	if strings.Contains(base, ".config.") {
		return true
	}
	return hasDirectory(path, scriptSkipDirectories...)
}

func (TypeScript) TestFilename(name string) string {
	stem, extension := splitName(name)
	return stem + ".test" + extension
}
