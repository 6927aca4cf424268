// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "slices"

// FilterByTags reports whether a handler with handlerTags is kept
// under the global tag lists. Any overlap with disable drops the
// handler. A non-empty enable list keeps only handlers with at least
// one tag in it. Empty lists impose no constraint.
func FilterByTags(handlerTags, enable, disable []string) bool {
	for _, tag := range handlerTags {
		if slices.Contains(disable, tag) {
			return false
		}
	}
	if len(enable) == 0 {
		return true
	}
	for _, tag := range handlerTags {
		if slices.Contains(enable, tag) {
			return true
		}
	}
	return false
}
