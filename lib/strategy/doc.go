// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package strategy provides per-language file classification for
// handlers whose policy depends on the programming language of a file.
//
// A [Strategy] answers four questions about a path: is it a test file,
// is it production source, should policy ignore it entirely, and what
// is the conventional test filename for it. A [Registry] maps lowercase
// dotted extensions (".go", ".tsx") to exactly one Strategy.
//
// Handlers never branch on language. They hold a Registry, call
// [Registry.Lookup], and treat a miss as "no applicable policy". Adding
// a language is one new Strategy type and one line in [Default].
package strategy
