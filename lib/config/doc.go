// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads hookd configuration.
//
// Configuration comes from exactly one place, checked in order:
//   - the file named by the HOOKD_CONFIG environment variable, or
//   - the first of .hookd/config.yaml, config.yml, config.jsonc,
//     config.json under the project root, or
//   - [Default], when no file exists.
//
// YAML is the native format. JSON and JSONC files are accepted by
// extension; JSONC comments and trailing commas are stripped before
// parsing. A configuration file replaces the default handler set
// entirely: handlers not listed in the file are not loaded.
//
// The handlers section is keyed by event type, then by handler ID:
//
//	handlers:
//	  PreToolUse:
//	    destructive-git:
//	      priority: 10
//	      tags: [safety, git]
//	      options:
//	        allow: ["git checkout -- vendor/"]
//	    tdd-enforcement:
//	      enabled: false
//
// Handler order within an event is preserved from the file, which is
// how equal priorities are tie-broken. Per-handler options stay as a
// raw YAML node until the handler factory decodes them into its own
// typed struct with [Options.Decode], which rejects unknown keys.
//
// Variable expansion (${HOME}, ${VAR:-default}) is applied to
// daemon.runtime_dir after loading. No environment variable other than
// HOOKD_CONFIG influences configuration.
//
// Key exports:
//
//   - [Config] -- daemon, tags, and handlers sections
//   - [Default] -- the configuration used when no file exists
//   - [Load], [LoadFile], [Find] -- resolution and loading
package config
