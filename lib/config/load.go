// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that selects a configuration
// file explicitly.
const EnvVar = "HOOKD_CONFIG"

// Directory is the per-project hookd directory under the project root.
const Directory = ".hookd"

// ErrNoConfig is returned by [Find] when no configuration file exists.
var ErrNoConfig = errors.New("no hookd configuration file found")

// candidateNames are checked in order under <project>/.hookd.
var candidateNames = []string{"config.yaml", "config.yml", "config.jsonc", "config.json"}

// Find returns the configuration file path for projectRoot. When
// HOOKD_CONFIG is set, that path is returned as is and must exist.
// Otherwise the first existing candidate under .hookd is returned, or
// ErrNoConfig.
func Find(projectRoot string) (string, error) {
	if explicit := os.Getenv(EnvVar); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvVar, explicit, err)
		}
		return explicit, nil
	}

	for _, name := range candidateNames {
		candidate := filepath.Join(projectRoot, Directory, name)
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
	}
	return "", ErrNoConfig
}

// IsConfigPath reports whether path is one of the locations [Find]
// checks under projectRoot. HOOKD_CONFIG is not consulted.
func IsConfigPath(projectRoot, path string) bool {
	directory := filepath.Join(projectRoot, Directory)
	if filepath.Dir(filepath.Clean(path)) != directory {
		return false
	}
	return slices.Contains(candidateNames, filepath.Base(path))
}

// Load resolves and loads the configuration for projectRoot, falling
// back to [Default] when no file exists. The result is validated.
func Load(projectRoot string) (*Config, error) {
	path, err := Find(projectRoot)
	if errors.Is(err, ErrNoConfig) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads and validates the configuration at path. Files ending
// in .json or .jsonc are converted from JSONC first; everything else is
// parsed as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration bytes. extension selects the format
// (".json" and ".jsonc" for JSONC, anything else for YAML). Unknown
// top-level or section keys are errors. The result is not validated.
func Parse(data []byte, extension string) (*Config, error) {
	switch strings.ToLower(extension) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	cfg := base()
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	// A file holding only comments decodes as io.EOF.
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	home, _ := os.UserHomeDir()
	c.Daemon.RuntimeDir = expandVars(c.Daemon.RuntimeDir, map[string]string{"HOME": home})
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}
