// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// HandlerEntry is one handler's configuration, with the ID it was
// listed under.
type HandlerEntry struct {
	ID string
	HandlerConfig
}

// HandlerConfig is the per-handler configuration block.
type HandlerConfig struct {
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled"`

	// Priority overrides the handler's built-in default. Lower runs
	// first.
	Priority *int `yaml:"priority"`

	// Tags replaces the handler's built-in tags when non-nil.
	Tags []string `yaml:"tags"`

	// Options is handler-specific and decoded by the handler factory.
	Options Options `yaml:"options"`
}

// IsEnabled reports whether the handler should be built.
func (h HandlerConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// HandlerList is an ordered handler table. In YAML it is a mapping from
// handler ID to [HandlerConfig]; decoding keeps the mapping's order.
type HandlerList []HandlerEntry

// UnmarshalYAML decodes a mapping node in document order and rejects
// duplicate IDs.
func (l *HandlerList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: handler table must be a mapping of handler ID to settings", node.Line)
	}

	list := make(HandlerList, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var id string
		if err := keyNode.Decode(&id); err != nil {
			return fmt.Errorf("line %d: handler ID: %w", keyNode.Line, err)
		}
		if seen[id] {
			return fmt.Errorf("line %d: handler %q listed twice", keyNode.Line, id)
		}
		seen[id] = true

		entry := HandlerEntry{ID: id}
		// "handler-id:" with no body is an enabled handler with defaults.
		if !isNull(valueNode) {
			if err := decodeStrict(valueNode, &entry.HandlerConfig); err != nil {
				return fmt.Errorf("handler %q: %w", id, err)
			}
		}
		list = append(list, entry)
	}

	*l = list
	return nil
}

// IDs returns the handler IDs in order.
func (l HandlerList) IDs() []string {
	ids := make([]string, len(l))
	for i, entry := range l {
		ids[i] = entry.ID
	}
	return ids
}

// Options holds a handler's raw options block until its factory
// decodes it.
type Options struct {
	node *yaml.Node
}

// UnmarshalYAML retains the node.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	if isNull(node) {
		o.node = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: options must be a mapping", node.Line)
	}
	o.node = node
	return nil
}

// IsZero reports whether no options were given.
func (o Options) IsZero() bool { return o.node == nil }

// Decode decodes the options into target, a pointer to a struct with
// yaml tags. Keys that target does not declare are errors. With no
// options configured, target is left unchanged, so callers pre-fill
// defaults.
func (o Options) Decode(target any) error {
	if o.node == nil {
		return nil
	}
	return decodeStrict(o.node, target)
}

// OptionsFromYAML parses a YAML mapping into Options. It exists for
// tests and programmatic configuration.
func OptionsFromYAML(source string) (Options, error) {
	var options Options
	if err := yaml.Unmarshal([]byte(source), &options); err != nil {
		return Options{}, err
	}
	return options, nil
}

// decodeStrict re-encodes node and decodes it with KnownFields, since
// yaml.Node.Decode has no strict mode.
func decodeStrict(node *yaml.Node, target any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("re-encoding line %d: %w", node.Line, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
