package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// SetValue writes key=value into the YAML layer at path, creating the file and any
// missing parent mappings. Comments and key order of the rest of the file survive.
func SetValue(path, key, value string) error {
	if filepath.Ext(path) == ".toml" {
		return fmt.Errorf("%s: editing TOML layers is not supported", path)
	}
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid key %q", key)
		}
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode}
	data, err := os.ReadFile(path) // #nosec G304 - path is inside the workspace
	created := errors.Is(err, os.ErrNotExist)
	switch {
	case created:
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", path, err)
	case len(strings.TrimSpace(string(data))) > 0:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level must be a mapping", path)
	}

	node := root
	for i, part := range parts {
		last := i == len(parts)-1
		child := lookupKey(node, part)
		if last {
			scalar := valueNode(key, value)
			if child != nil {
				scalar.LineComment = child.LineComment
				*child = *scalar
			} else {
				node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part}, scalar)
			}
			break
		}
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part}, child)
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("cannot set %s: %s is not a mapping", key, strings.Join(parts[:i+1], "."))
		}
		node = child
	}

	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, strings.NewReader(buf.String())); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if created {
		return os.Chmod(path, 0o644)
	}
	return nil
}

func lookupKey(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// valueNode types a command-line value by the schema type of key. Keys the schema does
// not describe keep booleans and numbers unquoted and treat anything else as a string.
func valueNode(key, value string) *yaml.Node {
	str := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	lower := strings.ToLower(value)
	isBool := lower == "true" || lower == "false"
	boolNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: lower}

	switch DeclaredType(key) {
	case "string":
		return str
	case "boolean":
		if isBool {
			return boolNode
		}
		return str
	case "integer", "number":
		if isInt(value) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: value}
		}
		if isFloat(value) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: value}
		}
		return str
	}

	switch {
	case isBool:
		return boolNode
	case isInt(value):
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: value}
	case isFloat(value):
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: value}
	}
	return str
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil && strings.ContainsAny(s, ".")
}

// SetValidated is SetValue followed by a reload of the layers in dir. When the result
// fails the schema the file at path is put back as it was and the schema error returned.
func SetValidated(dir, path, key, value string) error {
	prev, err := os.ReadFile(path) // #nosec G304 - path is inside the workspace
	existed := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := SetValue(path, key, value); err != nil {
		return err
	}
	if _, err := Load(dir); err != nil {
		var rerr error
		if existed {
			rerr = atomic.WriteFile(path, strings.NewReader(string(prev)))
		} else {
			rerr = os.Remove(path)
		}
		if rerr != nil {
			return fmt.Errorf("%w (restoring %s also failed: %v)", err, path, rerr)
		}
		return err
	}
	return nil
}
