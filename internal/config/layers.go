// Package config loads the shared and local configuration layers of a workspace and
// exposes the merged result as typed settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Layer file base names inside the workspace directory.
const (
	SharedName = "config"
	LocalName  = "config.local"
)

var layerExts = []string{".yaml", ".yml", ".toml"}

// FindLayer returns the first existing file for the named layer, or "" when none exists.
func FindLayer(dir, name string) string {
	for _, ext := range layerExts {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayer decodes a YAML or TOML file into a mapping. A missing file is an empty layer.
func LoadLayer(path string) (map[string]any, error) {
	out := map[string]any{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 - path is inside the workspace
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), &out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			return out, nil
		}
		m, ok := asMap(raw)
		if !ok {
			return nil, fmt.Errorf("%s: top level must be a mapping", path)
		}
		out = m
	}
	return out, nil
}

// Layers are the raw shared and local mappings plus their merge.
type Layers struct {
	SharedPath string
	LocalPath  string
	Shared     map[string]any
	Local      map[string]any
	Effective  map[string]any
}

// LoadLayers reads both layers from the workspace directory and merges them.
func LoadLayers(dir string) (*Layers, error) {
	l := &Layers{
		SharedPath: FindLayer(dir, SharedName),
		LocalPath:  FindLayer(dir, LocalName),
	}
	var err error
	if l.Shared, err = LoadLayer(l.SharedPath); err != nil {
		return nil, err
	}
	if l.Local, err = LoadLayer(l.LocalPath); err != nil {
		return nil, err
	}
	l.Effective = Merge(l.Shared, l.Local)
	return l, nil
}
