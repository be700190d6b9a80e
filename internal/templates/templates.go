// Package templates renders the markdown body of newly created items.
//
// Lookup chain (highest to lowest priority):
//  1. Workspace override: .roadmap/templates/<kind>.md.tmpl
//  2. User-level: ~/.config/roadmap/templates/<kind>.md.tmpl
//  3. Embedded default
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/steveyegge/roadmap/internal/debug"
	"github.com/steveyegge/roadmap/internal/types"
)

//go:embed defaults/*.md.tmpl
var defaults embed.FS

// Fields is the data passed to a body template.
type Fields struct {
	Title       string
	Description string
	Criteria    []string
	Milestone   string
	Milestones  []string
	Assignee    string
	Labels      []string
}

// Loader resolves templates for one workspace.
type Loader struct {
	// Dir is the workspace override directory. Empty skips the workspace layer.
	Dir string
	// UserDir overrides the user-level directory; empty means os.UserConfigDir()/roadmap/templates.
	UserDir string
}

func fileName(kind types.Kind) string {
	return string(kind) + ".md.tmpl"
}

// Source reports where the template for kind would be loaded from.
func (l Loader) Source(kind types.Kind) string {
	_, source, err := l.resolve(kind)
	if err != nil {
		return "not found"
	}
	return source
}

// Render executes the template for kind with f.
func (l Loader) Render(kind types.Kind, f Fields) (string, error) {
	content, source, err := l.resolve(kind)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s template: %w", kind, err)
	}
	debug.Logf("template: loaded %s from %s\n", fileName(kind), source)

	tmpl, err := template.New(fileName(kind)).Option("missingkey=zero").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", source, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, f); err != nil {
		return "", fmt.Errorf("render template %s: %w", source, err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

func (l Loader) resolve(kind types.Kind) ([]byte, string, error) {
	if !kind.IsValid() {
		return nil, "", fmt.Errorf("unknown kind %q", kind)
	}
	name := fileName(kind)

	if l.Dir != "" {
		path := filepath.Join(l.Dir, name)
		if content, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: workspace template path
			return content, path, nil
		}
	}

	userDir := l.UserDir
	if userDir == "" {
		if configDir, err := os.UserConfigDir(); err == nil {
			userDir = filepath.Join(configDir, "roadmap", "templates")
		}
	}
	if userDir != "" {
		path := filepath.Join(userDir, name)
		if content, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: user template path
			return content, path, nil
		}
	}

	content, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return nil, "", fmt.Errorf("embedded default template not found: %w", err)
	}
	return content, "embedded:" + name, nil
}

// EmbeddedDefault returns the built-in template text for kind.
func EmbeddedDefault(kind types.Kind) string {
	content, err := defaults.ReadFile("defaults/" + fileName(kind))
	if err != nil {
		return ""
	}
	return string(content)
}
