// Package workspace finds and initializes the .roadmap directory of a repository.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/roadmap/internal/config"
	"github.com/steveyegge/roadmap/internal/storage/filesystem"
)

// DirName is the workspace directory created at the repository root.
const DirName = ".roadmap"

var (
	// ErrNotFound means no workspace exists at or above the start directory.
	ErrNotFound = errors.New("no .roadmap workspace found (run 'roadmap init' first)")
	// ErrExists means Init found an initialized workspace and Force was not set.
	ErrExists = errors.New("workspace already initialized")
)

// Workspace is an initialized .roadmap directory.
type Workspace struct {
	// Root is the repository root containing DirName.
	Root string
	// Dir is Root/.roadmap.
	Dir string
}

// Find walks up from start looking for a workspace directory.
func Find(start string) (*Workspace, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return &Workspace{Root: dir, Dir: candidate}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotFound
		}
		dir = parent
	}
}

// Settings loads the merged configuration of the workspace.
func (w *Workspace) Settings() (*config.Settings, error) {
	return config.Load(w.Dir)
}

// TemplatesDir resolves the template override directory from settings.
func (w *Workspace) TemplatesDir(s *config.Settings) string {
	dir := s.TemplatesDir()
	if dir == "" {
		return ""
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(w.Dir, dir)
}

// SharedConfigPath is the committed layer, existing or not.
func (w *Workspace) SharedConfigPath() string {
	if p := config.FindLayer(w.Dir, config.SharedName); p != "" {
		return p
	}
	return filepath.Join(w.Dir, config.SharedName+".yaml")
}

// LocalConfigPath is the per-contributor layer, existing or not.
func (w *Workspace) LocalConfigPath() string {
	if p := config.FindLayer(w.Dir, config.LocalName); p != "" {
		return p
	}
	return filepath.Join(w.Dir, config.LocalName+".yaml")
}

// Store opens the document store rooted at the workspace.
func (w *Workspace) Store(opts ...filesystem.Option) *filesystem.Store {
	return filesystem.New(w.Dir, opts...)
}
