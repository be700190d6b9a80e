package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/roadmap/internal/config"
	"github.com/steveyegge/roadmap/internal/storage/filesystem"
)

// InitOptions seeds the configuration layers of a new workspace.
type InitOptions struct {
	// ProjectName goes into the shared layer; the root directory name when empty.
	ProjectName string
	// UserName and UserEmail go into the local layer.
	UserName  string
	UserEmail string
	// Force re-runs initialization on an existing workspace. Existing files are kept.
	Force bool
}

// InitResult reports what Init created.
type InitResult struct {
	Workspace *Workspace
	Settings  *config.Settings
	Created   []string
}

const sharedTemplate = `# Shared roadmap settings. Committed and seen by the whole team.
# Personal overrides belong in config.local.yaml, which git ignores.

project:
  name: ""

defaults:
  priority: medium
  issue_type: feature

progress:
  # trailing window, in days, for completion velocity
  velocity_window_days: 14
  # days past a due date a projection may land and still count as medium risk
  risk_tolerance_days: 7

graph:
  # report dangling depends_on entries as errors instead of warnings
  strict_references: false

templates:
  dir: templates
`

const localTemplate = `# Personal roadmap settings. Not committed; values here override config.yaml.

user:
  name: ""
  email: ""
`

const gitignore = `# Local roadmap settings
config.local.yaml
config.local.yml
config.local.toml
`

// Init creates the workspace under root: entity directories, the archive area, a
// templates directory, both config layers and a .gitignore for the local layer. It
// returns the merged settings of the new workspace. A failed Init removes the workspace
// directory again when it was the one to create it.
func Init(root string, opts InitOptions) (res *InitResult, err error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	w := &Workspace{Root: abs, Dir: filepath.Join(abs, DirName)}

	_, statErr := os.Stat(w.Dir)
	if statErr == nil && !opts.Force {
		return nil, fmt.Errorf("%w at %s", ErrExists, w.Dir)
	}
	if errors.Is(statErr, os.ErrNotExist) {
		defer func() {
			if err != nil {
				_ = os.RemoveAll(w.Dir)
			}
		}()
	}

	res = &InitResult{Workspace: w}
	if err := filesystem.New(w.Dir).Init(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(w.Dir, "templates"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create templates directory: %w", err)
	}

	name := opts.ProjectName
	if name == "" {
		name = filepath.Base(abs)
	}

	shared := w.SharedConfigPath()
	created, err := writeIfMissing(shared, sharedTemplate)
	if err != nil {
		return nil, err
	}
	if created {
		res.Created = append(res.Created, shared)
		if err := config.SetValue(shared, "project.name", name); err != nil {
			return nil, err
		}
	}

	local := w.LocalConfigPath()
	created, err = writeIfMissing(local, localTemplate)
	if err != nil {
		return nil, err
	}
	if created {
		res.Created = append(res.Created, local)
	}
	for key, val := range map[string]string{"user.name": opts.UserName, "user.email": opts.UserEmail} {
		if val == "" {
			continue
		}
		if err := config.SetValue(local, key, val); err != nil {
			return nil, err
		}
	}

	ignore := filepath.Join(w.Dir, ".gitignore")
	if created, err = writeIfMissing(ignore, gitignore); err != nil {
		return nil, err
	} else if created {
		res.Created = append(res.Created, ignore)
	}

	if res.Settings, err = w.Settings(); err != nil {
		return nil, err
	}
	return res, nil
}

func writeIfMissing(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G304 - path is inside the workspace
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, f.Close()
}
