// Package roadmap provides a minimal public API for driving a roadmap workspace from Go.
//
// It exports the entity types and an Open function that finds the .roadmap directory
// and returns an Engine configured from the workspace settings. Everything else lives
// under internal/.
package roadmap

import (
	"log/slog"

	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/templates"
	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/workspace"
)

// Core types
type (
	Issue     = types.Issue
	Milestone = types.Milestone
	Project   = types.Project
	Status    = types.Status
	Priority  = types.Priority
	IssueType = types.IssueType
	Date      = types.Date

	Engine      = tracker.Engine
	IssueInput  = tracker.IssueInput
	IssueUpdate = tracker.IssueUpdate
	IssueQuery  = tracker.IssueQuery
	IssueView   = tracker.IssueView
	Warning     = tracker.Warning
)

// Status constants
const (
	StatusNotStarted = types.StatusNotStarted
	StatusInProgress = types.StatusInProgress
	StatusBlocked    = types.StatusBlocked
	StatusClosed     = types.StatusClosed
)

// Errors callers match with errors.Is.
var (
	ErrNotFound      = storage.ErrNotFound
	ErrArchived      = tracker.ErrArchived
	ErrNoWorkspace   = workspace.ErrNotFound
	ErrWriteConflict = storage.ErrWriteConflict
)

// Open finds the workspace at or above dir and returns an engine for it.
func Open(dir string, log *slog.Logger) (*Engine, error) {
	ws, err := workspace.Find(dir)
	if err != nil {
		return nil, err
	}
	settings, err := ws.Settings()
	if err != nil {
		return nil, err
	}
	return tracker.New(ws.Store(),
		tracker.WithLogger(log),
		tracker.WithSettings(settings),
		tracker.WithTemplates(templates.Loader{Dir: ws.TemplatesDir(settings)}),
	), nil
}

// Init creates a workspace in dir with default settings and returns an engine for it.
func Init(dir, projectName string) (*Engine, error) {
	if _, err := workspace.Init(dir, workspace.InitOptions{ProjectName: projectName}); err != nil {
		return nil, err
	}
	return Open(dir, nil)
}
