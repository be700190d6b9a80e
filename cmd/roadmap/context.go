package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/config"
	"github.com/steveyegge/roadmap/internal/debug"
	"github.com/steveyegge/roadmap/internal/storage/filesystem"
	"github.com/steveyegge/roadmap/internal/templates"
	"github.com/steveyegge/roadmap/internal/timeparsing"
	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/ui"
	"github.com/steveyegge/roadmap/internal/workspace"
)

// now is the command clock; tests replace it.
var now = time.Now

// session bundles what a command needs after workspace discovery.
type session struct {
	ws       *workspace.Workspace
	settings *config.Settings
	engine   *tracker.Engine
}

// startDir is --dir when given, the working directory otherwise.
func startDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}

func findWorkspace() (*workspace.Workspace, error) {
	start, err := startDir()
	if err != nil {
		return nil, err
	}
	return workspace.Find(start)
}

// openSession finds the workspace, loads its settings and builds the engine.
func openSession(cmd *cobra.Command) (*session, error) {
	ws, err := findWorkspace()
	if err != nil {
		return nil, err
	}
	settings, err := ws.Settings()
	if err != nil {
		return nil, err
	}
	if !settings.Color() {
		ui.SetColor(false)
	}

	log := debug.NewLogger(cmd.ErrOrStderr())
	store := ws.Store(filesystem.WithLogger(log))
	opts := []tracker.Option{
		tracker.WithLogger(log),
		tracker.WithClock(now),
		tracker.WithSettings(settings),
		tracker.WithTemplates(templates.Loader{Dir: ws.TemplatesDir(settings)}),
	}
	if actorFlag != "" {
		opts = append(opts, tracker.WithActor(actorFlag))
	}
	debug.Logf("workspace %s\n", ws.Dir)
	return &session{ws: ws, settings: settings, engine: tracker.New(store, opts...)}, nil
}

// dateFlag parses a date flag value; empty means unset.
func dateFlag(value string) (*types.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := timeparsing.ParseDate(value, now())
	if err != nil {
		return nil, err
	}
	return &d, nil
}
