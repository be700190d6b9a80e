package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/config"
	"github.com/steveyegge/roadmap/internal/graph"
	"github.com/steveyegge/roadmap/internal/lifecycle"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/timeparsing"
	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/ui"
	"github.com/steveyegge/roadmap/internal/validation"
	"github.com/steveyegge/roadmap/internal/workspace"
)

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// outputJSON writes v to the command's stdout.
func outputJSON(cmd *cobra.Command, v any) {
	writeJSON(cmd.OutOrStdout(), v)
}

// printf writes human output unless --quiet or --json is set.
func printf(cmd *cobra.Command, format string, args ...any) {
	if quietFlag || jsonOutput {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// printWarnings reports non-fatal findings on stderr.
func printWarnings(cmd *cobra.Command, warnings []tracker.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", ui.RenderWarnIcon(), w)
	}
}

// printReadErrors reports files that could not be loaded during a listing.
func printReadErrors(cmd *cobra.Command, errs []error) {
	for _, err := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s skipped: %v\n", ui.RenderWarnIcon(), err)
	}
}

func errorCode(err error) string {
	var (
		verr *validation.ValidationError
		gerr *graph.GraphError
		terr *lifecycle.InvalidTransitionError
		cerr *storage.WriteConflictError
		serr *config.SchemaError
	)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &gerr):
		return "graph_" + string(gerr.Kind)
	case errors.As(err, &terr):
		return "invalid_transition"
	case errors.As(err, &cerr):
		return "write_conflict"
	case errors.Is(err, tracker.ErrArchived):
		return "archived"
	case errors.As(err, &serr):
		return "config"
	case errors.Is(err, workspace.ErrNotFound):
		return "no_workspace"
	case errors.Is(err, timeparsing.ErrUnrecognized):
		return "bad_date"
	}
	return ""
}

func errorHint(err error) string {
	var cerr *storage.WriteConflictError
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		return "run 'roadmap init' at the repository root, or pass --dir"
	case errors.As(err, &cerr):
		return "another process changed the file; re-run the command"
	case errors.Is(err, tracker.ErrArchived):
		return "archived items are read-only"
	}
	return ""
}
